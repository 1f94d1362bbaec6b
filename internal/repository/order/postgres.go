package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"emporia/internal/domain"
	"emporia/internal/logging"
)

const orderColumns = `id, customer_id, order_date, status, total_amount`

type postgresRepo struct {
	pool *pgxpool.Pool
	lg   *zap.Logger
}

var _ Repository = (*postgresRepo)(nil)

func NewPostgres(pool *pgxpool.Pool, lg *zap.Logger) Repository {
	return &postgresRepo{pool: pool, lg: logging.OrNop(lg).Named("order_repo")}
}

// CreateOrder inserts the order and its items in one transaction and returns
// the order with the assigned id.
func (r *postgresRepo) CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out := o
	err = tx.QueryRow(ctx, `
INSERT INTO orders (customer_id, order_date, status, total_amount)
VALUES ($1, $2, $3, $4)
RETURNING id
`, o.CustomerID, o.OrderDate, string(o.Status), o.TotalAmount).Scan(&out.ID)
	if err != nil {
		r.lg.Error("insert order", zap.Int64("customer_id", o.CustomerID), zap.Error(err))
		return nil, errors.Wrap(err, "insert order")
	}

	if len(o.Items) > 0 {
		batch := &pgx.Batch{}
		for _, item := range o.Items {
			batch.Queue(`
INSERT INTO order_items (order_id, product_id, quantity, price)
VALUES ($1, $2, $3, $4)
`, out.ID, item.ProductID, item.Quantity, item.Price)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			r.lg.Error("insert order items", zap.Int64("order_id", out.ID), zap.Error(err))
			return nil, errors.Wrap(err, "insert order items")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit order")
	}
	out.Items = append([]domain.OrderItem(nil), o.Items...)
	r.lg.Debug("created", zap.Int64("order_id", out.ID), zap.Int("items", len(out.Items)))
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	if o.Items, err = r.items(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateOrder writes status and total. Items are immutable after creation.
func (r *postgresRepo) UpdateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE orders SET status = $2, total_amount = $3 WHERE id = $1
`, o.ID, string(o.Status), o.TotalAmount)
	if err != nil {
		r.lg.Error("update order", zap.Int64("order_id", o.ID), zap.Error(err))
		return nil, errors.Wrapf(err, "update order %d", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	r.lg.Debug("updated", zap.Int64("order_id", o.ID), zap.String("status", string(o.Status)))
	out := o
	return &out, nil
}

// DeleteOrder removes the items first, then the order.
func (r *postgresRepo) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return errors.Wrapf(err, "delete items of order %d", id)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return errors.Wrapf(err, "delete order %d", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit delete")
	}
	r.lg.Debug("deleted", zap.Int64("order_id", id))
	return nil
}

// GetOrdersByCustomer returns the customer's orders, newest first.
func (r *postgresRepo) GetOrdersByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1 ORDER BY order_date DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, customerID)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of customer %d", customerID)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return domain.Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan orders")
	}
	for i := range orders {
		if orders[i].Items, err = r.items(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *postgresRepo) items(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
SELECT oi.product_id, p.name, oi.price, oi.quantity
FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE oi.order_id = $1
ORDER BY oi.product_id
`, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "list items of order %d", orderID)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderItem, error) {
		var it domain.OrderItem
		err := row.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity)
		return it, err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan items of order %d", orderID)
	}
	return items, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.CustomerID, &o.OrderDate, &status, &o.TotalAmount); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
