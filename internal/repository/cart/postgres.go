package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emporia/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, customerID int64) (*domain.Cart, error) {
	const q = `
INSERT INTO shopping_carts (customer_id)
VALUES ($1)
ON CONFLICT (customer_id) DO UPDATE SET customer_id = EXCLUDED.customer_id
RETURNING id
`
	var cartID int64
	if err := r.pool.QueryRow(ctx, q, customerID).Scan(&cartID); err != nil {
		return nil, errors.Wrapf(err, "get or create cart for customer %d", customerID)
	}
	return r.Get(ctx, cartID, customerID)
}

func (r *postgresRepo) Get(ctx context.Context, cartID, customerID int64) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, `
SELECT id, customer_id, created_at
FROM shopping_carts
WHERE id = $1 AND customer_id = $2
`, cartID, customerID).Scan(&cart.ID, &cart.CustomerID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get cart %d", cartID)
	}

	const itemsQuery = `
SELECT ci.quantity, p.id, p.seller_id, p.category_id, p.name, p.description, p.image, p.price, p.stock, p.created_at
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.added_at ASC, p.id ASC
`
	rows, err := r.pool.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, errors.Wrapf(err, "list items of cart %d", cart.ID)
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		p := &item.Product
		if err := rows.Scan(&item.Quantity, &p.ID, &p.SellerID, &p.CategoryID, &p.Name, &p.Description, &p.Image, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem merges quantity into an existing line. The merged quantity may not exceed stock.
func (r *postgresRepo) AddItem(ctx context.Context, cartID, productID int64, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var existing int
	err = tx.QueryRow(ctx, `
SELECT quantity FROM cart_items WHERE cart_id = $1 AND product_id = $2 FOR UPDATE
`, cartID, productID).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err := checkStock(ctx, tx, productID, existing+quantity); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO cart_items (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
`, cartID, productID, quantity); err != nil {
		return errors.Wrap(err, "upsert cart item")
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) UpdateItem(ctx context.Context, cartID, productID int64, quantity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := checkStock(ctx, tx, productID, quantity); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND product_id = $2
`, cartID, productID, quantity)
	if err != nil {
		return errors.Wrap(err, "update cart item")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, productID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return errors.Wrap(err, "remove cart item")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, cartID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return errors.Wrapf(err, "clear cart %d", cartID)
	}
	return nil
}

func checkStock(ctx context.Context, tx pgx.Tx, productID int64, want int) error {
	var (
		name  string
		stock int
	)
	err := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id = $1`, productID).Scan(&name, &stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if want > stock {
		return &domain.InsufficientStockError{ProductID: productID, Name: name}
	}
	return nil
}
