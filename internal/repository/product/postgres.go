package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"emporia/internal/domain"
	"emporia/internal/logging"
)

const productColumns = `id, seller_id, category_id, name, description, image, price, stock, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
	lg   *zap.Logger
}

var _ Repository = (*postgresRepo)(nil)

func NewPostgres(pool *pgxpool.Pool, lg *zap.Logger) Repository {
	return &postgresRepo{pool: pool, lg: logging.OrNop(lg).Named("product_repo")}
}

func (r *postgresRepo) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (seller_id, category_id, name, description, image, price, stock)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q, p.SellerID, p.CategoryID, p.Name, p.Description, p.Image, p.Price, p.Stock))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.lg.Error("create", zap.String("name", p.Name), zap.Error(err))
		return nil, errors.Wrap(err, "insert product")
	}
	r.lg.Debug("created", zap.Int64("product_id", out.ID))
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.lg.Error("get", zap.Int64("product_id", id), zap.Error(err))
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return p, nil
}

func (r *postgresRepo) List(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products ORDER BY id LIMIT $1 OFFSET $2`
	return r.list(ctx, "list", q, limit, offset)
}

func (r *postgresRepo) ListByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE category_id = $1 ORDER BY id`
	return r.list(ctx, "list by category", q, categoryID)
}

func (r *postgresRepo) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE seller_id = $1 ORDER BY id`
	return r.list(ctx, "list by seller", q, sellerID)
}

func (r *postgresRepo) list(ctx context.Context, op, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.lg.Error(op, zap.Error(err))
		return nil, errors.Wrap(err, op)
	}
	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Product, error) {
		p, err := scanProduct(row)
		if err != nil {
			return domain.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		r.lg.Error(op+" rows", zap.Error(err))
		return nil, errors.Wrap(err, op)
	}
	r.lg.Debug(op, zap.Int("count", len(result)))
	return result, nil
}

// Update persists every mutable field, stock included.
func (r *postgresRepo) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
UPDATE products
SET category_id = $2, name = $3, description = $4, image = $5, price = $6, stock = $7
WHERE id = $1
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.CategoryID, p.Name, p.Description, p.Image, p.Price, p.Stock))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.lg.Error("update", zap.Int64("product_id", p.ID), zap.Error(err))
		return nil, errors.Wrapf(err, "update product %d", p.ID)
	}
	r.lg.Debug("updated", zap.Int64("product_id", out.ID), zap.Int("stock", out.Stock))
	return out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.Invalid("product %d is referenced by existing orders", id)
		}
		r.lg.Error("delete", zap.Int64("product_id", id), zap.Error(err))
		return errors.Wrapf(err, "delete product %d", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Upsert inserts a product or updates the seller's product with the same name.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (seller_id, category_id, name, description, image, price, stock)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (seller_id, name) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    description = EXCLUDED.description,
    image = EXCLUDED.image,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock
RETURNING ` + productColumns
	out, err := scanProduct(r.pool.QueryRow(ctx, q, p.SellerID, p.CategoryID, p.Name, p.Description, p.Image, p.Price, p.Stock))
	if err != nil {
		r.lg.Error("upsert", zap.String("name", p.Name), zap.Int64("seller_id", p.SellerID), zap.Error(err))
		return nil, errors.Wrapf(err, "upsert product %q", p.Name)
	}
	r.lg.Debug("upserted", zap.Int64("product_id", out.ID), zap.String("name", out.Name))
	return out, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.SellerID, &p.CategoryID, &p.Name, &p.Description, &p.Image, &p.Price, &p.Stock, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
