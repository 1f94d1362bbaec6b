// Package seed fills an empty database with demo accounts, categories and
// products for manual testing.
package seed

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"emporia/internal/domain"
	"emporia/internal/logging"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "emporia-demo"

type userSeed struct {
	Email    string
	UserName string
	Role     domain.Role
}

type productSeed struct {
	Name        string
	Description string
	Category    string
	Price       string
	Stock       int
}

var (
	users = []userSeed{
		{Email: "admin@emporia.test", UserName: "admin", Role: domain.RoleAdmin},
		{Email: "seller@emporia.test", UserName: "demo-seller", Role: domain.RoleSeller},
		{Email: "customer@emporia.test", UserName: "demo-customer", Role: domain.RoleCustomer},
	}

	categories = map[string]string{
		"Apparel": "Shirts and other clothing",
		"Kitchen": "Mugs, pans and utensils",
	}

	products = []productSeed{
		{Name: "Demo T-Shirt", Description: "Soft cotton tee", Category: "Apparel", Price: "19.99", Stock: 25},
		{Name: "Demo Mug", Description: "Ceramic mug with logo", Category: "Kitchen", Price: "12.99", Stock: 40},
		{Name: "Cast Iron Pan", Description: "Pre-seasoned, 26cm", Category: "Kitchen", Price: "44.50", Stock: 5},
	}
)

// Apply inserts the demo data. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, lg *zap.Logger) error {
	lg = logging.OrNop(lg)

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}

	var sellerID int64
	for _, u := range users {
		id, err := ensureUser(ctx, pool, u, string(hash))
		if err != nil {
			return errors.Wrapf(err, "ensure user %s", u.UserName)
		}
		if u.Role == domain.RoleSeller {
			sellerID = id
		}
		lg.Debug("user seeded", zap.String("user_name", u.UserName), zap.Int64("user_id", id))
	}

	categoryIDs := make(map[string]int64, len(categories))
	for name, desc := range categories {
		id, err := ensureCategory(ctx, pool, name, desc)
		if err != nil {
			return errors.Wrapf(err, "ensure category %s", name)
		}
		categoryIDs[name] = id
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, sellerID, categoryIDs[p.Category], p); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Name)
		}
	}

	lg.Info("seed applied",
		zap.Int("users", len(users)),
		zap.Int("categories", len(categories)),
		zap.Int("products", len(products)),
	)
	return nil
}

func ensureUser(ctx context.Context, pool *pgxpool.Pool, u userSeed, hash string) (int64, error) {
	const q = `
INSERT INTO users (email, user_name, password_hash, role)
VALUES ($1, $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role
RETURNING id
`
	var id int64
	if err := pool.QueryRow(ctx, q, u.Email, u.UserName, hash, string(u.Role)).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func ensureCategory(ctx context.Context, pool *pgxpool.Pool, name, desc string) (int64, error) {
	const q = `
INSERT INTO categories (name, description)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
RETURNING id
`
	var id int64
	if err := pool.QueryRow(ctx, q, name, desc).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, sellerID, categoryID int64, p productSeed) error {
	const q = `
INSERT INTO products (seller_id, category_id, name, description, price, stock)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (seller_id, name) DO UPDATE
SET category_id = EXCLUDED.category_id,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock
`
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return errors.Wrap(err, "parse price")
	}
	_, err = pool.Exec(ctx, q, sellerID, categoryID, p.Name, p.Description, price, p.Stock)
	return err
}
