package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"emporia/internal/domain"
	"emporia/internal/logging"
	cartrepo "emporia/internal/repository/cart"
)

type Service struct {
	repo        cartRepo
	productRepo productRepo
	lg          *zap.Logger
}

type cartRepo interface {
	GetOrCreate(ctx context.Context, customerID int64) (*domain.Cart, error)
	Get(ctx context.Context, cartID, customerID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID int64, quantity int) error
	UpdateItem(ctx context.Context, cartID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID int64) error
	Clear(ctx context.Context, cartID int64) error
}

type productRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

var _ cartRepo = (cartrepo.Repository)(nil)

func New(repo cartRepo, productRepo productRepo, lg *zap.Logger) *Service {
	return &Service{repo: repo, productRepo: productRepo, lg: logging.OrNop(lg)}
}

// View is the JSON shape of a cart.
type View struct {
	CartID     int64           `json:"cart_id"`
	CustomerID int64           `json:"customer_id"`
	Items      []ItemView      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type ItemView struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func NewView(c *domain.Cart) View {
	items := make([]ItemView, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, ItemView{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal(),
		})
	}
	return View{
		CartID:     c.ID,
		CustomerID: c.CustomerID,
		Items:      items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

func (s *Service) GetOrCreate(ctx context.Context, customerID int64) (*domain.Cart, error) {
	if customerID == 0 {
		return nil, domain.Invalid("invalid customer")
	}
	return s.repo.GetOrCreate(ctx, customerID)
}

// Get loads the customer's cart. A zero cartID means the customer's
// current cart, created on first use.
func (s *Service) Get(ctx context.Context, cartID, customerID int64) (*domain.Cart, error) {
	if cartID == 0 {
		return s.GetOrCreate(ctx, customerID)
	}
	return s.repo.Get(ctx, cartID, customerID)
}

// AddItem adds quantity of the product, merging with an existing line.
func (s *Service) AddItem(ctx context.Context, cartID, productID int64, quantity int, customerID int64) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.Invalid("quantity must be positive")
	}
	cart, err := s.Get(ctx, cartID, customerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.product(ctx, productID); err != nil {
		return nil, err
	}
	// The repository caps the merged quantity at current stock.
	if err := s.repo.AddItem(ctx, cart.ID, productID, quantity); err != nil {
		return nil, err
	}
	s.lg.Debug("cart item added",
		zap.Int64("cart_id", cart.ID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
	)
	return s.repo.Get(ctx, cart.ID, customerID)
}

// UpdateItem sets the line quantity. A quantity of zero or less removes the line.
func (s *Service) UpdateItem(ctx context.Context, cartID, productID int64, quantity int, customerID int64) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, cartID, productID, customerID)
	}
	cart, err := s.Get(ctx, cartID, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItem(ctx, cart.ID, productID, quantity); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("product with ID %d is not in the cart", productID)
		}
		return nil, err
	}
	return s.repo.Get(ctx, cart.ID, customerID)
}

func (s *Service) RemoveItem(ctx context.Context, cartID, productID int64, customerID int64) (*domain.Cart, error) {
	cart, err := s.Get(ctx, cartID, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("product with ID %d is not in the cart", productID)
		}
		return nil, err
	}
	return s.repo.Get(ctx, cart.ID, customerID)
}

// Clear empties the cart. A zero customerID skips the ownership check.
func (s *Service) Clear(ctx context.Context, cartID, customerID int64) error {
	if customerID != 0 {
		cart, err := s.Get(ctx, cartID, customerID)
		if err != nil {
			return err
		}
		cartID = cart.ID
	}
	return s.repo.Clear(ctx, cartID)
}

func (s *Service) product(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("product with ID %d not found", id)
		}
		return nil, err
	}
	return p, nil
}

