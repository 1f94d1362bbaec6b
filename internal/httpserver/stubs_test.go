package httpserver

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"emporia/internal/domain"
	categorysvc "emporia/internal/service/category"
	ordersvc "emporia/internal/service/order"
	productsvc "emporia/internal/service/product"
	usersvc "emporia/internal/service/user"
)

var (
	customerUser = &domain.User{ID: 10, UserName: "cus", Email: "cus@example.com", Role: domain.RoleCustomer}
	sellerUser   = &domain.User{ID: 20, UserName: "sel", Email: "sel@example.com", Role: domain.RoleSeller}
	adminUser    = &domain.User{ID: 30, UserName: "adm", Email: "adm@example.com", Role: domain.RoleAdmin}
)

// stubUsers maps bearer tokens to users.
type stubUsers struct {
	tokens    map[string]*domain.User
	loginErr  error
	regErr    error
	lastReg   usersvc.RegisterInput
	loggedOut string
}

func (s *stubUsers) Register(_ context.Context, in usersvc.RegisterInput) (*domain.User, error) {
	s.lastReg = in
	if s.regErr != nil {
		return nil, s.regErr
	}
	return &domain.User{ID: 99, Email: in.Email, UserName: in.UserName, Role: in.Role}, nil
}

func (s *stubUsers) Login(_ context.Context, email, _ string) (*domain.User, string, error) {
	if s.loginErr != nil {
		return nil, "", s.loginErr
	}
	return &domain.User{ID: 1, Email: email}, "tok", nil
}

func (s *stubUsers) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if u, ok := s.tokens[token]; ok {
		return u, nil
	}
	return nil, usersvc.ErrInvalidToken
}

func (s *stubUsers) Logout(_ context.Context, token string) error {
	s.loggedOut = token
	return nil
}

func (s *stubUsers) AccessTTLSeconds() int { return 3600 }

type stubProducts struct {
	product *domain.Product
	err     error
	limit   int
	offset  int
}

func (s *stubProducts) Create(_ context.Context, _ *domain.User, _ productsvc.CreateInput) (*domain.Product, error) {
	return s.product, s.err
}

func (s *stubProducts) List(_ context.Context, limit, offset int) ([]domain.Product, error) {
	s.limit, s.offset = limit, offset
	return []domain.Product{}, s.err
}

func (s *stubProducts) Get(context.Context, int64) (*domain.Product, error) { return s.product, s.err }

func (s *stubProducts) ByCategory(context.Context, int64) ([]domain.Product, error) {
	return []domain.Product{}, s.err
}

func (s *stubProducts) BySeller(context.Context, int64) ([]domain.Product, error) {
	return []domain.Product{}, s.err
}

func (s *stubProducts) Update(_ context.Context, _ *domain.User, _ int64, _ productsvc.UpdateInput) (*domain.Product, error) {
	return s.product, s.err
}

func (s *stubProducts) Delete(context.Context, *domain.User, int64) error { return s.err }

type stubCategories struct {
	err error
}

func (s *stubCategories) List(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Name: "Books"}}, s.err
}

func (s *stubCategories) Get(_ context.Context, id int64) (*domain.Category, error) {
	return &domain.Category{ID: id, Name: "Books"}, s.err
}

func (s *stubCategories) Create(_ context.Context, _ *domain.User, in categorysvc.Input) (*domain.Category, error) {
	return &domain.Category{ID: 1, Name: in.Name}, s.err
}

func (s *stubCategories) Update(_ context.Context, _ *domain.User, id int64, in categorysvc.Input) (*domain.Category, error) {
	return &domain.Category{ID: id, Name: in.Name}, s.err
}

func (s *stubCategories) Delete(context.Context, *domain.User, int64) error { return s.err }

type stubCarts struct {
	cart     *domain.Cart
	err      error
	clearErr error
	cleared  []int64
	lastQty  int
}

func (s *stubCarts) Get(_ context.Context, _, customerID int64) (*domain.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	c := *s.cart
	c.CustomerID = customerID
	return &c, nil
}

func (s *stubCarts) AddItem(_ context.Context, _, _ int64, quantity int, _ int64) (*domain.Cart, error) {
	s.lastQty = quantity
	return s.cart, s.err
}

func (s *stubCarts) UpdateItem(_ context.Context, _, _ int64, quantity int, _ int64) (*domain.Cart, error) {
	s.lastQty = quantity
	return s.cart, s.err
}

func (s *stubCarts) RemoveItem(context.Context, int64, int64, int64) (*domain.Cart, error) {
	return s.cart, s.err
}

func (s *stubCarts) Clear(_ context.Context, cartID, _ int64) error {
	s.cleared = append(s.cleared, cartID)
	return s.clearErr
}

type stubOrders struct {
	place        ordersvc.PlaceResult
	cancel       ordersvc.Result
	order        *ordersvc.OrderSummary
	list         []ordersvc.OrderSummary
	err          error
	lastCustomer int64
	lastMethod   string
}

func (s *stubOrders) PlaceOrder(_ context.Context, _ *domain.Cart, customerID int64, method string) ordersvc.PlaceResult {
	s.lastCustomer, s.lastMethod = customerID, method
	return s.place
}

func (s *stubOrders) CancelOrder(_ context.Context, _, customerID int64) ordersvc.Result {
	s.lastCustomer = customerID
	return s.cancel
}

func (s *stubOrders) GetCustomerOrders(_ context.Context, customerID int64) ([]ordersvc.OrderSummary, error) {
	s.lastCustomer = customerID
	return s.list, s.err
}

func (s *stubOrders) GetOrder(_ context.Context, _, customerID int64) (*ordersvc.OrderSummary, error) {
	s.lastCustomer = customerID
	return s.order, s.err
}

type testEnv struct {
	router     *gin.Engine
	users      *stubUsers
	products   *stubProducts
	categories *stubCategories
	carts      *stubCarts
	orders     *stubOrders
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := &testEnv{
		users: &stubUsers{tokens: map[string]*domain.User{
			"customer": customerUser,
			"seller":   sellerUser,
			"admin":    adminUser,
		}},
		products:   &stubProducts{},
		categories: &stubCategories{},
		carts:      &stubCarts{cart: &domain.Cart{ID: 5}},
		orders:     &stubOrders{},
	}
	router, err := buildRouter(zap.NewNop(), nil, Deps{
		Users:      env.users,
		Products:   env.products,
		Categories: env.categories,
		Carts:      env.carts,
		Orders:     env.orders,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	env.router = router
	return env
}

func (e *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
