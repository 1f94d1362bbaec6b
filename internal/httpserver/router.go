package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"emporia/internal/domain"
	"emporia/internal/metrics"
	cartsvc "emporia/internal/service/cart"
	categorysvc "emporia/internal/service/category"
	ordersvc "emporia/internal/service/order"
	productsvc "emporia/internal/service/product"
	usersvc "emporia/internal/service/user"
)

type userService interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	AccessTTLSeconds() int
}

type productService interface {
	Create(ctx context.Context, seller *domain.User, in productsvc.CreateInput) (*domain.Product, error)
	List(ctx context.Context, limit, offset int) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	ByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error)
	BySeller(ctx context.Context, sellerID int64) ([]domain.Product, error)
	Update(ctx context.Context, actor *domain.User, id int64, in productsvc.UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, actor *domain.User, id int64) error
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id int64) (*domain.Category, error)
	Create(ctx context.Context, actor *domain.User, in categorysvc.Input) (*domain.Category, error)
	Update(ctx context.Context, actor *domain.User, id int64, in categorysvc.Input) (*domain.Category, error)
	Delete(ctx context.Context, actor *domain.User, id int64) error
}

type cartService interface {
	Get(ctx context.Context, cartID, customerID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID int64, quantity int, customerID int64) (*domain.Cart, error)
	UpdateItem(ctx context.Context, cartID, productID int64, quantity int, customerID int64) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, productID int64, customerID int64) (*domain.Cart, error)
	Clear(ctx context.Context, cartID, customerID int64) error
}

var (
	_ userService     = (*usersvc.Service)(nil)
	_ productService  = (*productsvc.Service)(nil)
	_ categoryService = (*categorysvc.Service)(nil)
	_ cartService     = (*cartsvc.Service)(nil)
)

// Deps are the services and middleware settings the router needs.
// Metrics and TracerProvider are optional.
type Deps struct {
	Users      userService
	Products   productService
	Categories categoryService
	Carts      cartService
	Orders     ordersvc.Orders

	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider
	ServiceName    string
	CORSOrigins    []string
}

func (d Deps) validate() error {
	switch {
	case d.Users == nil:
		return errors.New("users service required")
	case d.Products == nil:
		return errors.New("products service required")
	case d.Categories == nil:
		return errors.New("categories service required")
	case d.Carts == nil:
		return errors.New("carts service required")
	case d.Orders == nil:
		return errors.New("orders service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(lg *zap.Logger, db Pinger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestID(lg), accessLog(), recovery(), cors.New(corsConfig(deps.CORSOrigins)))
	if deps.TracerProvider != nil {
		name := deps.ServiceName
		if name == "" {
			name = "emporia-api"
		}
		router.Use(otelgin.Middleware(name, otelgin.WithTracerProvider(deps.TracerProvider)))
	}
	if deps.Metrics != nil {
		router.Use(requestMetrics(deps.Metrics))
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	authenticated := authMiddleware(deps.Users)
	h := &handlers{deps: deps}

	authGroup := router.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", authenticated, h.logout)
	authGroup.GET("/me", authenticated, h.me)

	products := router.Group("/products")
	products.GET("", h.listProducts)
	products.GET("/:id", h.getProduct)
	products.GET("/category/:id", h.productsByCategory)
	products.GET("/seller/:id", h.productsBySeller)
	products.POST("", authenticated, requireRole(domain.RoleSeller), h.createProduct)
	products.PUT("/:id", authenticated, requireRole(domain.RoleSeller, domain.RoleAdmin), h.updateProduct)
	products.DELETE("/:id", authenticated, requireRole(domain.RoleSeller, domain.RoleAdmin), h.deleteProduct)

	categories := router.Group("/categories")
	categories.GET("", h.listCategories)
	categories.GET("/:id", h.getCategory)
	categories.POST("", authenticated, requireRole(domain.RoleAdmin), h.createCategory)
	categories.PUT("/:id", authenticated, requireRole(domain.RoleAdmin), h.updateCategory)
	categories.DELETE("/:id", authenticated, requireRole(domain.RoleAdmin), h.deleteCategory)

	cart := router.Group("/cart", authenticated, requireRole(domain.RoleCustomer))
	cart.GET("", h.getCart)
	cart.POST("/items", h.addCartItem)
	cart.PUT("/items/:product_id", h.updateCartItem)
	cart.DELETE("/items/:product_id", h.removeCartItem)
	cart.DELETE("", h.clearCart)

	orders := router.Group("/orders", authenticated)
	orders.POST("", requireRole(domain.RoleCustomer), h.placeOrder)
	orders.GET("", requireRole(domain.RoleCustomer), h.listOrders)
	orders.GET("/:id", h.getOrder)
	orders.POST("/:id/cancel", h.cancelOrder)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

type handlers struct {
	deps Deps
}
