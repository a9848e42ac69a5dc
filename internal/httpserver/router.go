package httpserver

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	"storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type productService interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
}

type categoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Detail(ctx context.Context, slug string) (*categorysvc.Detail, error)
}

type cartService interface {
	View(ctx context.Context, session string) cartsvc.View
	Add(ctx context.Context, session string, productID int64, quantity int) (cartsvc.View, error)
	Update(ctx context.Context, session string, productID int64, quantity int) (cartsvc.View, error)
	Remove(ctx context.Context, session string, productID int64) cartsvc.View
	Clear(ctx context.Context, session string) cartsvc.View
	Contains(ctx context.Context, session string, productID int64) bool
	Purge(ctx context.Context, session string) error
}

type checkoutService interface {
	Summary(ctx context.Context, session string) checkout.Summary
	Submit(ctx context.Context, session, customerID string, d checkout.Details) (*domain.Order, error)
}

type orderService interface {
	History(ctx context.Context, customerID string, status domain.OrderStatus) ([]domain.Order, error)
	Get(ctx context.Context, customerID, id string) (*domain.Order, error)
	Cancel(ctx context.Context, customerID, id string) (*domain.Order, error)
}

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*customersvc.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*customersvc.Session, error)
	LookupByToken(ctx context.Context, token string) (*domain.Customer, error)
	Logout(ctx context.Context, token string) error
}

type sessionService interface {
	Issue(ctx context.Context) (string, time.Time, error)
	Validate(ctx context.Context, id string) (string, error)
	Revoke(ctx context.Context, id string)
}

// Deps bundles the services the router serves.
type Deps struct {
	ProductSvc  productService
	CategorySvc categoryService
	CartSvc     cartService
	CheckoutSvc checkoutService
	OrderSvc    orderService
	CustomerSvc customerService
	SessionSvc  sessionService
	CORSOrigins []string
	// ReadyChecks are run by /readyz next to the database ping.
	ReadyChecks map[string]ReadyCheck
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("product service required")
	case d.CategorySvc == nil:
		return errors.New("category service required")
	case d.CartSvc == nil:
		return errors.New("cart service required")
	case d.CheckoutSvc == nil:
		return errors.New("checkout service required")
	case d.OrderSvc == nil:
		return errors.New("order service required")
	case d.CustomerSvc == nil:
		return errors.New("customer service required")
	case d.SessionSvc == nil:
		return errors.New("session service required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())
	if mw := corsMiddleware(deps.CORSOrigins); mw != nil {
		router.Use(mw)
	}

	h := &handlers{logger: logger, deps: deps}

	router.GET("/healthz", healthHandler)
	checks := map[string]ReadyCheck{"db": pingDB(db)}
	for name, check := range deps.ReadyChecks {
		checks[name] = check
	}
	router.GET("/readyz", readyHandler(checks))

	router.POST("/sessions", h.createSession)
	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/categories", h.listCategories)
	router.GET("/categories/:slug", h.getCategory)

	router.POST("/auth/signup", h.signup)
	router.POST("/auth/login", h.login)
	router.POST("/auth/refresh", h.refresh)

	withSession := router.Group("/", sessionMiddleware(deps.SessionSvc))
	withSession.DELETE("/sessions", h.endSession)
	withSession.GET("/cart", h.getCart)
	withSession.DELETE("/cart", h.clearCart)
	withSession.POST("/cart/items", h.addCartItem)
	withSession.GET("/cart/items/:productId", h.cartContains)
	withSession.PUT("/cart/items/:productId", h.updateCartItem)
	withSession.DELETE("/cart/items/:productId", h.removeCartItem)
	withSession.GET("/checkout/summary", h.checkoutSummary)

	withCustomer := router.Group("/", customerMiddleware(deps.CustomerSvc))
	withCustomer.GET("/me", h.me)
	withCustomer.GET("/orders", h.listOrders)
	withCustomer.GET("/orders/:id", h.getOrder)
	withCustomer.POST("/orders/:id/cancel", h.cancelOrder)

	withBoth := router.Group("/", customerMiddleware(deps.CustomerSvc), sessionMiddleware(deps.SessionSvc))
	withBoth.POST("/checkout", h.submitCheckout)
	withBoth.POST("/auth/logout", h.logout)

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", SessionHeader},
		ExposeHeaders:    []string{SessionHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}

type handlers struct {
	logger *zap.Logger
	deps   Deps
}
