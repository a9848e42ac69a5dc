package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cartstore "storefront/internal/cart"
	"storefront/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned when an order is submitted from an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidDetails wraps missing or malformed shipping details.
	ErrInvalidDetails = errors.New("invalid checkout details")
)

// PrecheckFailure is one line whose quantity exceeds the stock captured with it.
type PrecheckFailure struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Max       int    `json:"max"`
}

// PrecheckError is returned before anything is sent to the order store.
type PrecheckError struct {
	Failures []PrecheckFailure
}

func (e *PrecheckError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = fmt.Sprintf("%d (%d > %d)", f.ProductID, f.Requested, f.Max)
	}
	return "quantity exceeds captured stock for products " + strings.Join(names, ", ")
}

type carts interface {
	Get(ctx context.Context, key string) *cartstore.Store
}

type orderStore interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
}

// Details is what the shopper fills in on the checkout form.
type Details struct {
	FullName      string               `json:"fullName"`
	Email         string               `json:"email"`
	Phone         string               `json:"phone"`
	AddressLine   string               `json:"addressLine"`
	Ward          string               `json:"ward"`
	City          string               `json:"city"`
	Note          string               `json:"note"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

type Service struct {
	carts  carts
	orders orderStore
	logger *zap.Logger
}

func New(carts carts, orders orderStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{carts: carts, orders: orders, logger: logger.Named("checkout")}
}

// Summary prices the session's cart including shipping.
func (s *Service) Summary(ctx context.Context, session string) Summary {
	return Summarize(s.carts.Get(ctx, session).Lines())
}

// Submit turns the session's cart into an order for customerID. The cart is only
// cleared once the order store has accepted the order.
func (s *Service) Submit(ctx context.Context, session, customerID string, d Details) (*domain.Order, error) {
	store := s.carts.Get(ctx, session)
	lines := store.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	d = d.normalized()
	if err := d.validate(); err != nil {
		return nil, err
	}
	if err := precheck(lines); err != nil {
		return nil, err
	}

	sum := Summarize(lines)
	order := domain.Order{
		CustomerID:    customerID,
		Status:        domain.OrderPending,
		PaymentMethod: d.PaymentMethod,
		Shipping: domain.ShippingDetails{
			FullName:    d.FullName,
			Email:       d.Email,
			Phone:       d.Phone,
			AddressLine: d.AddressLine,
			Ward:        d.Ward,
			City:        d.City,
			Note:        d.Note,
		},
		Subtotal:    sum.Subtotal,
		ShippingFee: sum.ShippingFee,
		Total:       sum.Total,
		Items:       make([]domain.OrderItem, 0, len(lines)),
	}
	for _, l := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: l.ID,
			Name:      l.Product.Name,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
		})
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		var rejected *domain.StockRejectedError
		if errors.As(err, &rejected) {
			s.logger.Info("order rejected on stock",
				zap.String("session", session),
				zap.Int64("product_id", rejected.ProductID),
				zap.Int("available", rejected.Available),
			)
		} else {
			s.logger.Error("order submission failed", zap.String("session", session), zap.Error(err))
		}
		return nil, err
	}

	store.Clear(ctx)
	s.logger.Info("order placed",
		zap.String("order_id", created.ID),
		zap.String("customer_id", customerID),
		zap.Int64("total", created.Total),
	)
	return created, nil
}

func precheck(lines []cartstore.Line) error {
	var failures []PrecheckFailure
	for _, l := range lines {
		if l.Quantity > l.Product.Quantity {
			failures = append(failures, PrecheckFailure{
				ProductID: l.ID,
				Name:      l.Product.Name,
				Requested: l.Quantity,
				Max:       l.Product.Quantity,
			})
		}
	}
	if len(failures) > 0 {
		return &PrecheckError{Failures: failures}
	}
	return nil
}

func (d Details) normalized() Details {
	d.FullName = strings.TrimSpace(d.FullName)
	d.Email = strings.TrimSpace(strings.ToLower(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.AddressLine = strings.TrimSpace(d.AddressLine)
	d.Ward = strings.TrimSpace(d.Ward)
	d.City = strings.TrimSpace(d.City)
	d.Note = strings.TrimSpace(d.Note)
	d.PaymentMethod = domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(d.PaymentMethod))))
	if d.PaymentMethod == "" {
		d.PaymentMethod = domain.PaymentCOD
	}
	return d
}

func (d Details) validate() error {
	var missing []string
	if d.FullName == "" {
		missing = append(missing, "fullName")
	}
	if d.Phone == "" {
		missing = append(missing, "phone")
	}
	if d.AddressLine == "" {
		missing = append(missing, "addressLine")
	}
	if d.City == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidDetails, strings.Join(missing, ", "))
	}
	if !d.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unsupported payment method %q", ErrInvalidDetails, d.PaymentMethod)
	}
	return nil
}
