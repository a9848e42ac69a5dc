package cart

import (
	"context"

	cartstore "storefront/internal/cart"
	"go.uber.org/zap"
)

type snapshotter interface {
	Snapshot(ctx context.Context, id int64) (cartstore.ProductSnapshot, error)
}

// Service resolves product snapshots from the catalog and applies cart operations
// to the session's store.
type Service struct {
	registry *cartstore.Registry
	catalog  snapshotter
	logger   *zap.Logger
}

func New(registry *cartstore.Registry, catalog snapshotter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registry: registry, catalog: catalog, logger: logger.Named("cart")}
}

// View is the cart as rendered to the shopper.
type View struct {
	Lines      []cartstore.Line `json:"lines"`
	TotalItems int              `json:"totalItems"`
	TotalPrice int64            `json:"totalPrice"`
}

func (s *Service) View(ctx context.Context, session string) View {
	return viewOf(s.registry.Get(ctx, session))
}

// Add snapshots the product and adds quantity units of it to the session's cart.
func (s *Service) Add(ctx context.Context, session string, productID int64, quantity int) (View, error) {
	if quantity <= 0 {
		return View{}, cartstore.ErrInvalidQuantity
	}
	snap, err := s.catalog.Snapshot(ctx, productID)
	if err != nil {
		return View{}, err
	}
	store := s.registry.Get(ctx, session)
	if err := store.Add(ctx, snap, quantity); err != nil {
		s.logger.Debug("add rejected",
			zap.String("session", session),
			zap.Int64("product_id", productID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		return View{}, err
	}
	return viewOf(store), nil
}

// Update sets the line's quantity. Zero or less removes the line.
func (s *Service) Update(ctx context.Context, session string, productID int64, quantity int) (View, error) {
	store := s.registry.Get(ctx, session)
	if err := store.UpdateQuantity(ctx, productID, quantity); err != nil {
		return View{}, err
	}
	return viewOf(store), nil
}

func (s *Service) Remove(ctx context.Context, session string, productID int64) View {
	store := s.registry.Get(ctx, session)
	store.Remove(ctx, productID)
	return viewOf(store)
}

func (s *Service) Clear(ctx context.Context, session string) View {
	store := s.registry.Get(ctx, session)
	store.Clear(ctx)
	return viewOf(store)
}

func (s *Service) Contains(ctx context.Context, session string, productID int64) bool {
	return s.registry.Get(ctx, session).Contains(productID)
}

// Lines returns a copy of the session's lines for checkout.
func (s *Service) Lines(ctx context.Context, session string) []cartstore.Line {
	return s.registry.Get(ctx, session).Lines()
}

// Purge erases the session's cart and its slot.
func (s *Service) Purge(ctx context.Context, session string) error {
	return s.registry.Purge(ctx, session)
}

func viewOf(store *cartstore.Store) View {
	lines := store.Lines()
	v := View{Lines: lines}
	if v.Lines == nil {
		v.Lines = []cartstore.Line{}
	}
	for _, l := range lines {
		v.TotalItems += l.Quantity
		v.TotalPrice += l.Subtotal()
	}
	return v
}
