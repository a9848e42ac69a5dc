package cart

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// Slot is the durable key-value mirror of a cart. Implementations return ErrSlotEmpty
// from Get when nothing is stored under key.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventRemoved EventKind = "removed"
	EventCleared EventKind = "cleared"
	EventPurged  EventKind = "purged"
)

// Event is delivered to subscribers after a mutation has been applied.
type Event struct {
	Kind       EventKind
	ProductID  int64
	TotalItems int
	TotalPrice int64
}

// Store is the authoritative cart of one session. Lines keep insertion order and
// there is at most one line per product id.
//
// Every quantity change is checked against the stock captured in the line's
// snapshot; live stock is only checked when the order is submitted. The slot is
// rewritten after each mutation while the store lock is held, so the slot never
// observes writes out of order from one process. Two processes serving the same
// session are last-writer-wins.
type Store struct {
	key    string
	slot   Slot
	logger *zap.Logger

	mu      sync.Mutex
	lines   []Line
	loadErr error
	closed  bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Open restores the cart stored under key. A missing or unreadable slot yields an
// empty cart; the read failure is logged and exposed through LoadErr.
// A nil slot keeps the cart in memory only.
func Open(ctx context.Context, key string, slot Slot, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		key:    key,
		slot:   slot,
		logger: logger.With(zap.String("cart", key)),
		subs:   make(map[int]func(Event)),
	}
	if slot == nil {
		return s
	}

	data, err := slot.Get(ctx, key)
	switch {
	case errors.Is(err, ErrSlotEmpty):
		return s
	case err != nil:
		s.loadErr = &LoadError{Key: key, Err: err}
	default:
		lines, decErr := DecodeLines(data)
		if decErr != nil {
			s.loadErr = &LoadError{Key: key, Err: decErr}
		} else {
			s.lines = lines
		}
	}
	if s.loadErr != nil {
		s.logger.Warn("cart slot unreadable, starting empty", zap.Error(s.loadErr))
	}
	return s
}

// Key returns the slot key the store mirrors to.
func (s *Store) Key() string {
	return s.key
}

// LoadErr returns the failure recorded while opening the store, if any.
func (s *Store) LoadErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Add puts quantity units of product into the cart, merging with an existing line.
// The whole add is rejected when the resulting quantity would exceed stock.
func (s *Store) Add(ctx context.Context, product ProductSnapshot, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if product.Quantity <= 0 {
		return &OutOfStockError{ProductID: product.ID}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrCartClosed
	}
	idx := s.indexOf(product.ID)
	kind := EventAdded
	if idx < 0 {
		if quantity > product.Quantity {
			s.mu.Unlock()
			return &InsufficientStockError{ProductID: product.ID, Requested: quantity, Max: product.Quantity}
		}
		s.lines = append(s.lines, Line{
			ID:        product.ID,
			Product:   product.clone(),
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
	} else {
		existing := s.lines[idx]
		ceiling := existing.Product.Quantity
		if product.Quantity < ceiling {
			ceiling = product.Quantity
		}
		next := existing.Quantity + quantity
		if next > ceiling {
			s.mu.Unlock()
			return &InsufficientStockError{ProductID: product.ID, Requested: next, Max: ceiling}
		}
		s.lines[idx].Quantity = next
		kind = EventUpdated
	}
	ev := s.commitLocked(ctx, kind, product.ID)
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or less
// removes the line. A missing line yields ErrLineNotFound.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		if s.Closed() {
			return ErrCartClosed
		}
		s.Remove(ctx, productID)
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrCartClosed
	}
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrLineNotFound
	}
	if ceiling := s.lines[idx].Product.Quantity; quantity > ceiling {
		s.mu.Unlock()
		return &InsufficientStockError{ProductID: productID, Requested: quantity, Max: ceiling}
	}
	s.lines[idx].Quantity = quantity
	ev := s.commitLocked(ctx, EventUpdated, productID)
	s.mu.Unlock()

	s.notify(ev)
	return nil
}

// Remove deletes the line for productID. Removing an absent line, or removing from
// a closed store, is a no-op.
func (s *Store) Remove(ctx context.Context, productID int64) {
	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 || s.closed {
		s.mu.Unlock()
		return
	}
	s.lines = append(s.lines[:idx:idx], s.lines[idx+1:]...)
	ev := s.commitLocked(ctx, EventRemoved, productID)
	s.mu.Unlock()

	s.notify(ev)
}

// Clear removes every line and overwrites the slot with an empty list.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.lines = nil
	ev := s.commitLocked(ctx, EventCleared, 0)
	s.mu.Unlock()

	s.notify(ev)
}

// close empties the in-memory cart and stops it from writing to the slot again.
// Callers still holding the store get ErrCartClosed from later mutations.
func (s *Store) close() {
	s.mu.Lock()
	s.lines = nil
	s.closed = true
	ev := Event{Kind: EventPurged}
	s.mu.Unlock()

	s.notify(ev)
}

// Closed reports whether the store's session was purged.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Contains reports whether the cart has a line for productID.
func (s *Store) Contains(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(productID) >= 0
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	for i, l := range s.lines {
		out[i] = l.clone()
	}
	return out
}

// TotalItems is the sum of line quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalItems(s.lines)
}

// TotalPrice is the sum of UnitPrice * Quantity over all lines.
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totalPrice(s.lines)
}

// Subscribe registers fn for mutation events. The returned func unregisters it.
// fn runs on the goroutine that performed the mutation, after the store lock is released.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// commitLocked mirrors the current lines to the slot and builds the event. Slot
// failures are logged only: memory stays the source of truth for the session.
func (s *Store) commitLocked(ctx context.Context, kind EventKind, productID int64) Event {
	if s.slot != nil && !s.closed {
		data, err := EncodeLines(s.lines)
		if err == nil {
			err = s.slot.Put(ctx, s.key, data)
		}
		if err != nil {
			s.logger.Warn("cart slot write failed", zap.String("event", string(kind)), zap.Error(err))
		}
	}
	return Event{
		Kind:       kind,
		ProductID:  productID,
		TotalItems: totalItems(s.lines),
		TotalPrice: totalPrice(s.lines),
	}
}

func (s *Store) indexOf(productID int64) int {
	for i := range s.lines {
		if s.lines[i].ID == productID {
			return i
		}
	}
	return -1
}

func totalItems(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func totalPrice(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}
