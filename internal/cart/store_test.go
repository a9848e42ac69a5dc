package cart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
)

type memSlot struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	putErr error
	puts   int
}

func newMemSlot() *memSlot {
	return &memSlot{data: make(map[string][]byte)}
}

func (m *memSlot) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return v, nil
}

func (m *memSlot) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *memSlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memSlot) raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return string(v), ok
}

func product(id int64, price int64, stock int) ProductSnapshot {
	return ProductSnapshot{ID: id, Name: "Product", Price: price, Quantity: stock, Status: StatusActive}
}

func checkInvariants(t *testing.T, s *Store) {
	t.Helper()
	seen := map[int64]bool{}
	items := 0
	var price int64
	for _, l := range s.Lines() {
		if l.Quantity <= 0 || l.Quantity > l.Product.Quantity {
			t.Fatalf("line %d quantity %d outside 1..%d", l.ID, l.Quantity, l.Product.Quantity)
		}
		if seen[l.ID] {
			t.Fatalf("duplicate line for product %d", l.ID)
		}
		seen[l.ID] = true
		items += l.Quantity
		price += l.UnitPrice * int64(l.Quantity)
	}
	if s.TotalItems() != items {
		t.Fatalf("TotalItems=%d, sum=%d", s.TotalItems(), items)
	}
	if s.TotalPrice() != price {
		t.Fatalf("TotalPrice=%d, sum=%d", s.TotalPrice(), price)
	}
}

func TestAddCreatesLine(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", newMemSlot(), nil)

	if err := s.Add(ctx, product(1, 100000, 5), 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	lines := s.Lines()
	if len(lines) != 1 || lines[0].Quantity != 3 || lines[0].UnitPrice != 100000 {
		t.Fatalf("unexpected lines %+v", lines)
	}
	if s.TotalPrice() != 300000 {
		t.Fatalf("expected total 300000, got %d", s.TotalPrice())
	}
}

func TestAddMergesExistingLine(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	p := product(1, 100000, 10)

	if err := s.Add(ctx, p, 3); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := s.Add(ctx, p, 3); err != nil {
		t.Fatalf("second add: %v", err)
	}
	lines := s.Lines()
	if len(lines) != 1 || lines[0].Quantity != 6 {
		t.Fatalf("expected one merged line of 6, got %+v", lines)
	}
	if s.TotalPrice() != 600000 {
		t.Fatalf("expected total 600000, got %d", s.TotalPrice())
	}
	checkInvariants(t, s)
}

func TestAddMergeBeyondStockRejectsWholeAdd(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	p := product(1, 100000, 5)

	if err := s.Add(ctx, p, 3); err != nil {
		t.Fatalf("first add: %v", err)
	}
	err := s.Add(ctx, p, 3)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if insufficient.Max != 5 {
		t.Fatalf("expected max 5, got %d", insufficient.Max)
	}
	if got := s.Lines()[0].Quantity; got != 3 {
		t.Fatalf("line should stay at 3, got %d", got)
	}

	if err := s.Add(ctx, p, 10); !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if got := s.Lines()[0].Quantity; got != 3 {
		t.Fatalf("line should stay at 3, got %d", got)
	}
}

func TestAddNewLineBeyondStock(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := Open(ctx, "sess", slot, nil)

	err := s.Add(ctx, product(2, 50000, 5), 7)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.Max != 5 {
		t.Fatalf("expected InsufficientStockError{Max:5}, got %v", err)
	}
	if s.Contains(2) {
		t.Fatalf("no line should be created")
	}
	if slot.puts != 0 {
		t.Fatalf("rejected add must not write the slot")
	}
}

func TestAddOutOfStock(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)

	err := s.Add(ctx, product(3, 1000, 0), 1)
	var oos *OutOfStockError
	if !errors.As(err, &oos) || oos.ProductID != 3 {
		t.Fatalf("expected OutOfStockError, got %v", err)
	}
	if s.TotalItems() != 0 {
		t.Fatalf("cart should stay empty")
	}
}

func TestAddInvalidQuantity(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	if err := s.Add(ctx, product(1, 1000, 5), 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddKeepsCapturedPriceAndLowerStock(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)

	if err := s.Add(ctx, product(1, 100, 10), 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	repriced := product(1, 200, 3)
	err := s.Add(ctx, repriced, 2)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.Max != 3 {
		t.Fatalf("expected ceiling from fresher snapshot, got %v", err)
	}
	if err := s.Add(ctx, repriced, 1); err != nil {
		t.Fatalf("add within ceiling: %v", err)
	}
	l := s.Lines()[0]
	if l.UnitPrice != 100 || l.Quantity != 3 {
		t.Fatalf("unit price must stay captured, got %+v", l)
	}
}

func TestSnapshotIsCopied(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	p := product(1, 100, 5)
	p.Images = []string{"a.jpg"}

	if err := s.Add(ctx, p, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	p.Images[0] = "changed.jpg"
	lines := s.Lines()
	if lines[0].Product.Images[0] != "a.jpg" {
		t.Fatalf("snapshot shares memory with caller")
	}
	lines[0].Product.Images[0] = "changed.jpg"
	if s.Lines()[0].Product.Images[0] != "a.jpg" {
		t.Fatalf("Lines leaks internal state")
	}
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	if err := s.Add(ctx, product(1, 100, 5), 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.UpdateQuantity(ctx, 1, 4); err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.TotalItems() != 4 {
		t.Fatalf("expected 4 items, got %d", s.TotalItems())
	}

	err := s.UpdateQuantity(ctx, 1, 6)
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.Max != 5 {
		t.Fatalf("expected InsufficientStockError{Max:5}, got %v", err)
	}
	if s.TotalItems() != 4 {
		t.Fatalf("quantity must stay unchanged, got %d", s.TotalItems())
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	if err := s.Add(ctx, product(1, 100, 5), 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.UpdateQuantity(ctx, 1, 0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if s.Contains(1) {
		t.Fatalf("line should be removed")
	}
	if err := s.UpdateQuantity(ctx, 1, -1); err != nil {
		t.Fatalf("removing a missing line through update should succeed, got %v", err)
	}
}

func TestUpdateQuantityMissingLine(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	if err := s.UpdateQuantity(ctx, 42, 1); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := Open(ctx, "sess", slot, nil)
	if err := s.Add(ctx, product(1, 100, 5), 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, product(2, 300, 5), 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	s.Remove(ctx, 1)
	once, _ := slot.raw("sess")
	onceLines := s.Lines()
	s.Remove(ctx, 1)
	twice, _ := slot.raw("sess")

	if once != twice {
		t.Fatalf("slot changed on second remove: %s vs %s", once, twice)
	}
	if len(onceLines) != 1 || len(s.Lines()) != 1 || s.Lines()[0].ID != 2 {
		t.Fatalf("unexpected lines after remove %+v", s.Lines())
	}
}

func TestClearOverwritesSlot(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := Open(ctx, "sess", slot, nil)
	if err := s.Add(ctx, product(1, 100, 5), 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	s.Clear(ctx)
	if s.TotalItems() != 0 || s.TotalPrice() != 0 {
		t.Fatalf("expected empty totals, got %d/%d", s.TotalItems(), s.TotalPrice())
	}
	raw, ok := slot.raw("sess")
	if !ok || raw != "[]" {
		t.Fatalf("expected slot [] got %q (present=%v)", raw, ok)
	}
}

func TestLinesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	for _, id := range []int64{5, 2, 9} {
		if err := s.Add(ctx, product(id, 10, 3), 1); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	if err := s.Add(ctx, product(2, 10, 3), 1); err != nil {
		t.Fatalf("merge: %v", err)
	}
	lines := s.Lines()
	if lines[0].ID != 5 || lines[1].ID != 2 || lines[2].ID != 9 {
		t.Fatalf("unexpected order %+v", lines)
	}
}

func TestReopenRestoresLines(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := Open(ctx, "sess", slot, nil)
	if err := s.Add(ctx, product(1, 100000, 5), 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, product(7, 2500, 9), 4); err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened := Open(ctx, "sess", slot, nil)
	if reopened.LoadErr() != nil {
		t.Fatalf("unexpected load error %v", reopened.LoadErr())
	}
	want := s.Lines()
	got := reopened.Lines()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Quantity != want[i].Quantity || got[i].UnitPrice != want[i].UnitPrice {
			t.Fatalf("line %d mismatch: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestOpenMalformedSlotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	slot.data["sess"] = []byte(`[{"id":1,`)

	s := Open(ctx, "sess", slot, nil)
	var loadErr *LoadError
	if !errors.As(s.LoadErr(), &loadErr) {
		t.Fatalf("expected LoadError, got %v", s.LoadErr())
	}
	if s.TotalItems() != 0 {
		t.Fatalf("expected empty cart")
	}
	if err := s.Add(ctx, product(1, 10, 2), 1); err != nil {
		t.Fatalf("store must stay usable: %v", err)
	}
}

func TestOpenSlotReadFailure(t *testing.T) {
	slot := newMemSlot()
	slot.getErr = errors.New("connection refused")
	s := Open(context.Background(), "sess", slot, nil)
	if !errors.Is(s.LoadErr(), slot.getErr) {
		t.Fatalf("expected wrapped read error, got %v", s.LoadErr())
	}
}

func TestSlotWriteFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	slot.putErr = errors.New("disk full")
	s := Open(ctx, "sess", slot, nil)

	if err := s.Add(ctx, product(1, 10, 2), 2); err != nil {
		t.Fatalf("add should succeed despite slot failure: %v", err)
	}
	if s.TotalItems() != 2 {
		t.Fatalf("memory must stay authoritative")
	}
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, "sess", nil, nil)
	var events []Event
	cancel := s.Subscribe(func(ev Event) { events = append(events, ev) })

	if err := s.Add(ctx, product(1, 100, 5), 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	_ = s.Add(ctx, product(1, 100, 5), 10)
	s.Remove(ctx, 1)
	cancel()
	s.Clear(ctx)

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if events[0].Kind != EventAdded || events[0].TotalItems != 2 || events[0].TotalPrice != 200 {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Kind != EventRemoved || events[1].ProductID != 1 || events[1].TotalItems != 0 {
		t.Fatalf("unexpected second event %+v", events[1])
	}
}

func TestInvariantsHoldUnderRandomOperations(t *testing.T) {
	ctx := context.Background()
	slot := newMemSlot()
	s := Open(ctx, "sess", slot, nil)
	rng := rand.New(rand.NewSource(7))
	stock := map[int64]int{1: 0, 2: 1, 3: 4, 4: 10, 5: 25}

	for i := 0; i < 2000; i++ {
		id := int64(rng.Intn(5) + 1)
		switch rng.Intn(5) {
		case 0, 1:
			_ = s.Add(ctx, product(id, int64(id)*1000, stock[id]), rng.Intn(6)+1)
		case 2:
			_ = s.UpdateQuantity(ctx, id, rng.Intn(12)-2)
		case 3:
			s.Remove(ctx, id)
		case 4:
			if rng.Intn(20) == 0 {
				s.Clear(ctx)
			}
		}
		checkInvariants(t, s)
	}

	reopened := Open(ctx, "sess", slot, nil)
	if reopened.TotalItems() != s.TotalItems() || reopened.TotalPrice() != s.TotalPrice() {
		t.Fatalf("slot diverged from memory")
	}
}
