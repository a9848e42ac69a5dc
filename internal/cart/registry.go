package cart

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Registry hands out one shared Store per session key, opening it from the slot
// on first use. Slot reads happen outside the registry lock; concurrent first loads
// of the same key share one read.
type Registry struct {
	slot   Slot
	logger *zap.Logger
	now    func() time.Time
	loads  singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	// purges counts Purge calls so a load that raced a purge is discarded.
	purges uint64
}

type entry struct {
	store    *Store
	lastUsed time.Time
}

func NewRegistry(slot Slot, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		slot:    slot,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Get returns the store for key. Callers of the same key share the same *Store.
func (r *Registry) Get(ctx context.Context, key string) *Store {
	for {
		r.mu.Lock()
		if s, ok := r.lookupLocked(key); ok {
			r.mu.Unlock()
			return s
		}
		gen := r.purges
		r.mu.Unlock()

		v, _, _ := r.loads.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
			return r.open(ctx, key), nil
		})
		opened := v.(*Store)

		r.mu.Lock()
		if s, ok := r.lookupLocked(key); ok {
			r.mu.Unlock()
			return s
		}
		if r.purges != gen {
			r.mu.Unlock()
			continue
		}
		r.entries[key] = &entry{store: opened, lastUsed: r.now()}
		r.mu.Unlock()
		return opened
	}
}

func (r *Registry) lookupLocked(key string) (*Store, bool) {
	e, ok := r.entries[key]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.store, true
}

func (r *Registry) open(ctx context.Context, key string) *Store {
	s := Open(ctx, key, r.slot, r.logger)
	s.Subscribe(func(ev Event) {
		r.logger.Debug("cart changed",
			zap.String("session", key),
			zap.String("kind", string(ev.Kind)),
			zap.Int64("product_id", ev.ProductID),
			zap.Int("total_items", ev.TotalItems),
			zap.Int64("total_price", ev.TotalPrice),
		)
	})
	return s
}

// Purge forgets the session's cart and erases its slot. Holders of the old *Store
// see it emptied and closed, so nothing they do afterwards reaches the slot.
func (r *Registry) Purge(ctx context.Context, key string) error {
	r.mu.Lock()
	e, ok := r.entries[key]
	delete(r.entries, key)
	r.purges++
	r.mu.Unlock()

	if ok {
		e.store.close()
	}
	if r.slot == nil {
		return nil
	}
	if err := r.slot.Delete(ctx, key); err != nil {
		r.logger.Warn("cart slot purge failed", zap.String("cart", key), zap.Error(err))
		return err
	}
	r.logger.Info("cart purged", zap.String("cart", key))
	return nil
}

// Sweep drops in-memory stores idle for longer than maxIdle. Their slots are kept
// and reloaded on the next Get. It returns the number of stores dropped.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, e := range r.entries {
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of stores held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				r.logger.Debug("cart registry swept", zap.Int("dropped", n))
			}
		}
	}
}
