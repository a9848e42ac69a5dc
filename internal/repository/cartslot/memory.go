package cartslot

import (
	"context"
	"sync"

	"storefront/internal/cart"
)

// MemorySlot keeps slots in process memory. Contents are lost on restart.
type MemorySlot struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemory() *MemorySlot {
	return &MemorySlot{slots: make(map[string][]byte)}
}

func (m *MemorySlot) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[key]
	if !ok {
		return nil, cart.ErrSlotEmpty
	}
	return append([]byte(nil), data...), nil
}

func (m *MemorySlot) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	m.slots[key] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.slots, key)
	m.mu.Unlock()
	return nil
}
