package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidSession = errors.New("invalid session")

// cartLookup is the cart slot store; a stored cart is proof an id was issued.
type cartLookup interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Service issues the storefront session ids that key carts.
//
// The table lives in memory while carts live in the slot store. An unknown id is
// adopted only when a cart is stored under it, which covers restarts without
// letting clients register ids of their own choosing. Sessions that never saved
// a cart must be reissued after a restart. Ids that expired or were revoked stay
// rejected until swept; a revoked id has its cart purged, so it is not adopted
// again afterwards.
type Service struct {
	ttl   time.Duration
	now   func() time.Time
	carts cartLookup

	mu       sync.RWMutex
	sessions map[string]entry
}

type entry struct {
	expiresAt time.Time
	revoked   bool
}

// New returns a Service. A nil carts disables adoption of unknown ids.
func New(ttl time.Duration, carts cartLookup) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{
		ttl:      ttl,
		now:      time.Now,
		carts:    carts,
		sessions: make(map[string]entry),
	}
}

// Issue creates a new session id.
func (s *Service) Issue(_ context.Context) (string, time.Time, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", time.Time{}, err
	}
	key := id.String()
	expires := s.now().Add(s.ttl)
	s.mu.Lock()
	s.sessions[key] = entry{expiresAt: expires}
	s.mu.Unlock()
	return key, expires, nil
}

// Validate checks id and extends its lifetime.
func (s *Service) Validate(ctx context.Context, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.Version() != 4 {
		return "", ErrInvalidSession
	}
	key := parsed.String()

	s.mu.Lock()
	e, ok := s.sessions[key]
	if ok {
		defer s.mu.Unlock()
		now := s.now()
		if e.revoked || now.After(e.expiresAt) {
			return "", ErrInvalidSession
		}
		s.sessions[key] = entry{expiresAt: now.Add(s.ttl)}
		return key, nil
	}
	s.mu.Unlock()

	if !s.hasCart(ctx, key) {
		return "", ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// revoked while the slot was read
	if e, ok := s.sessions[key]; ok && (e.revoked || s.now().After(e.expiresAt)) {
		return "", ErrInvalidSession
	}
	s.sessions[key] = entry{expiresAt: s.now().Add(s.ttl)}
	return key, nil
}

func (s *Service) hasCart(ctx context.Context, key string) bool {
	if s.carts == nil {
		return false
	}
	_, err := s.carts.Get(ctx, key)
	return err == nil
}

// Revoke rejects id from now on.
func (s *Service) Revoke(_ context.Context, id string) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.sessions[parsed.String()] = entry{expiresAt: s.now().Add(s.ttl), revoked: true}
	s.mu.Unlock()
}

// Sweep forgets sessions whose lifetime has passed and returns how many were dropped.
func (s *Service) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, k)
			n++
		}
	}
	return n
}

func (s *Service) TTLSeconds() int {
	return int(s.ttl.Seconds())
}
