// Package session holds per-session ordering state: the cart and the order the
// customer is currently tracking.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/cart"
	"github.com/clementgustavo1301-blip/tavares-pizzaria/internal/order"
)

type Session struct {
	ID   string
	Cart *cart.Cart

	mu      sync.RWMutex
	current *order.Order

	// lastSeen is unix nanoseconds of the last registry lookup.
	lastSeen atomic.Int64
}

func New(id string) *Session {
	return &Session{ID: id, Cart: cart.New()}
}

func (s *Session) CurrentOrder() (order.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return order.Order{}, false
	}
	return *s.current, true
}

func (s *Session) SetCurrentOrder(o order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &o
}

// followsOpenOrder reports whether the session tracks an order that has not
// been delivered yet.
func (s *Session) followsOpenOrder() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.Status != order.StatusDelivered
}

// patchCurrent replaces the current order if it has the same id.
func (s *Session) patchCurrent(o order.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ID != o.ID {
		return false
	}
	s.current = &o
	return true
}

// Options tunes session expiry.
type Options struct {
	// IdleTTL is how long an untouched session is kept. A session following
	// an undelivered order is kept up to MaxIdle instead.
	IdleTTL time.Duration
	MaxIdle time.Duration
	Now     func() time.Time
}

// Registry owns every live session. A session is never shared across ids.
type Registry struct {
	idleTTL time.Duration
	maxIdle time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(opts Options) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 2 * time.Hour
	}
	if opts.MaxIdle < opts.IdleTTL {
		opts.MaxIdle = 12 * opts.IdleTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		idleTTL:  opts.IdleTTL,
		maxIdle:  opts.MaxIdle,
		now:      opts.Now,
		sessions: map[string]*Session{},
	}
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.lastSeen.Store(r.now().UnixNano())
	}
	return s, ok
}

func (r *Registry) GetOrCreate(id string) *Session {
	if s, ok := r.Get(id); ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := New(id)
	s.lastSeen.Store(r.now().UnixNano())
	r.sessions[id] = s
	return s
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep drops sessions untouched for IdleTTL, keeping those that follow an
// undelivered order until MaxIdle. It returns how many were dropped.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		idle := now.Sub(time.Unix(0, s.lastSeen.Load()))
		if idle <= r.idleTTL {
			continue
		}
		if idle <= r.maxIdle && s.followsOpenOrder() {
			continue
		}
		delete(r.sessions, id)
		n++
	}
	return n
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

// UpdateCurrentOrder patches the tracked order of every session following o.
// It returns how many sessions were patched.
func (r *Registry) UpdateCurrentOrder(o order.Order) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		if s.patchCurrent(o) {
			n++
		}
	}
	return n
}
