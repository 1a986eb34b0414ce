package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/luciancaetano/scnet/sc"
)

// Registry maps server-assigned subscription identifiers to their handlers.
//
// Each subscription owns a dispatcher goroutine so events for one identifier run
// in arrival order while different identifiers run concurrently. Dispatch never
// blocks the caller.
type Registry struct {
	ctx    context.Context
	logger zerolog.Logger

	mu      sync.RWMutex
	entries map[uint64]*subscriber
	closed  bool
}

type subscriber struct {
	sub    sc.EventSubscription
	mu     sync.Mutex
	queue  [][3]sc.Addr
	signal chan struct{}
	stop   chan struct{}
}

func newRegistry(ctx context.Context, logger zerolog.Logger) *Registry {
	return &Registry{
		ctx:     ctx,
		logger:  logger,
		entries: make(map[uint64]*subscriber),
	}
}

// Register stores sub under sub.ID, replacing any previous entry for the identifier.
// Events already queued for a replaced entry are dropped.
func (r *Registry) Register(sub sc.EventSubscription) {
	s := &subscriber{
		sub:    sub,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	prev := r.entries[sub.ID]
	r.entries[sub.ID] = s
	r.mu.Unlock()

	if prev != nil {
		close(prev.stop)
		r.logger.Debug().Uint64("subscription_id", sub.ID).Msg("subscription replaced")
	}
	go s.run(r.ctx, r.logger)
}

// Lookup returns the subscription registered under id.
func (r *Registry) Lookup(id uint64) (*sc.EventSubscription, bool) {
	r.mu.RLock()
	s, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sub := s.sub
	return &sub, true
}

// Unregister removes id. Removing an unknown identifier is a no-op.
func (r *Registry) Unregister(id uint64) bool {
	r.mu.Lock()
	s, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if ok {
		close(s.stop)
	}
	return ok
}

// Dispatch queues an event for the subscription id. It reports whether one was registered.
func (r *Registry) Dispatch(id uint64, addrs [3]sc.Addr) bool {
	r.mu.RLock()
	s, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	s.mu.Lock()
	s.queue = append(s.queue, addrs)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Close stops every dispatcher and rejects later registrations.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[uint64]*subscriber)
	r.closed = true
	r.mu.Unlock()

	for _, s := range entries {
		close(s.stop)
	}
}

func (s *subscriber) run(ctx context.Context, logger zerolog.Logger) {
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-s.signal:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			addrs := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case <-s.stop:
				return
			default:
			}
			s.invoke(ctx, logger, addrs)
		}
	}
}

func (s *subscriber) invoke(ctx context.Context, logger zerolog.Logger, addrs [3]sc.Addr) {
	if s.sub.Handler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Uint64("subscription_id", s.sub.ID).
				Interface("panic", r).
				Msg("event handler panicked")
		}
	}()
	s.sub.Handler.HandleEvent(ctx, addrs[0], addrs[1], addrs[2])
}
