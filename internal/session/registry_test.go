package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/luciancaetano/scnet/sc"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	r := newRegistry(context.Background(), zerolog.Nop())
	t.Cleanup(r.Close)
	return r
}

type eventLog struct {
	mu     sync.Mutex
	events [][3]sc.Addr
}

func (l *eventLog) HandleEvent(ctx context.Context, subscribed, connector, other sc.Addr) {
	l.mu.Lock()
	l.events = append(l.events, [3]sc.Addr{subscribed, connector, other})
	l.mu.Unlock()
}

func (l *eventLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	r.Register(sc.EventSubscription{ID: 5, Type: sc.EventBeforeEraseElement})

	sub, ok := r.Lookup(5)
	if !ok || sub.ID != 5 || sub.Type != sc.EventBeforeEraseElement {
		t.Fatalf("Lookup(5) = %v, %v", sub, ok)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	if !r.Unregister(5) {
		t.Error("Unregister(5) = false")
	}
	if r.Unregister(5) {
		t.Error("second Unregister(5) = true")
	}
	if _, ok := r.Lookup(5); ok {
		t.Error("Lookup(5) found an unregistered subscription")
	}
}

func TestRegistryDispatchUnknown(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	if r.Dispatch(1, [3]sc.Addr{1, 2, 3}) {
		t.Error("Dispatch() to unknown id = true")
	}
}

func TestRegistryDispatchOrder(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	log := &eventLog{}
	r.Register(sc.EventSubscription{ID: 1, Handler: log})

	const n = 500
	for i := 0; i < n; i++ {
		if !r.Dispatch(1, [3]sc.Addr{sc.Addr(i), 0, 0}) {
			t.Fatal("Dispatch() = false")
		}
	}

	waitFor(t, "dispatch", func() bool { return log.len() == n })

	log.mu.Lock()
	defer log.mu.Unlock()
	for i, ev := range log.events {
		if ev[0] != sc.Addr(i) {
			t.Fatalf("event %d subscribed = %v", i, ev[0])
		}
	}
}

func TestRegistryReplace(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	old, replacement := &eventLog{}, &eventLog{}
	r.Register(sc.EventSubscription{ID: 1, Handler: old})
	r.Register(sc.EventSubscription{ID: 1, Handler: replacement})

	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	r.Dispatch(1, [3]sc.Addr{1, 2, 3})

	waitFor(t, "replacement handler", func() bool { return replacement.len() == 1 })
	if old.len() != 0 {
		t.Error("replaced handler received an event")
	}
}

func TestRegistryHandlerPanicIsRecovered(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	log := &eventLog{}
	calls := 0
	r.Register(sc.EventSubscription{ID: 1, Handler: sc.EventHandlerFunc(func(ctx context.Context, subscribed, connector, other sc.Addr) {
		calls++
		if calls == 1 {
			panic("boom")
		}
		log.HandleEvent(ctx, subscribed, connector, other)
	})})

	r.Dispatch(1, [3]sc.Addr{1, 1, 1})
	r.Dispatch(1, [3]sc.Addr{2, 2, 2})

	waitFor(t, "second event", func() bool { return log.len() == 1 })
}

func TestRegistryClose(t *testing.T) {
	t.Parallel()

	r := newRegistry(context.Background(), zerolog.Nop())
	log := &eventLog{}
	r.Register(sc.EventSubscription{ID: 1, Handler: log})
	r.Close()

	if r.Len() != 0 {
		t.Errorf("Len() = %d after Close", r.Len())
	}
	if r.Dispatch(1, [3]sc.Addr{1, 2, 3}) {
		t.Error("Dispatch() after Close = true")
	}

	r.Register(sc.EventSubscription{ID: 2, Handler: log})
	if _, ok := r.Lookup(2); ok {
		t.Error("Register() after Close stored a subscription")
	}

	time.Sleep(20 * time.Millisecond)
	if log.len() != 0 {
		t.Error("handler ran after Close")
	}
}
