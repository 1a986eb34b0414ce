package session

import (
	"sync"
	"sync/atomic"

	"github.com/luciancaetano/scnet/internal/protocol"
)

type slotState int32

const (
	slotPending slotState = iota
	slotResolved
	slotAbandoned
)

// slot is a one-shot result cell with a single producer (the read loop) and a
// single consumer (the sender).
type slot struct {
	id    uint64
	done  chan struct{}
	once  sync.Once
	state atomic.Int32
	resp  *protocol.Response

	// onResolve runs on the read loop before the response is handed to the sender,
	// so nothing read after the response can overtake it.
	onResolve func(*protocol.Response)
}

func newSlot(id uint64) *slot {
	return &slot{id: id, done: make(chan struct{})}
}

// complete moves the slot out of pending. Only the first call has an effect.
func (s *slot) complete(state slotState, resp *protocol.Response) bool {
	completed := false
	s.once.Do(func() {
		s.resp = resp
		s.state.Store(int32(state))
		close(s.done)
		completed = true
	})
	return completed
}

func (s *slot) Done() <-chan struct{} {
	return s.done
}

func (s *slot) State() slotState {
	return slotState(s.state.Load())
}

// Result returns the response once resolved; it may be called any number of times.
func (s *slot) Result() (*protocol.Response, slotState) {
	state := s.State()
	if state != slotResolved {
		return nil, state
	}
	return s.resp, state
}

// pendingTable maps in-flight request identifiers to their slots.
type pendingTable struct {
	mu    sync.Mutex
	slots map[uint64]*slot
}

func newPendingTable() *pendingTable {
	return &pendingTable{slots: make(map[uint64]*slot)}
}

func (t *pendingTable) register(id uint64) *slot {
	return t.registerHook(id, nil)
}

// registerHook is register with a callback run by resolve before the slot completes.
func (t *pendingTable) registerHook(id uint64, onResolve func(*protocol.Response)) *slot {
	s := newSlot(id)
	s.onResolve = onResolve
	t.mu.Lock()
	t.slots[id] = s
	t.mu.Unlock()
	return s
}

// resolve pops the slot for id and resolves it. Unknown or finished ids are a no-op.
func (t *pendingTable) resolve(id uint64, resp *protocol.Response) bool {
	t.mu.Lock()
	s, ok := t.slots[id]
	if ok {
		delete(t.slots, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	if s.onResolve != nil {
		s.onResolve(resp)
	}
	return s.complete(slotResolved, resp)
}

// abandon removes the slot for id. It returns false when the slot was already resolved.
func (t *pendingTable) abandon(id uint64) bool {
	t.mu.Lock()
	s, ok := t.slots[id]
	if ok {
		delete(t.slots, id)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	return s.complete(slotAbandoned, nil)
}

func (t *pendingTable) abandonAll() int {
	t.mu.Lock()
	slots := t.slots
	t.slots = make(map[uint64]*slot)
	t.mu.Unlock()

	for _, s := range slots {
		s.complete(slotAbandoned, nil)
	}
	return len(slots)
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
