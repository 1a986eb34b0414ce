package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/luciancaetano/scnet"
)

type fakeRequest struct {
	ID      uint64            `json:"id"`
	Type    scnet.RequestType `json:"type"`
	Payload json.RawMessage   `json:"payload"`
}

type fakeConn struct {
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	writes   []fakeRequest
	writeErr error
	onWrite  func(c *fakeConn, req fakeRequest)
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 1024),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.closed:
		return nil, scnet.ErrConnectionClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) WriteMessage(ctx context.Context, data []byte) error {
	select {
	case <-c.closed:
		return scnet.ErrConnectionClosed
	default:
	}

	c.mu.Lock()
	if c.writeErr != nil {
		err := c.writeErr
		c.mu.Unlock()
		return err
	}
	var req fakeRequest
	json.Unmarshal(data, &req)
	c.writes = append(c.writes, req)
	onWrite := c.onWrite
	c.mu.Unlock()

	if onWrite != nil {
		onWrite(c, req)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) requests() []fakeRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]fakeRequest, len(c.writes))
	copy(out, c.writes)
	return out
}

func (c *fakeConn) push(v any) {
	data, _ := json.Marshal(v)
	c.inbound <- data
}

func (c *fakeConn) reply(id uint64, status bool, payload any) {
	c.push(map[string]any{"id": id, "status": status, "event": false, "payload": payload})
}

func (c *fakeConn) event(id uint64, addrs ...uint64) {
	c.push(map[string]any{"id": id, "status": true, "event": true, "payload": addrs})
}

// echo answers every request with its own payload.
func echo(c *fakeConn, req fakeRequest) {
	c.reply(req.ID, true, req.Payload)
}

type fakeTransport struct {
	mu        sync.Mutex
	dials     int
	urls      []string
	dialErr   error
	dialDelay time.Duration
	conns     []*fakeConn
	setup     func(c *fakeConn)
}

func (t *fakeTransport) Dial(ctx context.Context, url string) (scnet.Conn, error) {
	t.mu.Lock()
	t.dials++
	t.urls = append(t.urls, url)
	err, delay, setup := t.dialErr, t.dialDelay, t.setup
	t.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	c := newFakeConn()
	if setup != nil {
		setup(c)
	}
	t.mu.Lock()
	t.conns = append(t.conns, c)
	t.mu.Unlock()
	return c, nil
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *fakeTransport) lastConn() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

type recordingErrorHandler struct {
	mu        sync.Mutex
	errs      []error
	propagate bool
}

func (h *recordingErrorHandler) HandleError(ctx context.Context, err error) error {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
	if h.propagate {
		return err
	}
	return nil
}

func (h *recordingErrorHandler) errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]error, len(h.errs))
	copy(out, h.errs)
	return out
}

func testConfig(transport scnet.Transport) *Config {
	logger := zerolog.Nop()
	cfg := DefaultConfig()
	cfg.Transport = transport
	cfg.Logger = &logger
	cfg.ResponseTimeout = 2 * time.Second
	cfg.EstablishTimeout = time.Second
	cfg.ReconnectRetryDelay = 0
	cfg.RateLimit = NoRateLimit()
	return cfg
}

func newTestSession(t *testing.T, cfg *Config) *Session {
	t.Helper()

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func connectTest(t *testing.T, s *Session) {
	t.Helper()

	if err := s.Connect(context.Background(), "ws://fake/ws_json"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !s.IsConnected() {
		t.Fatal("IsConnected() = false after Connect")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
