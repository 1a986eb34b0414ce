// Package sctest provides an in-process sc-server emulator for tests.
package sctest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/luciancaetano/scnet"
)

// Request is an envelope received by the emulator.
type Request struct {
	ID      uint64            `json:"id"`
	Type    scnet.RequestType `json:"type"`
	Payload json.RawMessage   `json:"payload"`
}

// HandlerFunc answers a request. Returning ok=false with a nil payload sends a failed response.
type HandlerFunc func(req Request) (status bool, payload any)

type envelope struct {
	ID      uint64 `json:"id"`
	Status  bool   `json:"status"`
	Event   bool   `json:"event"`
	Payload any    `json:"payload"`
}

type peer struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peer) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// Server emulates the sc-server JSON endpoint. Handlers run in their own goroutines,
// so responses may be written out of request order.
type Server struct {
	http     *httptest.Server
	upgrader websocket.Upgrader
	handlers sync.Map // map[scnet.RequestType]HandlerFunc
	peers    sync.Map // map[string]*peer

	mu       sync.Mutex
	requests []Request

	connects atomic.Int32
	silent   atomic.Bool
}

// NewServer starts an emulator on a loopback port.
func NewServer() *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws_json", s.handleWebSocket)
	s.http = httptest.NewServer(mux)
	return s
}

// URL returns the ws:// url of the emulator endpoint.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.http.URL, "http") + "/ws_json"
}

// Handle registers the handler for a request type.
func (s *Server) Handle(requestType scnet.RequestType, handler HandlerFunc) {
	s.handlers.Store(requestType, handler)
}

// SetSilent makes the emulator swallow requests without answering.
func (s *Server) SetSilent(silent bool) {
	s.silent.Store(silent)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Connects returns the number of accepted connections.
func (s *Server) Connects() int {
	return int(s.connects.Load())
}

// Peers returns the number of currently connected clients.
func (s *Server) Peers() int {
	n := 0
	s.peers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Emit sends an event envelope for subscription id to every connected client.
func (s *Server) Emit(id uint64, addrs ...uint64) error {
	var firstErr error
	s.peers.Range(func(_, value any) bool {
		if err := value.(*peer).write(envelope{ID: id, Status: true, Event: true, Payload: addrs}); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// Reply writes a raw response envelope to every connected client.
func (s *Server) Reply(id uint64, status bool, payload any) error {
	var firstErr error
	s.peers.Range(func(_, value any) bool {
		if err := value.(*peer).write(envelope{ID: id, Status: status, Payload: payload}); err != nil && firstErr == nil {
			firstErr = err
		}
		return true
	})
	return firstErr
}

// DropConnections closes every client connection without a close handshake.
func (s *Server) DropConnections() {
	s.peers.Range(func(key, value any) bool {
		value.(*peer).conn.Close()
		s.peers.Delete(key)
		return true
	})
}

// Close drops all clients and stops the listener.
func (s *Server) Close() {
	s.DropConnections()
	s.http.Close()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "Failed to upgrade connection", http.StatusBadRequest)
		return
	}

	p := &peer{id: uuid.New().String(), conn: conn}
	s.peers.Store(p.id, p)
	s.connects.Add(1)

	go s.handlePeer(p)
}

func (s *Server) handlePeer(p *peer) {
	defer func() {
		s.peers.Delete(p.id)
		p.conn.Close()
	}()

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			p.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseProtocolError, scnet.ErrInvalidMessageFormat.Error()),
				time.Now().Add(time.Second))
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		if s.silent.Load() {
			continue
		}
		go s.dispatch(p, req)
	}
}

func (s *Server) dispatch(p *peer, req Request) {
	handler, ok := s.handlers.Load(req.Type)
	if !ok {
		p.write(envelope{ID: req.ID, Status: false, Payload: fmt.Sprintf("unknown request type %d", req.Type)})
		return
	}
	status, payload := handler.(HandlerFunc)(req)
	p.write(envelope{ID: req.ID, Status: status, Payload: payload})
}
