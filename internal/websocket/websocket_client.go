package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luciancaetano/scnet"
)

const (
	sendBufferSize = 256
)

// DialerConfig tunes the WebSocket channel.
type DialerConfig struct {
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration
	// ReadTimeout bounds the silence between inbound frames (pongs included). 0 disables it.
	ReadTimeout time.Duration
	// PingInterval is the keepalive period. 0 disables pings.
	PingInterval time.Duration
	Header       http.Header
	Logger       *zerolog.Logger
}

// DefaultDialerConfig returns the default channel settings.
// Pings every 54s keep the 60s read deadline from expiring on an idle connection.
func DefaultDialerConfig() *DialerConfig {
	return &DialerConfig{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     54 * time.Second,
	}
}

// Dialer implements scnet.Transport over gorilla/websocket.
type Dialer struct {
	cfg    DialerConfig
	dialer *websocket.Dialer
	logger zerolog.Logger
}

// NewDialer creates a Dialer. A nil cfg uses DefaultDialerConfig().
func NewDialer(cfg *DialerConfig) *Dialer {
	if cfg == nil {
		cfg = DefaultDialerConfig()
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Dialer{
		cfg:    *cfg,
		logger: logger.With().Str("component", "transport").Logger(),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
}

// Dial opens a WebSocket connection to url.
func (d *Dialer) Dial(ctx context.Context, url string) (scnet.Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, url, d.cfg.Header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := newConn(conn, d.cfg, d.logger)
	c.logger.Debug().Str("url", url).Msg("websocket connected")
	return c, nil
}

type outbound struct {
	data  []byte
	errCh chan error
}

// Conn implements scnet.Conn. All frame writes go through a single write pump.
type Conn struct {
	id     string
	conn   *websocket.Conn
	cfg    DialerConfig
	logger zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	sendCh chan outbound
	mu     sync.RWMutex
	closed bool
}

func newConn(conn *websocket.Conn, cfg DialerConfig, logger zerolog.Logger) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()

	c := &Conn{
		id:     id,
		conn:   conn,
		cfg:    cfg,
		logger: logger.With().Str("conn_id", id).Logger(),
		ctx:    ctx,
		cancel: cancel,
		sendCh: make(chan outbound, sendBufferSize),
	}

	if cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		})
	}

	go c.writePump()

	return c
}

// ID returns the connection identifier used in logs.
func (c *Conn) ID() string {
	return c.id
}

// ReadMessage returns the next inbound frame.
// The ctx is only checked before blocking; Close unblocks a pending read.
func (c *Conn) ReadMessage(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.IsAlive() {
		return nil, scnet.ErrConnectionClosed
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, c.readError(err)
	}
	if c.cfg.ReadTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	return data, nil
}

func (c *Conn) readError(err error) error {
	if !c.IsAlive() || errors.Is(err, net.ErrClosed) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return fmt.Errorf("%w: %v", scnet.ErrConnectionClosed, err)
	}
	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Warn().Err(err).Msg("unexpected websocket close")
	}
	return fmt.Errorf("websocket read: %w", err)
}

// WriteMessage queues data on the write pump and waits for the frame to be written.
func (c *Conn) WriteMessage(ctx context.Context, data []byte) error {
	msg := outbound{data: data, errCh: make(chan error, 1)}

	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return scnet.ErrConnectionClosed
	}

	// Keep the lock while queueing to prevent a race with Close()
	select {
	case c.sendCh <- msg:
		c.mu.RUnlock()
	case <-ctx.Done():
		c.mu.RUnlock()
		return ctx.Err()
	case <-c.ctx.Done():
		c.mu.RUnlock()
		return scnet.ErrConnectionClosed
	}

	select {
	case err := <-msg.errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return scnet.ErrConnectionClosed
	}
}

// Close closes the connection gracefully.
func (c *Conn) Close() error {
	return c.CloseWithCode(websocket.CloseNormalClosure, "")
}

// CloseWithCode closes the connection with a close code and optional reason.
func (c *Conn) CloseWithCode(code int, reason string) error {
	// Writers blocked on a full queue hold the read lock until ctx is cancelled.
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	message := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(time.Second)
	c.conn.WriteControl(websocket.CloseMessage, message, deadline)

	close(c.sendCh)
	c.logger.Debug().Int("code", code).Msg("websocket closed")
	return c.conn.Close()
}

// IsAlive returns true if the connection is still open.
func (c *Conn) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// writePump pumps queued messages to the websocket connection
func (c *Conn) writePump() {
	var tick <-chan time.Time
	if c.cfg.PingInterval > 0 {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case msg, ok := <-c.sendCh:
			if !ok {
				return
			}
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				msg.errCh <- fmt.Errorf("%w: %v", scnet.ErrConnectionClosed, err)
				c.logger.Warn().Err(err).Msg("websocket write failed")
				go c.CloseWithCode(websocket.CloseGoingAway, "")
				return
			}
			msg.errCh <- nil

		case <-tick:
			c.setWriteDeadline()
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn().Err(err).Msg("websocket ping failed")
				go c.CloseWithCode(websocket.CloseGoingAway, "")
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Conn) setWriteDeadline() {
	if c.cfg.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
}
