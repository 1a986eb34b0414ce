package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/internal/observability"
	"github.com/luciancaetano/scnet/internal/protocol"
	"github.com/luciancaetano/scnet/sc"
)

// DefaultErrorHandler propagates every error to the awaiting caller.
var DefaultErrorHandler = scnet.ErrorHandlerFunc(func(ctx context.Context, err error) error {
	return err
})

// Session multiplexes requests and event subscriptions over one channel to sc-server.
type Session struct {
	id        string
	cfg       Config
	logger    zerolog.Logger
	transport scnet.Transport
	limiter   *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	idMu   sync.Mutex
	lastID uint64

	mu         sync.RWMutex
	url        string
	conn       scnet.Conn
	state      State
	everOpened bool
	attempt    *connectAttempt

	errorHandler         scnet.ErrorHandler
	reconnectHandler     scnet.ReconnectHandler
	postReconnectHandler scnet.PostReconnectHandler
	retries              int
	retryDelay           time.Duration

	pending       *pendingTable
	subscriptions *Registry
}

// connectAttempt tracks one background dial. The Connect call that started it
// waits up to the grace period; if it stops waiting first, the dial goroutine
// reports a failure through the error handler itself.
type connectAttempt struct {
	ready   chan struct{}
	mu      sync.Mutex
	done    bool
	waiting bool
	err     error
}

func (a *connectAttempt) finish(err error) (waiterPresent bool) {
	a.mu.Lock()
	a.done = true
	a.err = err
	waiterPresent = a.waiting
	a.mu.Unlock()
	close(a.ready)
	return waiterPresent
}

func (a *connectAttempt) detach() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return false
	}
	a.waiting = false
	return true
}

// New creates a disconnected Session.
func New(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Transport == nil {
		return nil, errors.New("session: transport is required")
	}
	c := cfg.withDefaults()

	logger := log.Logger
	if c.Logger != nil {
		logger = *c.Logger
	}
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:                   id,
		cfg:                  c,
		logger:               logger.With().Str("session_id", id).Logger(),
		transport:            c.Transport,
		limiter:              c.RateLimit.limiter(),
		ctx:                  ctx,
		cancel:               cancel,
		url:                  c.URL,
		errorHandler:         c.ErrorHandler,
		reconnectHandler:     c.ReconnectHandler,
		postReconnectHandler: c.PostReconnectHandler,
		retries:              c.ReconnectRetries,
		retryDelay:           c.ReconnectRetryDelay,
		pending:              newPendingTable(),
	}
	s.subscriptions = newRegistry(ctx, s.logger)
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// URL returns the last url passed to Connect.
func (s *Session) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsConnected reports whether the channel is open.
func (s *Session) IsConnected() bool {
	return s.State() == StateOpen
}

// Subscriptions returns the event subscription registry.
func (s *Session) Subscriptions() *Registry {
	return s.subscriptions
}

// Pending returns the number of requests awaiting a response.
func (s *Session) Pending() int {
	return s.pending.len()
}

// SetErrorHandler replaces the error handler. nil restores DefaultErrorHandler.
func (s *Session) SetErrorHandler(h scnet.ErrorHandler) {
	s.mu.Lock()
	s.errorHandler = h
	s.mu.Unlock()
}

// SetReconnectHandler replaces the reconnect policy. A nil reconnect handler restores
// the default, which reconnects to the last url.
func (s *Session) SetReconnectHandler(reconnect scnet.ReconnectHandler, post scnet.PostReconnectHandler, retries int, delay time.Duration) {
	if retries < 0 {
		retries = 0
	}
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	s.reconnectHandler = reconnect
	s.postReconnectHandler = post
	s.retries = retries
	s.retryDelay = delay
	s.mu.Unlock()
}

func (s *Session) handlers() (scnet.ErrorHandler, scnet.ReconnectHandler, scnet.PostReconnectHandler) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	errorHandler := s.errorHandler
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}
	reconnect := s.reconnectHandler
	if reconnect == nil {
		reconnect = scnet.ReconnectHandlerFunc(s.defaultReconnect)
	}
	return errorHandler, reconnect, s.postReconnectHandler
}

func (s *Session) defaultReconnect(ctx context.Context, retry int) error {
	url := s.URL()
	if url == "" {
		return scnet.ErrNotConnected
	}
	return s.Connect(ctx, url)
}

// reportError routes err through the error handler and returns the handler's verdict.
func (s *Session) reportError(ctx context.Context, err error) error {
	h, _, _ := s.handlers()
	return h.HandleError(ctx, err)
}

// asyncError reports err when nobody awaits the outcome.
func (s *Session) asyncError(err error) {
	if herr := s.reportError(s.ctx, err); herr != nil {
		s.logger.Error().Err(herr).Msg("unhandled sc-server error")
	}
}

// Connect opens the channel to url in the background and waits up to the establish
// grace period for it. An open session only records url.
func (s *Session) Connect(ctx context.Context, url string) error {
	if s.closed.Load() {
		return scnet.ErrSessionClosed
	}

	s.mu.Lock()
	s.url = url
	if s.state == StateOpen {
		s.mu.Unlock()
		return nil
	}
	a := s.attempt
	owner := a == nil
	if owner {
		a = &connectAttempt{ready: make(chan struct{}), waiting: true}
		s.attempt = a
		if s.everOpened {
			s.state = StateReconnecting
		} else {
			s.state = StateConnecting
		}
		go s.run(a, url)
	}
	s.mu.Unlock()

	timer := time.NewTimer(s.cfg.EstablishTimeout)
	defer timer.Stop()

	select {
	case <-a.ready:
	case <-timer.C:
		if !owner || a.detach() {
			s.logger.Warn().Str("url", url).Dur("grace", s.cfg.EstablishTimeout).
				Msg("connection not open within grace period")
			return nil
		}
	case <-ctx.Done():
		if owner && !a.detach() {
			break
		}
		return ctx.Err()
	}

	if !owner {
		return nil
	}
	if a.err != nil {
		return s.reportError(ctx, a.err)
	}
	if _, _, post := s.handlers(); post != nil {
		if err := post.PostReconnect(ctx); err != nil {
			return fmt.Errorf("post reconnect: %w", err)
		}
	}
	return nil
}

// run dials and then owns the read loop for the lifetime of the channel.
func (s *Session) run(a *connectAttempt, url string) {
	conn, err := s.transport.Dial(s.ctx, url)

	s.mu.Lock()
	s.attempt = nil
	if err == nil && s.closed.Load() {
		err = scnet.ErrSessionClosed
		conn.Close()
	}
	if err != nil {
		if s.state == StateConnecting || s.state == StateReconnecting {
			s.state = StateDisconnected
		}
		s.mu.Unlock()

		s.logger.Warn().Err(err).Str("url", url).Msg("connection failed")
		if !a.finish(err) && !errors.Is(err, scnet.ErrSessionClosed) {
			s.asyncError(err)
		}
		return
	}
	s.conn = conn
	s.state = StateOpen
	s.everOpened = true
	s.mu.Unlock()

	s.logger.Info().Str("url", url).Msg("connection opened")
	a.finish(nil)
	s.readLoop(conn)
}

func (s *Session) readLoop(conn scnet.Conn) {
	for {
		data, err := conn.ReadMessage(s.ctx)
		if err != nil {
			s.readEnded(conn, err)
			return
		}
		s.route(data)
	}
}

func (s *Session) readEnded(conn scnet.Conn, err error) {
	s.mu.Lock()
	local := s.conn != conn || s.state == StateClosing || s.closed.Load()
	if s.conn == conn {
		s.conn = nil
		if s.state == StateOpen {
			s.state = StateDisconnected
		}
	}
	s.mu.Unlock()

	conn.Close()
	s.logger.Info().Err(err).Bool("local", local).Msg("connection closed")
	if !local {
		s.asyncError(err)
	}
}

// route hands a response to its pending slot or an event to its subscription.
func (s *Session) route(data []byte) {
	s.logger.Debug().Str("data", protocol.Truncate(data, scnet.LoggingMaxSize)).Msg("receive")

	resp, err := protocol.Decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("dropping malformed message")
		return
	}

	if resp.Event {
		raw, err := resp.EventAddrs()
		if err != nil {
			s.logger.Warn().Err(err).Uint64("subscription_id", resp.ID).Msg("dropping malformed event")
			return
		}
		matched := s.subscriptions.Dispatch(resp.ID, [3]sc.Addr{sc.Addr(raw[0]), sc.Addr(raw[1]), sc.Addr(raw[2])})
		observability.RecordEvent(matched)
		return
	}

	if !s.pending.resolve(resp.ID, resp) {
		s.logger.Debug().Uint64("id", resp.ID).Msg("dropping response without pending request")
	}
}

// Disconnect closes the channel. Requests awaiting a response stay pending and time out.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	if conn == nil {
		s.mu.Unlock()
		return s.reportError(ctx, scnet.ErrNotConnected)
	}
	s.state = StateClosing
	s.mu.Unlock()

	err := conn.Close()

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.state = StateDisconnected
	s.mu.Unlock()

	s.logger.Info().Msg("disconnected")
	if err != nil {
		return s.reportError(ctx, fmt.Errorf("close connection: %w", err))
	}
	return nil
}

// Close tears the session down: the channel is closed, every pending request is
// abandoned and every subscription dispatcher stops. The session cannot be reused.
func (s *Session) Close(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.state = StateClosing
	s.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	s.cancel()

	abandoned := s.pending.abandonAll()
	s.subscriptions.Close()

	s.mu.Lock()
	s.state = StateDisconnected
	s.mu.Unlock()

	s.logger.Info().Int("abandoned", abandoned).Msg("session closed")
	return err
}

func (s *Session) nextID() uint64 {
	s.idMu.Lock()
	s.lastID++
	id := s.lastID
	s.idMu.Unlock()
	return id
}

// Send writes one request and waits for its correlated response.
//
// A nil response with a nil error means the failure was reported to the error
// handler and the handler chose not to propagate it.
func (s *Session) Send(ctx context.Context, requestType scnet.RequestType, payload any) (*protocol.Response, error) {
	return s.SendWithHook(ctx, requestType, payload, nil)
}

// SendWithHook is Send with onResponse run on the read loop as soon as the response
// arrives, before any later message is routed. onResponse must not block. It is not
// called when the request times out or is abandoned.
func (s *Session) SendWithHook(ctx context.Context, requestType scnet.RequestType, payload any, onResponse func(*protocol.Response)) (*protocol.Response, error) {
	if s.closed.Load() {
		return nil, scnet.ErrSessionClosed
	}

	id := s.nextID()
	label := requestType.String()

	data, err := protocol.Encode(id, requestType, payload, s.cfg.MaxPayloadSize)
	if err != nil {
		if errors.Is(err, scnet.ErrPayloadMaxSize) {
			observability.RecordRequest(label, observability.OutcomeOversize, 0)
			return nil, s.reportError(ctx, err)
		}
		return nil, err
	}

	sl := s.pending.registerHook(id, s.guardHook(requestType, onResponse))
	observability.AddPending(1)
	defer observability.AddPending(-1)
	start := time.Now()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.pending.abandon(id)
			return nil, err
		}
	}

	if err := s.write(ctx, id, data); err != nil {
		if s.pending.abandon(id) || sl.State() == slotAbandoned {
			observability.RecordRequest(label, observability.OutcomeAborted, time.Since(start))
			return nil, s.reportError(ctx, err)
		}
	}

	timer := time.NewTimer(s.cfg.ResponseTimeout)
	defer timer.Stop()

	select {
	case <-sl.Done():
	case <-timer.C:
		if s.pending.abandon(id) {
			observability.RecordRequest(label, observability.OutcomeTimeout, time.Since(start))
			return nil, s.reportError(ctx, fmt.Errorf("request %d (%s): %w", id, requestType, scnet.ErrResponseTimeout))
		}
	case <-ctx.Done():
		if s.pending.abandon(id) {
			return nil, ctx.Err()
		}
	}

	resp, state := sl.Result()
	if state == slotAbandoned {
		observability.RecordRequest(label, observability.OutcomeClosed, time.Since(start))
		return nil, s.reportError(ctx, fmt.Errorf("request %d (%s): %w", id, requestType, scnet.ErrSessionClosed))
	}
	outcome := observability.OutcomeOK
	if !resp.Status {
		outcome = observability.OutcomeFailed
	}
	observability.RecordRequest(label, outcome, time.Since(start))
	return resp, nil
}

// guardHook keeps a panicking hook from taking down the read loop.
func (s *Session) guardHook(requestType scnet.RequestType, hook func(*protocol.Response)) func(*protocol.Response) {
	if hook == nil {
		return nil
	}
	return func(resp *protocol.Response) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Stringer("type", requestType).Msg("response hook panicked")
			}
		}()
		hook(resp)
	}
}

func (s *Session) currentConn() scnet.Conn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// dropConn forgets conn after a write found it closed, so a reconnect dials anew.
func (s *Session) dropConn(conn scnet.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		if s.state == StateOpen {
			s.state = StateDisconnected
		}
	}
	s.mu.Unlock()
	conn.Close()
}

// write sends data, retrying through the reconnect handler while the channel is closed.
func (s *Session) write(ctx context.Context, id uint64, data []byte) error {
	_, reconnect, _ := s.handlers()
	s.mu.RLock()
	retries, delay := s.retries, s.retryDelay
	s.mu.RUnlock()

	for retry := 0; ; retry++ {
		var err error
		conn := s.currentConn()
		if conn == nil {
			err = scnet.ErrNotConnected
		} else {
			s.logger.Debug().Uint64("id", id).Str("data", protocol.Truncate(data, scnet.LoggingMaxSize)).Msg("send")
			err = conn.WriteMessage(ctx, data)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, scnet.ErrConnectionClosed) && !errors.Is(err, scnet.ErrNotConnected) {
			return err
		}
		if conn != nil {
			s.dropConn(conn)
		}

		if retry >= retries {
			return fmt.Errorf("%w: request %d not sent after %d retries: %v", scnet.ErrConnectionAborted, id, retries, err)
		}

		s.logger.Warn().Int("retry", retry).Dur("delay", delay).
			Msg("connection to sc-server has failed, trying to reconnect")
		if retry > 0 && delay > 0 {
			wait := time.NewTimer(delay)
			select {
			case <-wait.C:
			case <-ctx.Done():
				wait.Stop()
				return ctx.Err()
			}
		}
		observability.RecordReconnect()
		if err := reconnect.Reconnect(ctx, retry); err != nil {
			s.logger.Warn().Err(err).Int("retry", retry).Msg("reconnect failed")
		}
	}
}
