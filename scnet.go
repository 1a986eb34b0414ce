package scnet

import "context"

// Transport opens duplex message channels to sc-server.
//
// The default implementation lives in internal/websocket and speaks WebSocket text
// frames. Tests substitute an in-memory transport.
type Transport interface {
	// Dial opens a channel to url. The returned Conn is owned exclusively by the caller.
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn is an open duplex channel yielding an ordered sequence of inbound messages.
type Conn interface {
	// ReadMessage blocks until the next inbound message arrives.
	//
	// Returns ErrConnectionClosed (possibly wrapped) once the channel is closed,
	// or the underlying transport error.
	ReadMessage(ctx context.Context) ([]byte, error)

	// WriteMessage writes one message. Concurrent calls are serialized by the Conn.
	//
	// Returns ErrConnectionClosed (possibly wrapped) when the channel is closed.
	WriteMessage(ctx context.Context, data []byte) error

	// Close closes the channel. Pending and later reads fail with ErrConnectionClosed.
	Close() error
}

// ErrorHandler receives errors detected asynchronously by the session: send
// failures after reconnect retries, response timeouts, oversize payloads and
// transport errors in the read loop.
//
// The returned error is propagated to the caller awaiting the failed operation,
// if there is one. The default handler returns err unchanged. A handler that
// returns nil makes operations degrade to empty results instead.
//
// Example:
//
//	client.SetErrorHandler(scnet.ErrorHandlerFunc(func(ctx context.Context, err error) error {
//	    log.Warn().Err(err).Msg("sc-server error")
//	    return nil
//	}))
type ErrorHandler interface {
	HandleError(ctx context.Context, err error) error
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, err error) error

func (f ErrorHandlerFunc) HandleError(ctx context.Context, err error) error {
	return f(ctx, err)
}

// ReconnectHandler is invoked before each send retry after the channel closed.
// retry counts from zero. The default handler reconnects to the last url.
type ReconnectHandler interface {
	Reconnect(ctx context.Context, retry int) error
}

// ReconnectHandlerFunc adapts a function to ReconnectHandler.
type ReconnectHandlerFunc func(ctx context.Context, retry int) error

func (f ReconnectHandlerFunc) Reconnect(ctx context.Context, retry int) error {
	return f(ctx, retry)
}

// PostReconnectHandler is invoked once a connection opens within the establish grace period.
// Use it to restore state such as event subscriptions.
type PostReconnectHandler interface {
	PostReconnect(ctx context.Context) error
}

// PostReconnectHandlerFunc adapts a function to PostReconnectHandler.
type PostReconnectHandlerFunc func(ctx context.Context) error

func (f PostReconnectHandlerFunc) PostReconnect(ctx context.Context) error {
	return f(ctx)
}
