// Package executor turns typed sc operations into request envelopes and decodes
// their responses.
//
// Every operation validates its arguments before anything is sent. Invalid
// arguments fail with sc.ErrInvalidType. When the session returns no response
// (the failure was already passed to the error handler) or the server answers
// with status false, the operation yields its zero result and a nil error.
package executor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/internal/protocol"
	"github.com/luciancaetano/scnet/sc"
)

// Sender performs one correlated round trip. A nil response with a nil error
// means the failure was reported and swallowed by the error handler.
//
// SendWithHook calls onResponse from the receiving goroutine before any later
// message is processed.
type Sender interface {
	Send(ctx context.Context, requestType scnet.RequestType, payload any) (*protocol.Response, error)
	SendWithHook(ctx context.Context, requestType scnet.RequestType, payload any, onResponse func(*protocol.Response)) (*protocol.Response, error)
}

// Subscriptions keeps event handlers by server subscription id.
type Subscriptions interface {
	Register(sub sc.EventSubscription)
	Lookup(id uint64) (*sc.EventSubscription, bool)
	Unregister(id uint64) bool
}

// Executor implements the sc-server operations on top of a Sender.
type Executor struct {
	sender        Sender
	subscriptions Subscriptions
	logger        zerolog.Logger
}

func New(sender Sender, subscriptions Subscriptions, logger zerolog.Logger) *Executor {
	return &Executor{
		sender:        sender,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// call sends payload and returns the response only when it succeeded.
func (e *Executor) call(ctx context.Context, requestType scnet.RequestType, payload any) (*protocol.Response, error) {
	resp, err := e.sender.Send(ctx, requestType, payload)
	return e.accept(resp, err, requestType)
}

func (e *Executor) accept(resp *protocol.Response, err error, requestType scnet.RequestType) (*protocol.Response, error) {
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	if !resp.Status {
		e.logger.Warn().Uint64("id", resp.ID).Stringer("type", requestType).Msg("sc-server rejected request")
		return nil, nil
	}
	return resp, nil
}

// decode unmarshals a successful response payload into T.
func decode[T any](resp *protocol.Response, requestType scnet.RequestType) (T, error) {
	var out T
	if err := resp.DecodePayload(&out); err != nil {
		return out, fmt.Errorf("%s: %w", requestType, err)
	}
	return out, nil
}

func addrValues(addrs []sc.Addr) []uint64 {
	out := make([]uint64, len(addrs))
	for i, a := range addrs {
		out[i] = uint64(a)
	}
	return out
}

func addrLists(values [][]uint64) [][]sc.Addr {
	out := make([][]sc.Addr, len(values))
	for i, v := range values {
		out[i] = sc.Addrs(v)
	}
	return out
}
