package executor

import (
	"context"
	"fmt"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/internal/protocol"
	"github.com/luciancaetano/scnet/sc"
)

type eventsCreateRequest struct {
	Create []eventItem `json:"create"`
}

type eventsDeleteRequest struct {
	Delete []uint64 `json:"delete"`
}

// CreateElementaryEventSubscriptions subscribes to events and registers each handler
// under the id the server assigned.
func (e *Executor) CreateElementaryEventSubscriptions(ctx context.Context, params ...sc.EventSubscriptionParams) ([]*sc.EventSubscription, error) {
	items := make([]eventItem, len(params))
	for i, p := range params {
		if p.Type == "" {
			return nil, fmt.Errorf("%w: subscription %d has no event type", sc.ErrInvalidType, i)
		}
		items[i] = eventItem{Type: p.Type, Addr: uint64(p.Addr)}
	}

	// Handlers are registered while the reply is being received, so an event
	// following the reply on the wire already finds its subscription.
	var (
		created   []*sc.EventSubscription
		decodeErr error
	)
	register := func(resp *protocol.Response) {
		if !resp.Status {
			return
		}
		created, decodeErr = e.registerSubscriptions(resp, params)
	}

	resp, err := e.sender.SendWithHook(ctx, scnet.TypeEvents, eventsCreateRequest{Create: items}, register)
	if resp, err = e.accept(resp, err, scnet.TypeEvents); resp == nil || err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return created, nil
}

func (e *Executor) registerSubscriptions(resp *protocol.Response, params []sc.EventSubscriptionParams) ([]*sc.EventSubscription, error) {
	ids, err := decode[[]uint64](resp, scnet.TypeEvents)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(params) {
		e.logger.Warn().Int("requested", len(params)).Int("created", len(ids)).Msg("subscription count mismatch")
	}

	out := make([]*sc.EventSubscription, 0, len(ids))
	for i, id := range ids {
		if i >= len(params) {
			break
		}
		sub := sc.EventSubscription{ID: id, Type: params[i].Type, Handler: params[i].Handler}
		e.subscriptions.Register(sub)
		out = append(out, &sub)
	}
	return out, nil
}

// DestroyElementaryEventSubscriptions cancels subscriptions on the server and
// drops their handlers once the server confirmed.
func (e *Executor) DestroyElementaryEventSubscriptions(ctx context.Context, subs ...*sc.EventSubscription) (bool, error) {
	ids := make([]uint64, len(subs))
	for i, sub := range subs {
		if sub == nil {
			return false, fmt.Errorf("%w: subscription %d is nil", sc.ErrInvalidType, i)
		}
		ids[i] = sub.ID
	}

	resp, err := e.call(ctx, scnet.TypeEvents, eventsDeleteRequest{Delete: ids})
	if resp == nil || err != nil {
		return false, err
	}
	for _, id := range ids {
		e.subscriptions.Unregister(id)
	}
	return true, nil
}

// IsEventSubscriptionValid reports whether sub is still registered locally.
func (e *Executor) IsEventSubscriptionValid(sub *sc.EventSubscription) (bool, error) {
	if sub == nil {
		return false, fmt.Errorf("%w: expected *sc.EventSubscription", sc.ErrInvalidType)
	}
	_, ok := e.subscriptions.Lookup(sub.ID)
	return ok, nil
}
