package sc

import "context"

// EventType is the elementary event kind a subscription listens for.
type EventType string

const (
	EventAfterGenerateConnector   EventType = "sc_event_after_generate_connector"
	EventAfterGenerateOutgoingArc EventType = "sc_event_after_generate_outgoing_arc"
	EventAfterGenerateIncomingArc EventType = "sc_event_after_generate_incoming_arc"
	EventAfterGenerateEdge        EventType = "sc_event_after_generate_edge"
	EventBeforeEraseConnector     EventType = "sc_event_before_erase_connector"
	EventBeforeEraseOutgoingArc   EventType = "sc_event_before_erase_outgoing_arc"
	EventBeforeEraseIncomingArc   EventType = "sc_event_before_erase_incoming_arc"
	EventBeforeEraseEdge          EventType = "sc_event_before_erase_edge"
	EventBeforeEraseElement       EventType = "sc_event_before_erase_element"
	EventBeforeChangeLinkContent  EventType = "sc_event_before_change_link_content"
)

// EventHandler receives the three addresses of an event: the subscribed element,
// the connector involved and the element at its other end.
type EventHandler interface {
	HandleEvent(ctx context.Context, subscribed, connector, other Addr)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, subscribed, connector, other Addr)

func (f EventHandlerFunc) HandleEvent(ctx context.Context, subscribed, connector, other Addr) {
	f(ctx, subscribed, connector, other)
}

// EventSubscriptionParams requests a subscription to Type events at Addr.
type EventSubscriptionParams struct {
	Addr    Addr
	Type    EventType
	Handler EventHandler
}

// EventSubscription is an active server-side subscription. ID is assigned by the server.
type EventSubscription struct {
	ID      uint64
	Type    EventType
	Handler EventHandler
}
