// Package scnet is an asynchronous client for sc-server, the semantic memory server of
// the OSTIS platform.
//
// A single WebSocket connection carries both request/response traffic and server-pushed
// events. Every request gets a unique identifier; responses are matched back to the
// waiting caller by that identifier, so any number of goroutines may issue requests
// concurrently over the same connection.
//
// # Architecture
//
// The module is layered:
//
//   - package sc holds the knowledge-graph value types: addresses, element types,
//     constructions, link contents, templates and event subscriptions.
//   - internal/protocol encodes request envelopes and decodes responses and events.
//   - internal/websocket is the default Transport, built on gorilla/websocket.
//   - internal/session owns the connection state machine, the table of pending
//     requests, the subscription registry and reconnection.
//   - internal/executor validates inputs and translates each operation into its
//     request payload, then decodes the reply.
//   - package client is the public facade combining all of the above.
//
// # Quick Start
//
//	c, err := client.New(client.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer c.Close(ctx)
//
//	if err := c.Connect(ctx, "ws://localhost:8090/ws_json"); err != nil {
//	    return err
//	}
//
//	addrs, err := c.ResolveKeynodes(ctx, sc.IdtfResolveParams{Idtf: "nrel_main_idtf"})
//
// # Error handling
//
// Transport failures and response timeouts are passed to the configured ErrorHandler.
// The default handler returns the error to the caller. A handler that returns nil turns
// the failure into an empty result, which lets callers treat an unreachable server as
// "nothing found".
//
// Requests whose encoded payload exceeds the configured maximum fail with
// ErrPayloadMaxSize before anything is written to the connection.
//
// # Reconnection
//
// When the connection drops, the ReconnectHandler is invoked once per retry, with no
// delay before the first retry and the configured delay before each later one. When all
// retries fail the ErrorHandler receives ErrConnectionAborted.
//
// # Events
//
// Event handlers for one subscription run one at a time in arrival order. Handlers for
// different subscriptions run concurrently.
package scnet
