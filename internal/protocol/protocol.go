package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/luciancaetano/scnet"
)

// Request is the outbound envelope.
type Request struct {
	ID      uint64            `json:"id"`
	Type    scnet.RequestType `json:"type"`
	Payload any               `json:"payload"`
}

// Response is the inbound envelope. When Event is set, ID is a subscription
// identifier rather than a request identifier.
type Response struct {
	ID      uint64          `json:"id"`
	Status  bool            `json:"status"`
	Event   bool            `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Encode serializes a request envelope. Envelopes larger than maxSize bytes are
// rejected with scnet.ErrPayloadMaxSize; maxSize <= 0 disables the check.
func Encode(id uint64, requestType scnet.RequestType, payload any, maxSize int) ([]byte, error) {
	data, err := json.Marshal(Request{ID: id, Type: requestType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode request %d: %w", id, err)
	}
	if maxSize > 0 && len(data) > maxSize {
		return nil, fmt.Errorf("%w: data is too large: %d > %d bytes", scnet.ErrPayloadMaxSize, len(data), maxSize)
	}
	return data, nil
}

// Decode parses an inbound envelope.
func Decode(data []byte) (*Response, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty message", scnet.ErrInvalidMessageFormat)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", scnet.ErrInvalidMessageFormat, err)
	}
	return &resp, nil
}

// DecodePayload unmarshals the payload into v.
func (r *Response) DecodePayload(v any) error {
	if len(r.Payload) == 0 {
		return fmt.Errorf("%w: response %d has no payload", scnet.ErrInvalidMessageFormat, r.ID)
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("%w: response %d payload: %v", scnet.ErrInvalidMessageFormat, r.ID, err)
	}
	return nil
}

// EventAddrs extracts the three address operands of an event envelope.
func (r *Response) EventAddrs() ([3]uint64, error) {
	var raw []uint64
	if err := r.DecodePayload(&raw); err != nil {
		return [3]uint64{}, err
	}
	if len(raw) != 3 {
		return [3]uint64{}, fmt.Errorf("%w: event %d has %d operands, want 3", scnet.ErrInvalidMessageFormat, r.ID, len(raw))
	}
	var out [3]uint64
	copy(out[:], raw)
	return out, nil
}

// Truncate shortens data for log output.
func Truncate(data []byte, n int) string {
	if n <= 0 || len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}
