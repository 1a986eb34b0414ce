package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/luciancaetano/scnet"
)

// TestEncode tests the Encode function with various inputs
func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		id          uint64
		requestType scnet.RequestType
		payload     any
		maxSize     int
		want        string
		wantErr     error
	}{
		{
			name:        "address list",
			id:          1,
			requestType: scnet.TypeCheckElements,
			payload:     []uint64{12, 34},
			want:        `{"id":1,"type":1,"payload":[12,34]}`,
		},
		{
			name:        "nil payload",
			id:          7,
			requestType: scnet.TypeEraseElements,
			payload:     nil,
			want:        `{"id":7,"type":5,"payload":null}`,
		},
		{
			name:        "object payload",
			id:          42,
			requestType: scnet.TypeEvents,
			payload:     map[string]any{"delete": []uint64{3}},
			want:        `{"id":42,"type":8,"payload":{"delete":[3]}}`,
		},
		{
			name:        "exactly max size",
			id:          1,
			requestType: scnet.TypeCheckElements,
			payload:     []uint64{1},
			maxSize:     len(`{"id":1,"type":1,"payload":[1]}`),
			want:        `{"id":1,"type":1,"payload":[1]}`,
		},
		{
			name:        "exceeds max size",
			id:          1,
			requestType: scnet.TypeContent,
			payload:     strings.Repeat("x", 64),
			maxSize:     32,
			wantErr:     scnet.ErrPayloadMaxSize,
		},
		{
			name:        "unencodable payload",
			id:          1,
			requestType: scnet.TypeContent,
			payload:     make(chan int),
			wantErr:     errAny,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Encode(tt.id, tt.requestType, tt.payload, tt.maxSize)
			if tt.wantErr != nil {
				if err == nil {
					t.Fatalf("Encode() error = nil, want %v", tt.wantErr)
				}
				if tt.wantErr != errAny && !errors.Is(err, tt.wantErr) {
					t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}

var errAny = errors.New("any error")

// TestDecode tests the Decode function with various inputs
func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		data      string
		wantID    uint64
		wantEvent bool
		wantOK    bool
		wantError bool
	}{
		{
			name:   "response",
			data:   `{"id":3,"status":true,"event":false,"payload":[1,2]}`,
			wantID: 3, wantOK: true,
		},
		{
			name:      "event",
			data:      `{"id":12345,"status":true,"event":true,"payload":[1,2,3]}`,
			wantID:    12345,
			wantEvent: true,
			wantOK:    true,
		},
		{
			name:   "failed response without event flag",
			data:   `{"id":9,"status":false,"payload":null}`,
			wantID: 9,
		},
		{
			name:      "empty",
			data:      ``,
			wantError: true,
		},
		{
			name:      "not json",
			data:      `hello`,
			wantError: true,
		},
		{
			name:      "wrong id type",
			data:      `{"id":"one","status":true}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode([]byte(tt.data))
			if (err != nil) != tt.wantError {
				t.Fatalf("Decode() error = %v, wantError %v", err, tt.wantError)
			}
			if tt.wantError {
				if !errors.Is(err, scnet.ErrInvalidMessageFormat) {
					t.Errorf("Decode() error = %v, want ErrInvalidMessageFormat", err)
				}
				return
			}
			if got.ID != tt.wantID {
				t.Errorf("ID = %d, want %d", got.ID, tt.wantID)
			}
			if got.Event != tt.wantEvent {
				t.Errorf("Event = %v, want %v", got.Event, tt.wantEvent)
			}
			if got.Status != tt.wantOK {
				t.Errorf("Status = %v, want %v", got.Status, tt.wantOK)
			}
		})
	}
}

func TestEncodeDecodeEnvelopeFields(t *testing.T) {
	t.Parallel()

	data, err := Encode(5, scnet.TypeKeynodes, []map[string]string{{"command": "find", "idtf": "x"}}, 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "type", "payload"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("envelope missing %q", key)
		}
	}
	if len(raw) != 3 {
		t.Errorf("envelope has %d fields, want 3", len(raw))
	}
}

func TestEventAddrs(t *testing.T) {
	t.Parallel()

	resp, err := Decode([]byte(`{"id":1,"status":true,"event":true,"payload":[10,20,30]}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	addrs, err := resp.EventAddrs()
	if err != nil {
		t.Fatalf("EventAddrs() error = %v", err)
	}
	if addrs != [3]uint64{10, 20, 30} {
		t.Errorf("EventAddrs() = %v", addrs)
	}

	for _, payload := range []string{`[10]`, `[10,20]`, `[10,20,30,40]`, `[]`} {
		bad, err := Decode([]byte(`{"id":1,"event":true,"payload":` + payload + `}`))
		if err != nil {
			t.Fatalf("Decode(%s) error = %v", payload, err)
		}
		if _, err := bad.EventAddrs(); !errors.Is(err, scnet.ErrInvalidMessageFormat) {
			t.Errorf("EventAddrs(%s) error = %v, want ErrInvalidMessageFormat", payload, err)
		}
	}

	missing, _ := Decode([]byte(`{"id":1,"event":true}`))
	if _, err := missing.EventAddrs(); !errors.Is(err, scnet.ErrInvalidMessageFormat) {
		t.Errorf("EventAddrs() missing payload error = %v", err)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate([]byte("abcdef"), 3); got != "abc..." {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate([]byte("abc"), 3); got != "abc" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate([]byte("abc"), 0); got != "abc" {
		t.Errorf("Truncate() = %q", got)
	}
}

func BenchmarkEncode(b *testing.B) {
	payload := []uint64{1, 2, 3, 4, 5}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Encode(uint64(i), scnet.TypeCheckElements, payload, scnet.DefaultMaxPayloadSize)
	}
}

func BenchmarkDecode(b *testing.B) {
	data := []byte(`{"id":3,"status":true,"event":false,"payload":[1,2]}`)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Decode(data)
	}
}
