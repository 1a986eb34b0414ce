package scnet

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// RequestType is the numeric request code carried in the outbound envelope.
type RequestType uint32

const (
	TypeCheckElements RequestType = iota + 1
	TypeGenerateElements
	TypeGenerateElementsBySCs
	TypeKeynodes
	TypeEraseElements
	TypeSearchTemplate
	TypeGenerateTemplate
	TypeEvents
	TypeContent
)

var requestTypeNames = map[RequestType]string{
	TypeCheckElements:         "check_elements",
	TypeGenerateElements:      "generate_elements",
	TypeGenerateElementsBySCs: "generate_elements_by_scs",
	TypeKeynodes:              "keynodes",
	TypeEraseElements:         "erase_elements",
	TypeSearchTemplate:        "search_template",
	TypeGenerateTemplate:      "generate_template",
	TypeEvents:                "events",
	TypeContent:               "content",
}

func (t RequestType) String() string {
	if name, ok := requestTypeNames[t]; ok {
		return name
	}
	return "request_type_" + strconv.FormatUint(uint64(t), 10)
}

// Defaults
const (
	DefaultResponseTimeout     = 5 * time.Second
	DefaultEstablishTimeout    = 500 * time.Millisecond
	DefaultReconnectRetries    = 5
	DefaultReconnectRetryDelay = 500 * time.Millisecond
	DefaultMaxPayloadSize      = 10 * 1024 * 1024 // 10MB encoded envelope

	// LoggingMaxSize truncates messages written to debug logs.
	LoggingMaxSize = 100
)

// Connection errors
var (
	ErrNotConnected      = errors.New("sc-server connection wasn't open")
	ErrConnectionClosed  = errors.New("sc-server connection is closed")
	ErrConnectionAborted = errors.New("sc-server connection aborted")
	ErrResponseTimeout   = fmt.Errorf("%w: sc-server takes a long time to respond", ErrConnectionAborted)
	ErrSessionClosed     = errors.New("session closed")
)

// Protocol errors
var (
	ErrPayloadMaxSize       = errors.New("payload exceeds maximum size")
	ErrInvalidMessageFormat = errors.New("invalid message format")
)
