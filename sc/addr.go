package sc

import (
	"errors"
	"strconv"
)

// Domain errors returned synchronously, before any request reaches the server.
var (
	// ErrInvalidType is returned when a value of the wrong shape is passed where a specific
	// kind is required (e.g. a connector type given to GenerateNode).
	ErrInvalidType = errors.New("invalid type")

	// ErrLinkContentOversize is returned when link content exceeds LinkContentMaxSize characters.
	ErrLinkContentOversize = errors.New("link content exceeds maximum size")

	// ErrUnknownAlias is returned when a construction references an alias that was never declared.
	ErrUnknownAlias = errors.New("unknown alias")
)

// Addr is an opaque handle naming a graph element. The zero value names no element.
type Addr uint64

// IsValid reports whether the address names an element.
func (a Addr) IsValid() bool {
	return a != 0
}

func (a Addr) String() string {
	return "ScAddr(" + strconv.FormatUint(uint64(a), 10) + ")"
}

// Addrs converts raw server values into addresses.
func Addrs(values []uint64) []Addr {
	out := make([]Addr, len(values))
	for i, v := range values {
		out[i] = Addr(v)
	}
	return out
}
