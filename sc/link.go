package sc

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// LinkContentMaxSize is the maximum textual size of link content, in characters.
const LinkContentMaxSize = 1 << 20

// LinkContentType describes the scalar kind stored in a link.
type LinkContentType int

const (
	LinkContentInt LinkContentType = iota
	LinkContentFloat
	LinkContentString
)

func (t LinkContentType) String() string {
	switch t {
	case LinkContentInt:
		return "int"
	case LinkContentFloat:
		return "float"
	case LinkContentString:
		return "string"
	default:
		return "LinkContentType(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseLinkContentType maps the wire name of a content type back to its value.
func ParseLinkContentType(s string) (LinkContentType, error) {
	switch s {
	case "int":
		return LinkContentInt, nil
	case "float":
		return LinkContentFloat, nil
	case "string":
		return LinkContentString, nil
	}
	return 0, fmt.Errorf("%w: unknown link content type %q", ErrInvalidType, s)
}

// LinkContent is the scalar content of a link, optionally bound to the link's address.
type LinkContent struct {
	Data any
	Type LinkContentType
	Addr Addr
}

// NewLinkContent validates data against t and the size ceiling.
// Data must be a string, an integer or a float64; integers are normalized to int64.
func NewLinkContent(data any, t LinkContentType, addr Addr) (LinkContent, error) {
	normalized, err := NormalizeContentData(data)
	if err != nil {
		return LinkContent{}, err
	}
	if t < LinkContentInt || t > LinkContentString {
		return LinkContent{}, fmt.Errorf("%w: %s", ErrInvalidType, t)
	}
	return LinkContent{Data: normalized, Type: t, Addr: addr}, nil
}

// StringContent is shorthand for NewLinkContent(s, LinkContentString, addr).
func StringContent(s string, addr Addr) (LinkContent, error) {
	return NewLinkContent(s, LinkContentString, addr)
}

// NormalizeContentData returns data as string, int64 or float64. Strings longer
// than LinkContentMaxSize characters fail with ErrLinkContentOversize.
func NormalizeContentData(data any) (any, error) {
	switch v := data.(type) {
	case string:
		if n := utf8.RuneCountInString(v); n > LinkContentMaxSize {
			return nil, fmt.Errorf("%w: %d > %d characters", ErrLinkContentOversize, n, LinkContentMaxSize)
		}
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return nil, fmt.Errorf("%w: link content data must be string, int or float, got %T", ErrInvalidType, data)
}

// ContentData extracts search data from a LinkContent or from raw scalar data.
func ContentData(v any) (any, error) {
	switch c := v.(type) {
	case LinkContent:
		return NormalizeContentData(c.Data)
	case *LinkContent:
		if c == nil {
			return nil, fmt.Errorf("%w: link content is nil", ErrInvalidType)
		}
		return NormalizeContentData(c.Data)
	}
	return NormalizeContentData(v)
}
