package sc

import (
	"fmt"
	"strconv"
)

// TemplateValueKind tells how a template item is matched.
type TemplateValueKind int

const (
	TemplateAddr TemplateValueKind = iota
	TemplateType
	TemplateAlias
)

func (k TemplateValueKind) String() string {
	switch k {
	case TemplateAddr:
		return "addr"
	case TemplateType:
		return "type"
	case TemplateAlias:
		return "alias"
	}
	return "unknown"
}

// TemplateValue is one position of a template triple: a fixed address, a type to
// match, or a reference to an alias named elsewhere in the template. Name, when
// set, exposes the matched element under that alias in results.
type TemplateValue struct {
	Kind TemplateValueKind
	Addr Addr
	Type Type
	Ref  string
	Name string
}

// NamedType matches any element of type t and names it alias.
func NamedType(t Type, alias string) TemplateValue {
	return TemplateValue{Kind: TemplateType, Type: t, Name: alias}
}

// NamedAddr matches addr and names it alias.
func NamedAddr(a Addr, alias string) TemplateValue {
	return TemplateValue{Kind: TemplateAddr, Addr: a, Name: alias}
}

// TemplateValueOf converts an Addr, a Type, an alias reference string or a
// TemplateValue into a TemplateValue.
func TemplateValueOf(v any) (TemplateValue, error) {
	switch x := v.(type) {
	case TemplateValue:
		return x, nil
	case Addr:
		return TemplateValue{Kind: TemplateAddr, Addr: x}, nil
	case Type:
		return TemplateValue{Kind: TemplateType, Type: x}, nil
	case string:
		return TemplateValue{Kind: TemplateAlias, Ref: x}, nil
	}
	return TemplateValue{}, fmt.Errorf("%w: template value must be Addr, Type, alias or TemplateValue, got %T", ErrInvalidType, v)
}

// Template is a pattern over triples used for search or generation.
type Template struct {
	triples [][3]TemplateValue
}

func NewTemplate() *Template {
	return &Template{}
}

// Triple appends a source-connector-target pattern.
func (t *Template) Triple(source, connector, target any) error {
	var triple [3]TemplateValue
	for i, v := range []any{source, connector, target} {
		tv, err := TemplateValueOf(v)
		if err != nil {
			return err
		}
		triple[i] = tv
	}
	t.triples = append(t.triples, triple)
	return nil
}

// Quintuple appends a triple plus an attribute connector from attr to the triple's connector.
// An unnamed connector gets a generated alias.
func (t *Template) Quintuple(source, connector, target, attrConnector, attr any) error {
	conn, err := TemplateValueOf(connector)
	if err != nil {
		return err
	}
	if conn.Name == "" {
		conn.Name = "_connector_" + strconv.Itoa(len(t.triples))
	}
	if err := t.Triple(source, conn, target); err != nil {
		return err
	}
	if err := t.Triple(attr, attrConnector, conn.Name); err != nil {
		t.triples = t.triples[:len(t.triples)-1]
		return err
	}
	return nil
}

// Triples returns the patterns in insertion order.
func (t *Template) Triples() [][3]TemplateValue {
	return t.triples
}

// TemplateIdtf names a template stored in the knowledge base by system identifier.
type TemplateIdtf string

// TemplateParams binds template aliases to an Addr or a system identifier string.
type TemplateParams map[string]any

// TemplateResult is one match (search) or the generated elements (generate).
type TemplateResult struct {
	addrs   []Addr
	aliases map[string]int
}

func NewTemplateResult(addrs []Addr, aliases map[string]int) *TemplateResult {
	if aliases == nil {
		aliases = map[string]int{}
	}
	return &TemplateResult{addrs: addrs, aliases: aliases}
}

// Get returns the element bound to alias.
func (r *TemplateResult) Get(alias string) (Addr, bool) {
	idx, ok := r.aliases[alias]
	if !ok || idx < 0 || idx >= len(r.addrs) {
		return 0, false
	}
	return r.addrs[idx], true
}

// At returns the element at position i, or the zero Addr when out of range.
func (r *TemplateResult) At(i int) Addr {
	if i < 0 || i >= len(r.addrs) {
		return 0
	}
	return r.addrs[i]
}

func (r *TemplateResult) Len() int { return len(r.addrs) }

func (r *TemplateResult) Addrs() []Addr { return r.addrs }

func (r *TemplateResult) Aliases() map[string]int { return r.aliases }

// Triples groups the result addresses by template triple.
func (r *TemplateResult) Triples() [][3]Addr {
	out := make([][3]Addr, 0, len(r.addrs)/3)
	for i := 0; i+2 < len(r.addrs); i += 3 {
		out = append(out, [3]Addr{r.addrs[i], r.addrs[i+1], r.addrs[i+2]})
	}
	return out
}
