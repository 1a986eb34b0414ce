package executor

import (
	"encoding/json"
	"fmt"

	"github.com/luciancaetano/scnet/sc"
)

// Wire names used inside request payloads.
const (
	elNode = "node"
	elEdge = "edge"
	elLink = "link"

	refAddr = "addr"
	refRef  = "ref"

	contentSet                 = "set"
	contentGet                 = "get"
	contentFind                = "find"
	contentFindLinksBySubstr   = "find_links_by_substr"
	contentFindStringsBySubstr = "find_strings_by_substr"

	keynodeFind    = "find"
	keynodeResolve = "resolve"

	templItemAddr  = "addr"
	templItemType  = "type"
	templItemAlias = "alias"
	templItemIdtf  = "idtf"
)

type constructionRef struct {
	Type  string `json:"type"`
	Value uint64 `json:"value"`
}

type constructionItem struct {
	El          string           `json:"el"`
	Type        sc.Type          `json:"type"`
	Src         *constructionRef `json:"src,omitempty"`
	Trg         *constructionRef `json:"trg,omitempty"`
	Content     any              `json:"content,omitempty"`
	ContentType string           `json:"content_type,omitempty"`
}

type scsItem struct {
	SCs             string `json:"scs"`
	OutputStructure uint64 `json:"output_structure"`
}

type contentItem struct {
	Command string `json:"command"`
	Type    string `json:"type,omitempty"`
	Data    any    `json:"data,omitempty"`
	Addr    uint64 `json:"addr,omitempty"`
}

// contentValue is one entry of a get response.
type contentValue struct {
	Value json.RawMessage `json:"value"`
	Type  string          `json:"type"`
}

type keynodeItem struct {
	Command string  `json:"command"`
	Idtf    string  `json:"idtf"`
	ElType  sc.Type `json:"elType,omitempty"`
}

type templateItem struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
	Alias string `json:"alias,omitempty"`
}

type templateRequest struct {
	Templ  any            `json:"templ"`
	Params map[string]any `json:"params,omitempty"`
}

type searchTemplateResult struct {
	Aliases map[string]int `json:"aliases"`
	Addrs   [][]uint64     `json:"addrs"`
}

type generateTemplateResult struct {
	Aliases map[string]int `json:"aliases"`
	Addrs   []uint64       `json:"addrs"`
}

type eventItem struct {
	Type sc.EventType `json:"type"`
	Addr uint64       `json:"addr"`
}

// decodeContent converts a get response entry into LinkContent bound to addr.
func decodeContent(v contentValue, addr sc.Addr) (sc.LinkContent, error) {
	t, err := sc.ParseLinkContentType(v.Type)
	if err != nil {
		return sc.LinkContent{}, err
	}

	var data any
	switch t {
	case sc.LinkContentInt:
		var n int64
		err = json.Unmarshal(v.Value, &n)
		data = n
	case sc.LinkContentFloat:
		var f float64
		err = json.Unmarshal(v.Value, &f)
		data = f
	default:
		var s string
		err = json.Unmarshal(v.Value, &s)
		data = s
	}
	if err != nil {
		return sc.LinkContent{}, fmt.Errorf("decode %s content of %s: %w", t, addr, err)
	}
	return sc.LinkContent{Data: data, Type: t, Addr: addr}, nil
}
