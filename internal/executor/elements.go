package executor

import (
	"context"
	"fmt"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/sc"
)

// GetElementsTypes returns the type of every address, Unknown for missing elements.
func (e *Executor) GetElementsTypes(ctx context.Context, addrs ...sc.Addr) ([]sc.Type, error) {
	resp, err := e.call(ctx, scnet.TypeCheckElements, addrValues(addrs))
	if resp == nil || err != nil {
		return nil, err
	}
	return decode[[]sc.Type](resp, scnet.TypeCheckElements)
}

// GenerateElements generates the construction in one request and returns the new
// addresses in command order.
func (e *Executor) GenerateElements(ctx context.Context, c *sc.Construction) ([]sc.Addr, error) {
	payload, err := encodeConstruction(c)
	if err != nil {
		return nil, err
	}
	resp, err := e.call(ctx, scnet.TypeGenerateElements, payload)
	if resp == nil || err != nil {
		return nil, err
	}
	values, err := decode[[]uint64](resp, scnet.TypeGenerateElements)
	if err != nil {
		return nil, err
	}
	return sc.Addrs(values), nil
}

// GenerateElementsBySCs generates each SCs fragment and reports per fragment success.
func (e *Executor) GenerateElementsBySCs(ctx context.Context, texts []sc.SCs) ([]bool, error) {
	payload := make([]scsItem, len(texts))
	for i, t := range texts {
		payload[i] = scsItem{SCs: t.Text, OutputStructure: uint64(t.OutputStruct)}
	}
	resp, err := e.call(ctx, scnet.TypeGenerateElementsBySCs, payload)
	if resp == nil || err != nil {
		return nil, err
	}
	return decode[[]bool](resp, scnet.TypeGenerateElementsBySCs)
}

// EraseElements erases every address and reports whether the server accepted it.
func (e *Executor) EraseElements(ctx context.Context, addrs ...sc.Addr) (bool, error) {
	resp, err := e.call(ctx, scnet.TypeEraseElements, addrValues(addrs))
	if resp == nil || err != nil {
		return false, err
	}
	return true, nil
}

func encodeConstruction(c *sc.Construction) ([]constructionItem, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: construction is nil", sc.ErrInvalidType)
	}

	commands := c.Commands()
	items := make([]constructionItem, len(commands))
	for i, cmd := range commands {
		switch cmd.Kind {
		case sc.CommandNode:
			if !cmd.Type.IsNode() {
				return nil, fmt.Errorf("%w: command %d: %s is not a node type", sc.ErrInvalidType, i, cmd.Type)
			}
			items[i] = constructionItem{El: elNode, Type: cmd.Type}
		case sc.CommandConnector:
			if !cmd.Type.IsConnector() {
				return nil, fmt.Errorf("%w: command %d: %s is not a connector type", sc.ErrInvalidType, i, cmd.Type)
			}
			src, err := encodeRef(c, cmd.Source, i)
			if err != nil {
				return nil, err
			}
			trg, err := encodeRef(c, cmd.Target, i)
			if err != nil {
				return nil, err
			}
			items[i] = constructionItem{El: elEdge, Type: cmd.Type, Src: src, Trg: trg}
		case sc.CommandLink:
			if !cmd.Type.IsLink() {
				return nil, fmt.Errorf("%w: command %d: %s is not a link type", sc.ErrInvalidType, i, cmd.Type)
			}
			data, err := sc.NormalizeContentData(cmd.Content.Data)
			if err != nil {
				return nil, fmt.Errorf("command %d: %w", i, err)
			}
			items[i] = constructionItem{El: elLink, Type: cmd.Type, Content: data, ContentType: cmd.Content.Type.String()}
		default:
			return nil, fmt.Errorf("%w: command %d: unknown kind %s", sc.ErrInvalidType, i, cmd.Kind)
		}
	}
	return items, nil
}

// encodeRef resolves a connector end. Aliases must name an earlier command.
func encodeRef(c *sc.Construction, r sc.Ref, at int) (*constructionRef, error) {
	if !r.IsAlias() {
		return &constructionRef{Type: refAddr, Value: uint64(r.Addr)}, nil
	}
	idx, err := c.GetIndex(r.Alias)
	if err != nil {
		return nil, fmt.Errorf("command %d: %w", at, err)
	}
	if idx >= at {
		return nil, fmt.Errorf("%w: command %d references %q declared at %d", sc.ErrUnknownAlias, at, r.Alias, idx)
	}
	return &constructionRef{Type: refRef, Value: uint64(idx)}, nil
}
