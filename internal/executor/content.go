package executor

import (
	"context"
	"fmt"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/sc"
)

// SetLinkContents replaces the content of each link named by LinkContent.Addr.
func (e *Executor) SetLinkContents(ctx context.Context, contents ...sc.LinkContent) (bool, error) {
	payload := make([]contentItem, len(contents))
	for i, c := range contents {
		data, err := sc.NormalizeContentData(c.Data)
		if err != nil {
			return false, fmt.Errorf("content %d: %w", i, err)
		}
		if !c.Addr.IsValid() {
			return false, fmt.Errorf("%w: content %d has no link address", sc.ErrInvalidType, i)
		}
		payload[i] = contentItem{Command: contentSet, Type: c.Type.String(), Data: data, Addr: uint64(c.Addr)}
	}

	resp, err := e.call(ctx, scnet.TypeContent, payload)
	if resp == nil || err != nil {
		return false, err
	}
	return true, nil
}

// GetLinkContent reads the content of each link.
func (e *Executor) GetLinkContent(ctx context.Context, addrs ...sc.Addr) ([]sc.LinkContent, error) {
	payload := make([]contentItem, len(addrs))
	for i, a := range addrs {
		payload[i] = contentItem{Command: contentGet, Addr: uint64(a)}
	}

	resp, err := e.call(ctx, scnet.TypeContent, payload)
	if resp == nil || err != nil {
		return nil, err
	}
	values, err := decode[[]contentValue](resp, scnet.TypeContent)
	if err != nil {
		return nil, err
	}

	out := make([]sc.LinkContent, len(values))
	for i, v := range values {
		var addr sc.Addr
		if i < len(addrs) {
			addr = addrs[i]
		}
		if out[i], err = decodeContent(v, addr); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SearchLinksByContents returns, per content, the links holding exactly that content.
// Each content is a LinkContent or raw string, integer or float data.
func (e *Executor) SearchLinksByContents(ctx context.Context, contents ...any) ([][]sc.Addr, error) {
	values, err := e.searchContent(ctx, contentFind, contents)
	if values == nil || err != nil {
		return nil, err
	}
	return addrLists(values), nil
}

// SearchLinksByContentsSubstrings returns, per content, the links whose content contains it.
func (e *Executor) SearchLinksByContentsSubstrings(ctx context.Context, contents ...any) ([][]sc.Addr, error) {
	values, err := e.searchContent(ctx, contentFindLinksBySubstr, contents)
	if values == nil || err != nil {
		return nil, err
	}
	return addrLists(values), nil
}

// SearchLinkContentsByContentSubstrings returns, per content, the raw identifiers the
// server reports for contents containing it. Unlike the other searches the values
// are not converted to addresses.
func (e *Executor) SearchLinkContentsByContentSubstrings(ctx context.Context, contents ...any) ([][]uint64, error) {
	return e.searchContent(ctx, contentFindStringsBySubstr, contents)
}

func (e *Executor) searchContent(ctx context.Context, command string, contents []any) ([][]uint64, error) {
	payload := make([]contentItem, len(contents))
	for i, c := range contents {
		data, err := sc.ContentData(c)
		if err != nil {
			return nil, fmt.Errorf("content %d: %w", i, err)
		}
		payload[i] = contentItem{Command: command, Data: data}
	}

	resp, err := e.call(ctx, scnet.TypeContent, payload)
	if resp == nil || err != nil {
		return nil, err
	}
	return decode[[][]uint64](resp, scnet.TypeContent)
}
