package executor

import (
	"context"
	"fmt"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/sc"
)

// ResolveKeynodes finds keynodes by system identifier. Params with a Type other
// than Unknown are generated when missing; the others resolve to the zero Addr.
func (e *Executor) ResolveKeynodes(ctx context.Context, params ...sc.IdtfResolveParams) ([]sc.Addr, error) {
	payload := make([]keynodeItem, len(params))
	for i, p := range params {
		if p.Idtf == "" {
			return nil, fmt.Errorf("%w: keynode %d has an empty identifier", sc.ErrInvalidType, i)
		}
		if p.Type == sc.Unknown {
			payload[i] = keynodeItem{Command: keynodeFind, Idtf: p.Idtf}
			continue
		}
		if !p.Type.IsNode() {
			return nil, fmt.Errorf("%w: keynode %q: %s is not a node type", sc.ErrInvalidType, p.Idtf, p.Type)
		}
		payload[i] = keynodeItem{Command: keynodeResolve, Idtf: p.Idtf, ElType: p.Type}
	}

	resp, err := e.call(ctx, scnet.TypeKeynodes, payload)
	if resp == nil || err != nil {
		return nil, err
	}
	values, err := decode[[]uint64](resp, scnet.TypeKeynodes)
	if err != nil {
		return nil, err
	}
	return sc.Addrs(values), nil
}
