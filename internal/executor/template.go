package executor

import (
	"context"
	"fmt"

	"github.com/luciancaetano/scnet"
	"github.com/luciancaetano/scnet/sc"
)

// SearchByTemplate returns every match of template. template is a *sc.Template,
// SCs text, an sc.TemplateIdtf or the sc.Addr of a stored template.
func (e *Executor) SearchByTemplate(ctx context.Context, template any, params sc.TemplateParams) ([]*sc.TemplateResult, error) {
	payload, err := encodeTemplateRequest(template, params)
	if err != nil {
		return nil, err
	}
	resp, err := e.call(ctx, scnet.TypeSearchTemplate, payload)
	if resp == nil || err != nil {
		return nil, err
	}
	result, err := decode[searchTemplateResult](resp, scnet.TypeSearchTemplate)
	if err != nil {
		return nil, err
	}

	out := make([]*sc.TemplateResult, len(result.Addrs))
	for i, addrs := range result.Addrs {
		out[i] = sc.NewTemplateResult(sc.Addrs(addrs), result.Aliases)
	}
	return out, nil
}

// GenerateByTemplate generates the elements of template and returns them.
func (e *Executor) GenerateByTemplate(ctx context.Context, template any, params sc.TemplateParams) (*sc.TemplateResult, error) {
	payload, err := encodeTemplateRequest(template, params)
	if err != nil {
		return nil, err
	}
	resp, err := e.call(ctx, scnet.TypeGenerateTemplate, payload)
	if resp == nil || err != nil {
		return nil, err
	}
	result, err := decode[generateTemplateResult](resp, scnet.TypeGenerateTemplate)
	if err != nil {
		return nil, err
	}
	return sc.NewTemplateResult(sc.Addrs(result.Addrs), result.Aliases), nil
}

func encodeTemplateRequest(template any, params sc.TemplateParams) (templateRequest, error) {
	templ, err := encodeTemplate(template)
	if err != nil {
		return templateRequest{}, err
	}
	encoded, err := encodeTemplateParams(params)
	if err != nil {
		return templateRequest{}, err
	}
	return templateRequest{Templ: templ, Params: encoded}, nil
}

func encodeTemplate(template any) (any, error) {
	switch t := template.(type) {
	case *sc.Template:
		if t == nil {
			return nil, fmt.Errorf("%w: template is nil", sc.ErrInvalidType)
		}
		return encodeTriples(t.Triples()), nil
	case sc.Template:
		return encodeTriples(t.Triples()), nil
	case string:
		return t, nil
	case sc.TemplateIdtf:
		return templateItem{Type: templItemIdtf, Value: string(t)}, nil
	case sc.Addr:
		return templateItem{Type: templItemAddr, Value: uint64(t)}, nil
	}
	return nil, fmt.Errorf("%w: template must be *sc.Template, string, sc.TemplateIdtf or sc.Addr, got %T", sc.ErrInvalidType, template)
}

func encodeTriples(triples [][3]sc.TemplateValue) [][3]templateItem {
	out := make([][3]templateItem, len(triples))
	for i, triple := range triples {
		for j, v := range triple {
			out[i][j] = encodeTemplateValue(v)
		}
	}
	return out
}

func encodeTemplateValue(v sc.TemplateValue) templateItem {
	switch v.Kind {
	case sc.TemplateAddr:
		return templateItem{Type: templItemAddr, Value: uint64(v.Addr), Alias: v.Name}
	case sc.TemplateType:
		return templateItem{Type: templItemType, Value: v.Type, Alias: v.Name}
	default:
		return templateItem{Type: templItemAlias, Value: v.Ref}
	}
}

// encodeTemplateParams binds aliases to addresses or system identifiers.
func encodeTemplateParams(params sc.TemplateParams) (map[string]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(params))
	for alias, v := range params {
		switch x := v.(type) {
		case sc.Addr:
			out[alias] = uint64(x)
		case string:
			out[alias] = x
		default:
			return nil, fmt.Errorf("%w: template param %q must be sc.Addr or string, got %T", sc.ErrInvalidType, alias, v)
		}
	}
	return out, nil
}
