package directive

import (
	"maps"

	"github.com/vitalvas/autoswag/openapi"
)

// CommonDefinitions holds the shared parameter and header groups referenced
// by @paramUse(alias) and @responseHeader ... @use(alias). It is loaded once
// and only read while parsing.
type CommonDefinitions struct {
	Parameters map[string][]*openapi.Parameter        `json:"parameters,omitempty"`
	Headers    map[string]map[string]*openapi.Header `json:"headers,omitempty"`
}

// ExpandParameters concatenates the parameter groups registered under aliases,
// in alias order. Unknown aliases are skipped.
func (c *CommonDefinitions) ExpandParameters(aliases []string) []*openapi.Parameter {
	if c == nil {
		return nil
	}

	var out []*openapi.Parameter
	for _, alias := range aliases {
		group, ok := c.Parameters[alias]
		if !ok {
			continue
		}
		for _, p := range group {
			out = append(out, cloneParameter(p))
		}
	}
	return out
}

// ExpandHeaders unions the header groups registered under aliases. Later
// aliases win on header name collisions. Unknown aliases are skipped.
func (c *CommonDefinitions) ExpandHeaders(aliases []string) map[string]*openapi.Header {
	out := make(map[string]*openapi.Header)
	if c == nil {
		return out
	}

	for _, alias := range aliases {
		group, ok := c.Headers[alias]
		if !ok {
			continue
		}
		for name, h := range group {
			out[name] = cloneHeader(h)
		}
	}
	return out
}

func cloneParameter(p *openapi.Parameter) *openapi.Parameter {
	if p == nil {
		return nil
	}
	c := *p
	c.Schema = p.Schema.Clone()
	c.Example = openapi.CloneValue(p.Example)
	return &c
}

func cloneHeader(h *openapi.Header) *openapi.Header {
	if h == nil {
		return nil
	}
	c := *h
	c.Schema = h.Schema.Clone()
	c.Example = openapi.CloneValue(h.Example)
	return &c
}

func mergeHeaders(dst, src map[string]*openapi.Header) map[string]*openapi.Header {
	if dst == nil {
		dst = make(map[string]*openapi.Header, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
