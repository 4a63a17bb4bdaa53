package directive

import (
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/resolver"
)

// ContentFormData is the media type of @requestFormDataBody payloads.
const ContentFormData = "multipart/form-data"

// ParseBody converts a @requestBody / @responseBody payload into content.
// A JSON object or array literal is converted structurally, with marker
// leaves ("<Name>", "<Name[]>") turned into references; any other payload is
// handed to the resolver as a reference marker. A payload that is neither
// yields nil.
func (p *Parser) ParseBody(payload string) map[string]*openapi.MediaType {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil
	}

	v, ok := decodeJSON(payload)
	if !ok {
		return p.resolver.ParseRef(payload)
	}

	var schema *openapi.Schema
	if arr, isArray := v.([]any); isArray {
		schema = openapi.ArrayOf(p.arrayItems(arr))
	} else {
		schema = p.objectSchema(v.(map[string]any))
	}

	return map[string]*openapi.MediaType{
		resolver.ContentJSON: {
			Schema:  schema,
			Example: p.resolver.JSONToRef(v),
		},
	}
}

// ParseResponseBody parses "status - payload - description".
func (p *Parser) ParseResponseBody(line string) (string, *openapi.Response, bool) {
	segments := splitSegments(trimKeyword(strings.TrimSpace(line), KeywordResponseBody), 3)
	status, payload, desc := segments[0], segments[1], segments[2]
	if status == "" {
		p.logger.Debug("malformed response body directive", zap.String("line", line))
		return "", nil, false
	}

	return status, &openapi.Response{
		Description: desc,
		Content:     p.ParseBody(payload),
	}, true
}

// ParseFormDataBody parses a @requestFormDataBody payload into a
// multipart/form-data request body.
//
// JSON payloads map field name to property schema; a property carrying
// "required": "true" is listed as required. A reference marker keeps the
// referenced schema's properties that appear in its rendered example, each
// reduced to {type, format} (both defaulting to "string"); example keys the
// schema does not declare are appended with a guessed type.
func (p *Parser) ParseFormDataBody(line string) (*openapi.RequestBody, bool) {
	payload := trimKeyword(strings.TrimSpace(line), KeywordFormDataBody)

	var (
		props    map[string]*openapi.Schema
		required []string
		ok       bool
	)
	if v, isJSON := decodeJSON(payload); isJSON {
		obj, isObject := v.(map[string]any)
		if !isObject {
			p.logger.Debug("form data body is not an object", zap.String("line", line))
			return nil, false
		}
		props, required = p.formDataFromJSON(obj)
		ok = true
	} else {
		props, required, ok = p.formDataFromRef(payload)
	}
	if !ok {
		p.logger.Debug("unresolvable form data body", zap.String("line", line))
		return nil, false
	}

	return &openapi.RequestBody{
		Content: map[string]*openapi.MediaType{
			ContentFormData: {
				Schema: &openapi.Schema{
					Type:       "object",
					Properties: props,
					Required:   required,
				},
			},
		},
	}, true
}

func (p *Parser) formDataFromJSON(obj map[string]any) (map[string]*openapi.Schema, []string) {
	props := make(map[string]*openapi.Schema, len(obj))
	var required []string

	for _, key := range sortedKeys(obj) {
		field, isMap := obj[key].(map[string]any)
		if !isMap {
			props[key] = &openapi.Schema{Type: guessType(obj[key]), Example: obj[key]}
			continue
		}

		field = maps.Clone(field)
		if r, has := field["required"]; has {
			if r == "true" || r == true {
				required = append(required, key)
			}
			delete(field, "required")
		}

		s := &openapi.Schema{}
		if err := s.Merge(field); err != nil {
			p.logger.Debug("invalid form data property", zap.String("field", key), zap.Error(err))
			s = &openapi.Schema{Type: "string"}
		}
		props[key] = s
	}

	return props, required
}

func (p *Parser) formDataFromRef(payload string) (map[string]*openapi.Schema, []string, bool) {
	marker, ok := resolver.ParseMarker(payload)
	if !ok {
		return nil, nil, false
	}
	ref, ok := p.resolver.Lookup(marker.Name)
	if !ok {
		return nil, nil, false
	}

	example, _ := p.resolver.ParseRefExample(payload).(map[string]any)
	props := make(map[string]*openapi.Schema)
	var required []string

	for _, key := range sortedKeys(ref.Properties) {
		if _, present := example[key]; !present {
			continue
		}
		prop := ref.Properties[key]
		s := &openapi.Schema{Type: "string", Format: "string"}
		if prop != nil && prop.Type != "" {
			s.Type = prop.Type
		}
		if prop != nil && prop.Format != "" {
			s.Format = prop.Format
		}
		props[key] = s
		if ref.IsRequired(key) {
			required = append(required, key)
		}
	}

	for _, key := range sortedKeys(example) {
		if _, declared := ref.Properties[key]; declared {
			continue
		}
		props[key] = &openapi.Schema{Type: guessType(example[key]), Example: example[key]}
	}

	return props, required, true
}

// objectSchema converts a JSON object literal into an object schema.
func (p *Parser) objectSchema(obj map[string]any) *openapi.Schema {
	s := &openapi.Schema{
		Type:       "object",
		Properties: make(map[string]*openapi.Schema, len(obj)),
	}
	for key, v := range obj {
		s.Properties[key] = p.valueSchema(v)
	}
	return s
}

func (p *Parser) valueSchema(v any) *openapi.Schema {
	switch t := v.(type) {
	case map[string]any:
		return p.objectSchema(t)
	case []any:
		return openapi.ArrayOf(p.arrayItems(t))
	case string:
		if resolver.IsMarker(t) {
			if ref, ok := p.resolver.RefSchema(t); ok {
				return ref
			}
		}
	}
	return &openapi.Schema{Type: guessType(v), Example: v}
}

// arrayItems builds the items schema of a JSON array literal. String items
// that are reference markers become a single $ref, or oneOf over the
// distinct references; otherwise the first element decides the item type.
func (p *Parser) arrayItems(arr []any) *openapi.Schema {
	if len(arr) == 0 {
		return &openapi.Schema{}
	}

	if _, isString := arr[0].(string); isString {
		var refs []string
		for _, item := range arr {
			str, ok := item.(string)
			if !ok || !resolver.IsMarker(str) {
				continue
			}
			ref, ok := p.resolver.RefSchema(str)
			if !ok || ref.Ref == "" {
				continue
			}
			if !slices.Contains(refs, ref.Ref) {
				refs = append(refs, ref.Ref)
			}
		}

		switch len(refs) {
		case 0:
		case 1:
			return &openapi.Schema{Ref: refs[0]}
		default:
			items := &openapi.Schema{}
			for _, ref := range refs {
				items.OneOf = append(items.OneOf, &openapi.Schema{Ref: ref})
			}
			return items
		}
	}

	if obj, isObject := arr[0].(map[string]any); isObject {
		return p.objectSchema(obj)
	}

	return &openapi.Schema{Type: guessType(arr[0])}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
