package resolver

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/vitalvas/autoswag/openapi"
)

// ContentJSON is the media type of every resolved envelope.
const ContentJSON = "application/json"

// PaginationMeta is the component name of the built-in pagination metadata
// schema used by the paginated() modifier.
const PaginationMeta = "PaginationMeta"

// maxRefDepth bounds how many references are followed while rendering a
// nested example, so cyclic relations terminate.
const maxRefDepth = 3

var primitiveTypes = map[string]struct{}{
	"string":  {},
	"number":  {},
	"integer": {},
	"boolean": {},
}

var modifierRegexp = regexp.MustCompile(`\.(\w+)\(([^()]*)\)`)

// Lookup resolves component schemas by name.
type Lookup interface {
	Lookup(name string) (*openapi.Schema, bool)
}

// Modifier is a call suffix attached to a marker, e.g. .exclude(password).
type Modifier struct {
	Name string
	Args string
}

// Marker is a parsed reference marker.
type Marker struct {
	Name      string
	Array     bool
	Modifiers []Modifier
}

// IsMarker reports whether s contains a reference marker.
func IsMarker(s string) bool {
	i := strings.Index(s, "<")
	return i >= 0 && strings.Contains(s[i:], ">")
}

// ParseMarker extracts the marker embedded in s.
func ParseMarker(s string) (Marker, bool) {
	start := strings.Index(s, "<")
	if start < 0 {
		return Marker{}, false
	}
	end := strings.Index(s[start:], ">")
	if end < 0 {
		return Marker{}, false
	}
	end += start

	name := strings.TrimSpace(s[start+1 : end])
	m := Marker{}
	if trimmed, ok := strings.CutSuffix(name, "[]"); ok {
		m.Array = true
		name = trimmed
	}
	if name == "" {
		return Marker{}, false
	}
	m.Name = name

	for _, match := range modifierRegexp.FindAllStringSubmatch(s[end+1:], -1) {
		m.Modifiers = append(m.Modifiers, Modifier{Name: match[1], Args: strings.TrimSpace(match[2])})
	}

	return m, true
}

func (m Marker) has(name string) bool {
	for _, mod := range m.Modifiers {
		if mod.Name == name {
			return true
		}
	}
	return false
}

// Resolver renders markers against the schema registry.
type Resolver struct {
	schemas Lookup
}

// New creates a resolver backed by schemas.
func New(schemas Lookup) *Resolver {
	return &Resolver{schemas: schemas}
}

// Lookup exposes the underlying schema lookup.
func (r *Resolver) Lookup(name string) (*openapi.Schema, bool) {
	if r.schemas == nil {
		return nil, false
	}
	return r.schemas.Lookup(name)
}

// ParseRef resolves a marker into a JSON content envelope:
// <Foo> becomes a $ref to Foo, <Foo[]> an array of that $ref, each with a
// rendered example. A string without a marker yields nil.
func (r *Resolver) ParseRef(marker string) map[string]*openapi.MediaType {
	m, ok := ParseMarker(marker)
	if !ok {
		return nil
	}

	media := &openapi.MediaType{Schema: r.markerSchema(m)}
	if ex := r.markerExample(m); ex != nil {
		media.Example = ex
	}

	return map[string]*openapi.MediaType{ContentJSON: media}
}

// ParseRefExample returns only the example value a marker resolves to. It is
// used when a referenced shape is embedded inside a larger literal.
func (r *Resolver) ParseRefExample(marker string) any {
	m, ok := ParseMarker(marker)
	if !ok {
		return nil
	}
	return r.markerExample(m)
}

// RefSchema returns the schema node for a marker without an example.
func (r *Resolver) RefSchema(marker string) (*openapi.Schema, bool) {
	m, ok := ParseMarker(marker)
	if !ok {
		return nil, false
	}
	return r.markerSchema(m), true
}

// JSONToRef walks a decoded JSON literal and replaces every marker string
// with the example it resolves to. The input is not modified.
func (r *Resolver) JSONToRef(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = r.JSONToRef(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = r.JSONToRef(val)
		}
		return out
	case string:
		if IsMarker(t) {
			return r.ParseRefExample(t)
		}
		return t
	default:
		return v
	}
}

// SchemaExample renders an example for schema, following references up to a
// fixed depth.
func (r *Resolver) SchemaExample(s *openapi.Schema) any {
	return r.schemaExample(s, 0)
}

func (r *Resolver) markerSchema(m Marker) *openapi.Schema {
	var item *openapi.Schema
	if _, ok := primitiveTypes[m.Name]; ok {
		item = &openapi.Schema{Type: m.Name}
	} else {
		item = openapi.RefTo(m.Name)
	}

	if m.has("paginated") {
		return &openapi.Schema{
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data": openapi.ArrayOf(item),
				"meta": openapi.RefTo(PaginationMeta),
			},
		}
	}

	if m.Array {
		return openapi.ArrayOf(item)
	}
	return item
}

func (r *Resolver) markerExample(m Marker) any {
	var ex any
	if _, ok := primitiveTypes[m.Name]; ok {
		ex, _ = ExampleByType(m.Name)
	} else {
		ex = r.namedExample(m.Name, 0)
	}
	ex = applyModifiers(ex, m.Modifiers)

	if m.has("paginated") {
		var meta any
		if s, ok := r.Lookup(PaginationMeta); ok {
			meta = r.schemaExample(s, 1)
		}
		return map[string]any{
			"data": wrapArray(ex),
			"meta": meta,
		}
	}

	if m.Array {
		return wrapArray(ex)
	}
	return ex
}

func wrapArray(ex any) []any {
	if ex == nil {
		return []any{}
	}
	return []any{ex}
}

func (r *Resolver) namedExample(name string, depth int) any {
	if depth > maxRefDepth {
		return nil
	}
	s, ok := r.Lookup(name)
	if !ok {
		return nil
	}
	return r.schemaExample(s, depth)
}

func (r *Resolver) schemaExample(s *openapi.Schema, depth int) any {
	if s == nil {
		return nil
	}
	if name := s.RefName(); name != "" {
		return r.namedExample(name, depth+1)
	}
	if s.Example != nil {
		return openapi.CloneValue(s.Example)
	}
	if len(s.Properties) > 0 {
		out := make(map[string]any, len(s.Properties))
		for key, prop := range s.Properties {
			if v := r.schemaExample(prop, depth); v != nil {
				out[key] = v
			}
		}
		return out
	}
	if s.Type == "array" {
		return wrapArray(r.schemaExample(s.Items, depth))
	}
	if len(s.Enum) > 0 {
		return s.Enum[0]
	}
	if len(s.OneOf) > 0 {
		return r.schemaExample(s.OneOf[0], depth)
	}
	if ex, ok := ExampleByType(s.Type); ok && s.Type != "" {
		return ex
	}
	return nil
}

// applyModifiers shapes an object example with only(), exclude() and append().
func applyModifiers(ex any, mods []Modifier) any {
	obj, ok := ex.(map[string]any)
	if !ok {
		return ex
	}

	for _, mod := range mods {
		switch mod.Name {
		case "only":
			keep := splitArgs(mod.Args)
			out := make(map[string]any, len(keep))
			for _, k := range keep {
				if v, ok := obj[k]; ok {
					out[k] = v
				}
			}
			obj = out
		case "exclude":
			for _, k := range splitArgs(mod.Args) {
				delete(obj, k)
			}
		case "append":
			extra := make(map[string]any)
			if err := json.Unmarshal([]byte("{"+mod.Args+"}"), &extra); err != nil {
				continue
			}
			for k, v := range extra {
				obj[k] = v
			}
		}
	}

	return obj
}

func splitArgs(args string) []string {
	var out []string
	for part := range strings.SplitSeq(args, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
