package openapi

import (
	"encoding/json"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Schema is a schema node of the generated document. The variant is defined
// by the fields that are set:
//
//   - Reference: Ref only.
//   - Primitive: Type, optional Format and Example.
//   - Object: Type "object" with Properties and Required.
//   - Array: Type "array" with Items.
//
// Extra carries keys that have no dedicated field (for example vendor
// extensions merged from source annotations). They are flattened into the
// object on output and never override a dedicated field.
//
// See: https://spec.openapis.org/oas/v3.0.3#schema-object
type Schema struct {
	Ref string `json:"$ref,omitempty"`

	Type     string `json:"type,omitempty"`
	Format   string `json:"format,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Default     any    `json:"default,omitempty"`
	Example     any    `json:"example,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
	WriteOnly   bool   `json:"writeOnly,omitempty"`

	MultipleOf *float64 `json:"multipleOf,omitempty"`
	Minimum    *float64 `json:"minimum,omitempty"`
	Maximum    *float64 `json:"maximum,omitempty"`

	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	Items       *Schema `json:"items,omitempty"`
	MinItems    *int    `json:"minItems,omitempty"`
	MaxItems    *int    `json:"maxItems,omitempty"`
	UniqueItems bool    `json:"uniqueItems,omitempty"`

	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
	Required             []string           `json:"required,omitempty"`

	Enum []any `json:"enum,omitempty"`

	AllOf []*Schema `json:"allOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`

	Extra map[string]any `json:"-"`
}

// RefTo returns a reference node pointing at the named component schema.
//
// See: https://spec.openapis.org/oas/v3.0.3#reference-object
func RefTo(name string) *Schema {
	return &Schema{Ref: RefPrefix + name}
}

// ArrayOf wraps items into an array node.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: "array", Items: items}
}

// RefName returns the component name of a reference node, or "" when the
// node is not a component reference.
func (s *Schema) RefName() string {
	if s == nil {
		return ""
	}
	name, ok := strings.CutPrefix(s.Ref, RefPrefix)
	if !ok {
		return ""
	}
	return name
}

// IsRequired reports whether name is listed in Required.
func (s *Schema) IsRequired(name string) bool {
	return slices.Contains(s.Required, name)
}

// Clone returns a deep copy of the schema tree. Example values are copied
// when they are JSON-shaped maps or slices.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	c := *s
	c.Example = CloneValue(s.Example)
	c.Default = CloneValue(s.Default)
	c.Items = s.Items.Clone()
	c.AdditionalProperties = s.AdditionalProperties.Clone()
	if s.Properties != nil {
		c.Properties = make(map[string]*Schema, len(s.Properties))
		for k, v := range s.Properties {
			c.Properties[k] = v.Clone()
		}
	}
	c.Required = slices.Clone(s.Required)
	c.Enum = slices.Clone(s.Enum)
	c.AllOf = cloneAll(s.AllOf)
	c.OneOf = cloneAll(s.OneOf)
	c.AnyOf = cloneAll(s.AnyOf)
	if s.Extra != nil {
		c.Extra = maps.Clone(s.Extra)
	}
	for _, p := range []**float64{&c.MultipleOf, &c.Minimum, &c.Maximum} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	for _, p := range []**int{&c.MinLength, &c.MaxLength, &c.MinItems, &c.MaxItems} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return &c
}

func cloneAll(list []*Schema) []*Schema {
	if list == nil {
		return nil
	}
	out := make([]*Schema, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}

// CloneValue deep-copies JSON-shaped values (maps and slices); other values
// are returned as-is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = CloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = CloneValue(val)
		}
		return out
	default:
		return v
	}
}

// Merge overlays a JSON-shaped key set onto the schema. Keys matching a
// schema keyword replace that keyword; all other keys are kept in Extra.
func (s *Schema) Merge(props map[string]any) error {
	if len(props) == 0 {
		return nil
	}

	known := make(map[string]any, len(props))
	for k, v := range props {
		if _, ok := schemaKeywords()[k]; ok {
			known[k] = v
			continue
		}
		if s.Extra == nil {
			s.Extra = make(map[string]any)
		}
		s.Extra[k] = v
	}

	if len(known) == 0 {
		return nil
	}

	data, err := json.Marshal(known)
	if err != nil {
		return err
	}
	type plain Schema
	return json.Unmarshal(data, (*plain)(s))
}

// MarshalJSON encodes the schema and flattens Extra into the result.
//
// See: https://spec.openapis.org/oas/v3.0.3#specification-extensions
func (s Schema) MarshalJSON() ([]byte, error) {
	type plain Schema
	data, err := json.Marshal(plain(s))
	if err != nil || len(s.Extra) == 0 {
		return data, err
	}

	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range s.Extra {
		if _, ok := merged[k]; ok {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	return json.Marshal(merged)
}

var (
	keywordsOnce sync.Once
	keywords     map[string]struct{}
)

// schemaKeywords returns the JSON names of the dedicated Schema fields.
func schemaKeywords() map[string]struct{} {
	keywordsOnce.Do(func() {
		keywords = make(map[string]struct{})
		t := reflect.TypeOf(Schema{})
		for i := range t.NumField() {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			if name == "" || name == "-" {
				continue
			}
			keywords[name] = struct{}{}
		}
	})
	return keywords
}
