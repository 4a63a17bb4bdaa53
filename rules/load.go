package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownType is returned for a definition with an unsupported type.
var ErrUnknownType = errors.New("unknown field type")

// Definition is the file form of a validator node.
//
//	CreateUserValidator:
//	  fields:
//	    email: {type: string, format: email}
//	    age: {type: number, min: 18, optional: true}
//	    tags: {type: array, each: {type: string}}
type Definition struct {
	Type     string        `yaml:"type"`
	Format   string        `yaml:"format"`
	Min      *float64      `yaml:"min"`
	Max      *float64      `yaml:"max"`
	Choices  []any         `yaml:"choices"`
	Pattern  string        `yaml:"pattern"`
	Example  any           `yaml:"example"`
	Optional bool          `yaml:"optional"`
	Each     *Definition   `yaml:"each"`
	Fields   OrderedFields `yaml:"fields"`
}

// NamedDefinition is a definition and its key.
type NamedDefinition struct {
	Name       string
	Definition *Definition
}

// OrderedFields decodes a YAML mapping of definitions keeping key order.
type OrderedFields []NamedDefinition

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *OrderedFields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of fields", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		def := &Definition{}
		if err := value.Decode(def); err != nil {
			return fmt.Errorf("field %q: %w", key.Value, err)
		}
		*o = append(*o, NamedDefinition{Name: key.Value, Definition: def})
	}
	return nil
}

// Named is a compiled validator and its name.
type Named struct {
	Name      string
	Validator *Validator
}

// Parse decodes a validator definition document. Every top-level key is one
// validator; a definition without a type is an object.
func Parse(data []byte) ([]Named, error) {
	var defs OrderedFields
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, err
	}

	out := make([]Named, 0, len(defs))
	for _, nd := range defs {
		s, err := nd.Definition.Schema()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", nd.Name, err)
		}
		v, err := New(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", nd.Name, err)
		}
		out = append(out, Named{Name: nd.Name, Validator: v})
	}
	return out, nil
}

// LoadFile reads and parses a validator definition file.
func LoadFile(path string) ([]Named, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	named, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return named, nil
}

// Schema converts the definition into a DSL node.
func (d *Definition) Schema() (*Schema, error) {
	var s *Schema

	switch d.Type {
	case "", "object":
		fields := make([]Field, 0, len(d.Fields))
		for _, nd := range d.Fields {
			child, err := nd.Definition.Schema()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", nd.Name, err)
			}
			fields = append(fields, F(nd.Name, child))
		}
		s = Object(fields...)
	case "array":
		if d.Each == nil {
			return nil, fmt.Errorf("array without each: %w", ErrUnknownType)
		}
		each, err := d.Each.Schema()
		if err != nil {
			return nil, err
		}
		s = Array(each)
	case "string":
		s = String()
	case "number", "integer":
		s = Number()
	case "boolean":
		s = Boolean()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, d.Type)
	}

	if d.Format != "" {
		s.Format(d.Format)
	}
	if d.Min != nil {
		s.Min(*d.Min)
	}
	if d.Max != nil {
		s.Max(*d.Max)
	}
	if len(d.Choices) > 0 {
		s.In(d.Choices...)
	}
	if d.Pattern != "" {
		s.Regex(d.Pattern)
	}
	if d.Example != nil {
		s.Example(d.Example)
	}
	if d.Optional {
		s.Optional()
	}

	return s, nil
}
