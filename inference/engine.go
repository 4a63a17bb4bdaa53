package inference

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/resolver"
	"github.com/vitalvas/autoswag/rules"
)

// Failure categories reported by DefaultMessages.
const (
	CategoryType     = "TYPE"
	CategoryFormat   = "FORMAT"
	CategoryRequired = "REQUIRED"
)

// DefaultMessages maps rule families to failure categories.
var DefaultMessages = rules.Messages{
	rules.RuleString:   CategoryType,
	rules.RuleNumber:   CategoryType,
	rules.RuleBoolean:  CategoryType,
	rules.RuleObject:   CategoryType,
	rules.RuleArray:    CategoryType,
	rules.RuleRequired: CategoryRequired,
	"email":            CategoryFormat,
	"url":              CategoryFormat,
	"uuid":             CategoryFormat,
	"ip":               CategoryFormat,
	"ipv4":             CategoryFormat,
	"ipv6":             CategoryFormat,
	"hostname":         CategoryFormat,
	"e164":             CategoryFormat,
	"hexcolor":         CategoryFormat,
}

// Validator is the probing surface the engine needs.
type Validator interface {
	Describe() (*rules.FieldNode, rules.RuleTable)
	TryValidate(ctx context.Context, value any, msgs rules.Messages) ([]rules.ProbeError, error)
}

// Engine infers schemas from validators.
type Engine struct {
	messages rules.Messages
	logger   *zap.Logger
}

// New creates an engine using DefaultMessages.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{messages: DefaultMessages, logger: logger}
}

// Infer returns the object schema of v with the refined hypothesis as its
// example. The only error is a cancelled context.
func (e *Engine) Infer(ctx context.Context, v Validator) (*openapi.Schema, error) {
	root, table := v.Describe()
	schema := objectSchema(root, table)
	hypothesis := hypothesize(schema)

	failures, err := v.TryValidate(ctx, hypothesis, e.messages)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("validator probed", zap.Int("failures", len(failures)))

	for _, f := range failures {
		refine(schema, hypothesis, f)
	}

	schema.Example = hypothesis
	return schema, nil
}

func objectSchema(node *rules.FieldNode, table rules.RuleTable) *openapi.Schema {
	s := &openapi.Schema{
		Type:       "object",
		Properties: make(map[string]*openapi.Schema, len(node.Children)),
	}
	for _, child := range node.Children {
		s.Properties[child.FieldName] = fieldSchema(child, table)
		if !child.Optional {
			s.Required = append(s.Required, child.FieldName)
		}
	}
	return s
}

func fieldSchema(node *rules.FieldNode, table rules.RuleTable) *openapi.Schema {
	switch node.Type {
	case rules.TypeObject:
		return objectSchema(node, table)
	case rules.TypeArray:
		if node.Each == nil {
			return openapi.ArrayOf(&openapi.Schema{Type: "number"})
		}
		if node.Each.Type == rules.TypeObject {
			return openapi.ArrayOf(objectSchema(node.Each, table))
		}
		return openapi.ArrayOf(scalarSchema(node.Each, table))
	default:
		return scalarSchema(node, table)
	}
}

// scalarSchema seeds a scalar from its rule options. The example is the
// explicit example, the first choice, the minimum, the maximum or a random
// number, in that order; the type follows the example and defaults to number.
func scalarSchema(node *rules.FieldNode, table rules.RuleTable) *openapi.Schema {
	s := &openapi.Schema{}
	var example any

	for _, ref := range node.Rules {
		opts, ok := table[ref.ID]
		if !ok {
			continue
		}
		if opts.Min != nil {
			s.Minimum = float64Ptr(*opts.Min)
		}
		if opts.Max != nil {
			s.Maximum = float64Ptr(*opts.Max)
		}
		if len(opts.Choices) > 0 {
			s.Enum = append([]any(nil), opts.Choices...)
		}
		if opts.Pattern != "" {
			s.Pattern = opts.Pattern
		}
		if opts.Example != nil {
			example = opts.Example
		}
	}

	switch {
	case example != nil:
	case len(s.Enum) > 0:
		example = s.Enum[0]
	case s.Minimum != nil:
		example = *s.Minimum
	case s.Maximum != nil:
		example = *s.Maximum
	default:
		example = rand.IntN(1000)
	}
	s.Example = example
	s.Type = typeOf(example)

	return s
}

func typeOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	return "number"
}

// hypothesize derives the test value of a schema.
func hypothesize(s *openapi.Schema) any {
	switch s.Type {
	case "object":
		obj := make(map[string]any, len(s.Properties))
		for key, prop := range s.Properties {
			obj[key] = hypothesize(prop)
		}
		return obj
	case "array":
		if s.Items == nil {
			return []any{}
		}
		if s.Items.Type == "object" {
			return []any{hypothesize(s.Items)}
		}
		return []any{s.Items.Example}
	default:
		return s.Example
	}
}

// refine applies one probe failure to the schema and the hypothesis.
func refine(schema *openapi.Schema, hypothesis any, f rules.ProbeError) {
	path := strings.Split(f.Field, ".")
	target := locate(schema, path)
	if target == nil {
		return
	}

	switch f.Message {
	case CategoryType:
		example, _ := resolver.ExampleByType(f.Rule)
		target.Type = f.Rule
		target.Example = example
		if f.Rule == "string" {
			if target.Minimum != nil {
				target.MinLength = intPtr(int(*target.Minimum))
				target.Minimum = nil
			}
			if target.Maximum != nil {
				target.MaxLength = intPtr(int(*target.Maximum))
				target.Maximum = nil
			}
		}
		setPath(hypothesis, path, example)
	case CategoryFormat:
		example := resolver.ExampleByFormat(f.Rule)
		target.Type = "string"
		target.Format = f.Rule
		target.Example = example
		setPath(hypothesis, path, example)
	}
}

// locate resolves a dotted error path against the schema. Numeric segments
// address array items.
func locate(s *openapi.Schema, path []string) *openapi.Schema {
	cur := s
	for _, seg := range path {
		if cur == nil {
			return nil
		}
		if _, err := strconv.Atoi(seg); err == nil {
			cur = cur.Items
			continue
		}
		cur = cur.Properties[seg]
	}
	return cur
}

func setPath(root any, path []string, value any) {
	cur := root
	for i, seg := range path {
		last := i == len(path)-1

		switch c := cur.(type) {
		case map[string]any:
			if last {
				c[seg] = value
				return
			}
			cur = c[seg]
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return
			}
			if last {
				c[idx] = value
				return
			}
			cur = c[idx]
		default:
			return
		}
	}
}

func float64Ptr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
