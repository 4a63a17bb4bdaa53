package source

import (
	"encoding/json"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/vitalvas/autoswag/directive"
	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/resolver"
)

var (
	interfaceRegexp = regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?interface\s+(\w+)(?:\s*<[^>]*>)?(?:\s+extends\s+([^{]+))?`)
	typeAliasRegexp = regexp.MustCompile(`^(?:export\s+)?type\s+(\w+)(?:\s*<[^>]*>)?\s*=\s*\{`)
	exampleRegexp   = regexp.MustCompile(`@example\((.*)\)`)
	stringLiteral   = regexp.MustCompile(`^(?:'[^']*'|"[^"]*")$`)
)

// declarationTypes are the primitive names mapped to a schema type.
var declarationTypes = map[string]struct{}{
	"string":  {},
	"number":  {},
	"boolean": {},
	"integer": {},
}

// Named is a parsed component schema and the name it is registered under.
type Named struct {
	Name   string
	Schema *openapi.Schema
}

// DeclarationParser converts interface and object type declarations into
// object schemas. Extended types are resolved against Schemas (the schemas
// registered so far) and against declarations earlier in the same file.
type DeclarationParser struct {
	Schemas resolver.Lookup
}

type objectFrame struct {
	name     string
	field    string
	optional bool
	extends  []string
	props    map[string]*openapi.Schema
	order    []string
	required []string
}

func newFrame(name string) *objectFrame {
	return &objectFrame{name: name, props: make(map[string]*openapi.Schema)}
}

func (f *objectFrame) set(key string, s *openapi.Schema, required bool) {
	if _, ok := f.props[key]; !ok {
		f.order = append(f.order, key)
	}
	f.props[key] = s
	f.required = slices.DeleteFunc(f.required, func(r string) bool { return r == key })
	if required {
		f.required = append(f.required, key)
	}
}

// Parse returns the declarations of text in source order.
func (p *DeclarationParser) Parse(text string) []Named {
	var (
		out   []Named
		local = make(map[string]*openapi.Schema)
		stack []*objectFrame
	)

	sc := NewScanner(text)
	for sc.Scan() {
		line, prev := sc.Text(), sc.Prev()

		if len(stack) == 0 {
			frame := openDeclaration(line)
			if frame == nil {
				continue
			}
			if strings.HasSuffix(line, "}") {
				s := p.finish(frame, local)
				local[frame.name] = s
				out = append(out, Named{Name: frame.name, Schema: s})
				continue
			}
			stack = append(stack, frame)
			continue
		}

		if isComment(line) {
			continue
		}

		top := stack[len(stack)-1]

		if strings.HasPrefix(line, "}") {
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				s := p.finish(top, local)
				local[top.name] = s
				out = append(out, Named{Name: top.name, Schema: s})
				continue
			}
			parent := stack[len(stack)-1]
			parent.set(top.field, nestedObject(top), !top.optional)
			continue
		}

		if i := strings.Index(line, "//"); i > 0 {
			line = strings.TrimSpace(line[:i])
		}
		field, typ, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		field = strings.TrimSpace(strings.TrimPrefix(field, "readonly "))
		typ = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(typ), ";"))

		optional := strings.HasSuffix(field, "?")
		key := strings.TrimSuffix(field, "?")
		if !identifierRegexp.MatchString(key) {
			continue
		}
		required := !optional || strings.Contains(prev, directive.FlagRequired)

		if typ == "{" {
			nested := newFrame(top.name)
			nested.field = key
			nested.optional = !required
			stack = append(stack, nested)
			continue
		}

		s := declarationType(typ, key, optional)
		if match := exampleRegexp.FindStringSubmatch(prev); match != nil {
			s.Example = literalExample(match[1], s.Type)
		}
		top.set(key, s, required)
	}

	return out
}

func openDeclaration(line string) *objectFrame {
	if match := interfaceRegexp.FindStringSubmatch(line); match != nil {
		frame := newFrame(match[1])
		for base := range strings.SplitSeq(match[2], ",") {
			if base = strings.TrimSpace(base); base != "" {
				frame.extends = append(frame.extends, base)
			}
		}
		return frame
	}
	if match := typeAliasRegexp.FindStringSubmatch(line); match != nil {
		return newFrame(match[1])
	}
	return nil
}

// finish merges inherited properties (base first, own declarations win) and
// builds the component schema.
func (p *DeclarationParser) finish(frame *objectFrame, local map[string]*openapi.Schema) *openapi.Schema {
	props := make(map[string]*openapi.Schema)
	var required []string
	names := make([]string, 0, len(frame.extends))

	for _, base := range frame.extends {
		names = append(names, cleanTypeName(base))

		s := p.lookupBase(base, local)
		if s == nil {
			continue
		}
		for key, prop := range s.Properties {
			props[key] = prop.Clone()
		}
		for _, key := range s.Required {
			if _, own := frame.props[key]; own || slices.Contains(required, key) {
				continue
			}
			required = append(required, key)
		}
	}

	for _, key := range frame.order {
		props[key] = frame.props[key]
	}
	for _, key := range frame.required {
		if !slices.Contains(required, key) {
			required = append(required, key)
		}
	}

	desc := frame.name
	if len(names) > 0 {
		desc += " extends " + strings.Join(names, ", ")
	}

	s := &openapi.Schema{
		Type:        "object",
		Properties:  props,
		Description: desc + " (Interface)",
	}
	if len(required) > 0 {
		s.Required = required
	}
	return s
}

// lookupBase resolves an extended type name, trying the raw name, the name
// without path prefix, ".ts" suffix and "#"/"@" alias marker, and the
// conventional model spellings.
func (p *DeclarationParser) lookupBase(raw string, local map[string]*openapi.Schema) *openapi.Schema {
	clean := cleanTypeName(raw)
	candidates := []string{
		raw,
		clean,
		"#models/" + clean,
		"models/" + clean,
		strings.TrimSuffix(clean, "Model"),
		clean + "Model",
	}

	for _, name := range candidates {
		if name == "" {
			continue
		}
		if s, ok := local[name]; ok && s.Properties != nil {
			return s
		}
		if p.Schemas == nil {
			continue
		}
		if s, ok := p.Schemas.Lookup(name); ok && s != nil && s.Properties != nil {
			return s
		}
	}
	return nil
}

func cleanTypeName(raw string) string {
	name := path.Base(strings.TrimSpace(raw))
	name = strings.TrimSuffix(name, ".ts")
	name = strings.TrimLeft(name, "#@")
	if i := strings.Index(name, "<"); i > 0 {
		name = name[:i]
	}
	return name
}

// declarationType maps a declared type expression to a schema.
func declarationType(typ, field string, optional bool) *openapi.Schema {
	nullable := optional

	var members []string
	for part := range strings.SplitSeq(typ, "|") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
		case "null", "undefined":
			nullable = true
		default:
			members = append(members, part)
		}
	}
	if len(members) == 0 {
		members = []string{"string"}
	}

	if len(members) > 1 && allStringLiterals(members) {
		s := &openapi.Schema{Type: "string", Nullable: nullable}
		for _, m := range members {
			s.Enum = append(s.Enum, strings.Trim(m, `'"`))
		}
		s.Example = s.Enum[0]
		return s
	}

	item := members[0]
	isArray := false
	switch {
	case strings.HasSuffix(item, "[]"):
		item, isArray = strings.TrimSuffix(item, "[]"), true
	case strings.HasPrefix(item, "Array<") && strings.HasSuffix(item, ">"):
		item, isArray = item[len("Array<"):len(item)-1], true
	}

	s := scalarType(item, field)
	if isArray {
		return &openapi.Schema{Type: "array", Items: s, Nullable: nullable}
	}
	if s.Ref == "" {
		s.Nullable = nullable
	}
	return s
}

func scalarType(typ, field string) *openapi.Schema {
	lower := strings.ToLower(typ)

	switch lower {
	case "datetime", "date":
		format := "date"
		example := resolver.ExampleDate
		if lower == "datetime" {
			format, example = "date-time", resolver.ExampleDateTime
		}
		return &openapi.Schema{Type: "string", Format: format, Example: example}
	case "any", "unknown":
		return openapi.RefTo(AnySchema)
	case "object":
		return &openapi.Schema{Type: "object"}
	}

	if stringLiteral.MatchString(typ) {
		v := strings.Trim(typ, `'"`)
		return &openapi.Schema{Type: "string", Enum: []any{v}, Example: v}
	}

	if _, ok := declarationTypes[lower]; ok {
		return &openapi.Schema{Type: lower, Example: typedExample(field, lower)}
	}

	if !identifierRegexp.MatchString(typ) {
		return &openapi.Schema{Type: "object"}
	}
	return openapi.RefTo(typ)
}

// typedExample prefers the well-known field example when it fits the type.
func typedExample(field, typ string) any {
	if v, ok := resolver.ExampleByField(field); ok && fitsType(v, typ) {
		return v
	}
	v, _ := resolver.ExampleByType(typ)
	return v
}

func fitsType(v any, typ string) bool {
	switch v.(type) {
	case string:
		return typ == "string"
	case int, int64, float64:
		return typ == "number" || typ == "integer"
	case bool:
		return typ == "boolean"
	}
	return false
}

func allStringLiterals(members []string) bool {
	for _, m := range members {
		if !stringLiteral.MatchString(m) {
			return false
		}
	}
	return true
}

// literalExample converts an @example payload to the property type when it
// parses as such.
func literalExample(raw, typ string) any {
	raw = strings.TrimSpace(raw)
	switch typ {
	case "number", "integer":
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			if n == float64(int64(n)) {
				return int64(n)
			}
			return n
		}
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case "object", "array", "":
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v
		}
	}
	return raw
}

// nestedObject builds the schema of an inline object type.
func nestedObject(f *objectFrame) *openapi.Schema {
	s := &openapi.Schema{
		Type:       "object",
		Nullable:   f.optional,
		Properties: f.props,
	}
	if len(f.required) > 0 {
		s.Required = f.required
	}

	example := make(map[string]any, len(f.props))
	for key, prop := range f.props {
		if prop.Example != nil {
			example[key] = prop.Example
		}
	}
	s.Example = example
	return s
}
