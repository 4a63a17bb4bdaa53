package source

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/vitalvas/autoswag/directive"
	"github.com/vitalvas/autoswag/internal/textcase"
	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/resolver"
)

// AnySchema is the component name used for untyped values.
const AnySchema = "Any"

var (
	modelNameRegexp  = regexp.MustCompile(`^export\s+default\s+class\s+(\w+)`)
	typeofRegexp     = regexp.MustCompile(`typeof\s+(\w+)`)
	propsRegexp      = regexp.MustCompile(`@props\((\{.*\})\)`)
	identifierRegexp = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

	arrayRelations = []string{"HasMany", "ManyToMany", "HasManyThrough"}
	staticPrefixes = []string{"public static ", "private static ", "static "}
)

// modelTypes are the declared types a model field may use directly.
var modelTypes = map[string]struct{}{
	"string":   {},
	"number":   {},
	"integer":  {},
	"datetime": {},
	"date":     {},
	"boolean":  {},
	"any":      {},
	"uuid":     {},
}

// Model is the result of parsing one model class.
type Model struct {
	Name       string
	Properties map[string]*openapi.Schema
	Required   []string
}

// Schema returns the component schema of the model.
func (m *Model) Schema() *openapi.Schema {
	s := &openapi.Schema{
		Type:        "object",
		Properties:  m.Properties,
		Description: m.Name + " (Model)",
	}
	if len(m.Required) > 0 {
		s.Required = m.Required
	}
	return s
}

// ModelParser converts ORM model classes into object schemas. Fields are the
// lines introduced by "public " or containing "declare "; the line before a
// field may carry @enum(...), @format(...), @example(...), @required or
// @props({...}). A field preceded by "serializeAs: null" or @no-swagger is
// skipped.
type ModelParser struct {
	// SnakeCase converts field names to snake_case schema keys.
	SnakeCase bool
}

// Parse parses a model source. The model name is taken from the
// "export default class" line and is empty when there is none.
func (p *ModelParser) Parse(text string) *Model {
	m := &Model{Properties: make(map[string]*openapi.Schema)}
	softDelete := false

	sc := NewScanner(text)
	for sc.Scan() {
		line, prev := sc.Text(), sc.Prev()

		if match := modelNameRegexp.FindStringSubmatch(line); match != nil {
			m.Name = match[1]
		}
		if strings.Contains(line, "@swagger-softdelete") || strings.Contains(line, "SoftDeletes") {
			softDelete = true
		}

		if isComment(line) || hasAnyPrefix(line, staticPrefixes) {
			continue
		}
		if strings.Contains(prev, "serializeAs: null") || strings.Contains(prev, "@no-swagger") {
			continue
		}

		field, typ, ok := fieldDeclaration(line)
		if !ok {
			continue
		}

		key := field
		if p.SnakeCase {
			key = textcase.Snake(field)
		}

		m.Properties[key] = p.property(key, typ, line, prev)
		if strings.Contains(prev, directive.FlagRequired) {
			m.Required = append(m.Required, key)
		}
	}

	if softDelete {
		m.Properties["deleted_at"] = &openapi.Schema{
			Type:    "string",
			Format:  "date-time",
			Example: resolver.ExampleDateTime,
		}
	}

	return m
}

// fieldDeclaration splits a field line into its name and declared type.
func fieldDeclaration(line string) (string, string, bool) {
	var decl string
	switch {
	case strings.Contains(line, "declare "):
		_, decl, _ = strings.Cut(line, "declare ")
	case strings.HasPrefix(line, "public get"):
		decl = strings.TrimPrefix(line, "public get")
	case strings.HasPrefix(line, "public "):
		decl = strings.TrimPrefix(line, "public ")
	default:
		return "", "", false
	}

	decl = strings.ReplaceAll(decl, ";", "")
	field, typ, found := strings.Cut(decl, ":")
	if !found {
		return "", "", false
	}

	field = strings.TrimSpace(strings.Replace(field, "()", "", 1))
	field = strings.TrimSuffix(strings.TrimSuffix(field, "!"), "?")
	if !identifierRegexp.MatchString(field) {
		return "", "", false
	}

	typ = strings.TrimSpace(strings.Replace(typ, "{", "", 1))
	if typ == "" {
		return "", "", false
	}

	return field, typ, true
}

func (p *ModelParser) property(field, typ, line, prev string) *openapi.Schema {
	var (
		enum    []string
		format  string
		example any
	)

	if strings.Contains(prev, "@enum") {
		enum = strings.Split(directive.Between(prev, "enum"), ",")
		if len(enum) == 1 && enum[0] == "" {
			enum = nil
		}
		if len(enum) > 0 {
			example = enum[0]
		}
	}
	if strings.Contains(prev, "@format") {
		format = directive.Between(prev, "format")
	}
	if strings.Contains(prev, "@example") {
		if raw := directive.Between(prev, "example"); raw != "" {
			example = raw
			if typ == "number" {
				if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
					example = n
				}
			}
		}
	}

	typ = firstNonNull(typ)

	var ref string
	if match := typeofRegexp.FindStringSubmatch(typ); match != nil {
		ref = match[1]
	}

	isArray := hasAnyContains(line, arrayRelations) || strings.HasSuffix(typ, "[]")
	typ = strings.TrimSuffix(typ, "[]")

	if ref == "" {
		if _, ok := modelTypes[strings.ToLower(typ)]; ok {
			typ = strings.ToLower(typ)
		} else if identifierRegexp.MatchString(typ) {
			ref = typ
		} else {
			ref = AnySchema
		}
	}

	if example == nil {
		if v, ok := resolver.ExampleByField(field); ok {
			example = v
		} else if ref == "" {
			example, _ = resolver.ExampleByType(typ)
		}
	}

	item := &openapi.Schema{}
	switch typ {
	case "datetime":
		item.Type, format = "string", "date-time"
	case "date":
		item.Type, format = "string", "date"
	case "uuid":
		item.Type, format = "string", "uuid"
	default:
		item.Type = typ
	}

	switch field {
	case "email", "password":
		item.Type, format, ref = "string", field, ""
	}

	if len(enum) > 0 {
		item.Type, ref = "string", ""
	}

	if ref == "" && typ == "any" {
		ref = AnySchema
	}

	if ref != "" {
		item = openapi.RefTo(ref)
	} else {
		switch item.Type {
		case "integer", "number":
			if _, isString := example.(string); example == nil || isString {
				example, _ = resolver.ExampleByType(item.Type)
			}
		case "boolean":
			example = true
		}
		item.Example = example
		item.Format = format
		for _, v := range enum {
			item.Enum = append(item.Enum, v)
		}
	}

	prop := item
	if isArray {
		prop = openapi.ArrayOf(item)
	}

	if match := propsRegexp.FindStringSubmatch(prev); match != nil {
		var extra map[string]any
		if err := json.Unmarshal([]byte(match[1]), &extra); err == nil {
			_ = prop.Merge(extra)
		}
	}

	return prop
}

// firstNonNull returns the first member of a union type that is not null or
// undefined.
func firstNonNull(typ string) string {
	if !strings.Contains(typ, "|") {
		return strings.TrimSpace(typ)
	}
	for part := range strings.SplitSeq(typ, "|") {
		part = strings.TrimSpace(part)
		if part != "" && part != "null" && part != "undefined" {
			return part
		}
	}
	return "string"
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func hasAnyContains(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
