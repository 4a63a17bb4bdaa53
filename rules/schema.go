package rules

// BaseType is the node kind reported by the structural dump.
type BaseType string

const (
	TypeString  BaseType = "string"
	TypeNumber  BaseType = "number"
	TypeBoolean BaseType = "boolean"
	TypeObject  BaseType = "object"
	TypeArray   BaseType = "array"
	TypeLiteral BaseType = "literal"
)

// Rule names reported in probe errors.
const (
	RuleString   = "string"
	RuleNumber   = "number"
	RuleBoolean  = "boolean"
	RuleObject   = "object"
	RuleArray    = "array"
	RuleRequired = "required"
	RuleMin      = "min"
	RuleMax      = "max"
	RuleIn       = "in"
	RuleRegex    = "regex"
	RuleExample  = "example"
)

// formatTags maps format rule names to go-playground/validator tags.
var formatTags = map[string]string{
	"email":    "email",
	"url":      "url",
	"uuid":     "uuid",
	"ip":       "ip",
	"ipv4":     "ipv4",
	"ipv6":     "ipv6",
	"hostname": "hostname",
	"e164":     "e164",
	"hexcolor": "hexcolor",
}

type rule struct {
	name string
	tag  string
	opts RuleOptions

	// format rules imply the string type check.
	format bool
}

// Schema is a validator node built with the DSL.
type Schema struct {
	kind     BaseType
	optional bool
	rules    []*rule
	fields   []Field
	each     *Schema
}

// Field is a named object member.
type Field struct {
	Name   string
	Schema *Schema
}

// F declares an object field.
func F(name string, schema *Schema) Field {
	return Field{Name: name, Schema: schema}
}

func scalar(kind BaseType, typeRule string) *Schema {
	return &Schema{
		kind:  kind,
		rules: []*rule{{name: typeRule, tag: "is_" + typeRule}},
	}
}

// String declares a string value.
func String() *Schema { return scalar(TypeString, RuleString) }

// Number declares a numeric value.
func Number() *Schema { return scalar(TypeNumber, RuleNumber) }

// Boolean declares a boolean value.
func Boolean() *Schema { return scalar(TypeBoolean, RuleBoolean) }

// Enum declares a string restricted to choices.
func Enum(choices ...any) *Schema {
	return String().In(choices...)
}

// Object declares an object with the given fields.
func Object(fields ...Field) *Schema {
	return &Schema{kind: TypeObject, fields: fields}
}

// Array declares an array whose elements match each.
func Array(each *Schema) *Schema {
	return &Schema{kind: TypeArray, each: each}
}

// Kind returns the declared node kind.
func (s *Schema) Kind() BaseType { return s.kind }

// Optional allows the value to be absent.
func (s *Schema) Optional() *Schema {
	s.optional = true
	return s
}

// Min sets the minimum value (numbers) or length (strings).
func (s *Schema) Min(n float64) *Schema {
	return s.add(&rule{name: RuleMin, opts: RuleOptions{Min: &n}})
}

// Max sets the maximum value (numbers) or length (strings).
func (s *Schema) Max(n float64) *Schema {
	return s.add(&rule{name: RuleMax, opts: RuleOptions{Max: &n}})
}

// In restricts the value to choices.
func (s *Schema) In(choices ...any) *Schema {
	return s.add(&rule{name: RuleIn, opts: RuleOptions{Choices: choices}})
}

// Regex requires the value to match pattern.
func (s *Schema) Regex(pattern string) *Schema {
	return s.add(&rule{name: RuleRegex, opts: RuleOptions{Pattern: pattern}})
}

// Example attaches an example value. It is not executed.
func (s *Schema) Example(v any) *Schema {
	return s.add(&rule{name: RuleExample, opts: RuleOptions{Example: v}})
}

// Format adds a named format rule such as "email" or "uuid".
func (s *Schema) Format(name string) *Schema {
	return s.add(&rule{name: name, tag: formatTags[name], format: true})
}

// Email requires an email address.
func (s *Schema) Email() *Schema { return s.Format("email") }

// URL requires an absolute URL.
func (s *Schema) URL() *Schema { return s.Format("url") }

// UUID requires a UUID.
func (s *Schema) UUID() *Schema { return s.Format("uuid") }

func (s *Schema) add(r *rule) *Schema {
	s.rules = append(s.rules, r)
	return s
}

// hasFormat reports whether a format rule subsumes the type check.
func (s *Schema) hasFormat() bool {
	for _, r := range s.rules {
		if r.format {
			return true
		}
	}
	return false
}
