package rules

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotObject is returned when a validator root is not an object.
	ErrNotObject = errors.New("validator root must be an object")

	// ErrUnknownFormat is returned for a format rule without a known tag.
	ErrUnknownFormat = errors.New("unknown format rule")
)

// RuleOptions are the configured options of one rule.
type RuleOptions struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Choices []any    `json:"choices,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
	Example any      `json:"example,omitempty"`
}

// RuleRef points into a RuleTable.
type RuleRef struct {
	ID string `json:"ruleFnId"`
}

// RuleTable maps rule ids to their options.
type RuleTable map[string]RuleOptions

// FieldNode is one node of the structural dump.
type FieldNode struct {
	FieldName string       `json:"fieldName,omitempty"`
	Type      BaseType     `json:"type"`
	Optional  bool         `json:"isOptional"`
	Children  []*FieldNode `json:"properties,omitempty"`
	Each      *FieldNode   `json:"each,omitempty"`
	Rules     []RuleRef    `json:"validations,omitempty"`
}

// Messages maps rule names to the message reported when the rule fails.
// Rules without an entry report their own name.
type Messages map[string]string

// ProbeError is one failed rule.
type ProbeError struct {
	Field   string
	Rule    string
	Message string
}

func (e ProbeError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Rule)
}

// Validator executes a Schema.
type Validator struct {
	root     *Schema
	validate *validator.Validate
}

// New compiles root into a validator.
func New(root *Schema) (*Validator, error) {
	if root == nil || root.kind != TypeObject {
		return nil, ErrNotObject
	}

	v := &Validator{
		root:     root,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	if err := v.registerTypeChecks(); err != nil {
		return nil, err
	}
	if err := v.compile(root, new(int)); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *Validator) registerTypeChecks() error {
	checks := map[string]func(reflect.Kind) bool{
		"is_" + RuleString:  func(k reflect.Kind) bool { return k == reflect.String },
		"is_" + RuleBoolean: func(k reflect.Kind) bool { return k == reflect.Bool },
		"is_" + RuleNumber:  isNumericKind,
	}

	for tag, check := range checks {
		if err := v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().Kind())
		}); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// compile assigns tags to rules whose check cannot be written as a static
// tag (regex and choices) and validates format names.
func (v *Validator) compile(s *Schema, seq *int) error {
	for _, f := range s.fields {
		if err := v.compile(f.Schema, seq); err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	if s.each != nil {
		if err := v.compile(s.each, seq); err != nil {
			return err
		}
	}

	for _, r := range s.rules {
		*seq++
		switch {
		case r.format:
			if r.tag == "" {
				return fmt.Errorf("%w: %s", ErrUnknownFormat, r.name)
			}
		case r.name == RuleMin:
			r.tag = "min=" + strconv.FormatFloat(*r.opts.Min, 'f', -1, 64)
		case r.name == RuleMax:
			r.tag = "max=" + strconv.FormatFloat(*r.opts.Max, 'f', -1, 64)
		case r.name == RuleRegex:
			re, err := regexp.Compile(r.opts.Pattern)
			if err != nil {
				return fmt.Errorf("regex rule: %w", err)
			}
			r.tag = fmt.Sprintf("regex_%d", *seq)
			if err := v.validate.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
				return fl.Field().Kind() == reflect.String && re.MatchString(fl.Field().String())
			}); err != nil {
				return err
			}
		case r.name == RuleIn:
			choices := make([]string, len(r.opts.Choices))
			for i, c := range r.opts.Choices {
				choices[i] = fmt.Sprint(c)
			}
			r.tag = fmt.Sprintf("in_%d", *seq)
			if err := v.validate.RegisterValidation(r.tag, func(fl validator.FieldLevel) bool {
				return slices.Contains(choices, fmt.Sprint(fl.Field().Interface()))
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Describe returns the structural dump of the validator and the options of
// every referenced rule.
func (v *Validator) Describe() (*FieldNode, RuleTable) {
	table := make(RuleTable)
	return describe(v.root, "", table), table
}

func describe(s *Schema, name string, table RuleTable) *FieldNode {
	node := &FieldNode{FieldName: name, Type: s.kind, Optional: s.optional}

	switch s.kind {
	case TypeObject:
		for _, f := range s.fields {
			node.Children = append(node.Children, describe(f.Schema, f.Name, table))
		}
	case TypeArray:
		node.Each = describe(s.each, "", table)
	default:
		node.Type = TypeLiteral
		for _, r := range s.rules {
			id := fmt.Sprintf("ref://%d", len(table)+1)
			table[id] = r.opts
			node.Rules = append(node.Rules, RuleRef{ID: id})
		}
	}

	return node
}

// TryValidate runs the rules against value and returns every failure.
// Checking stops at the first failing rule of a field. Messages are looked up
// by rule name in msgs.
func (v *Validator) TryValidate(ctx context.Context, value any, msgs Messages) ([]ProbeError, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var errs []ProbeError
	v.check(v.root, "", value, msgs, &errs)
	return errs, nil
}

func (v *Validator) check(s *Schema, path string, value any, msgs Messages, errs *[]ProbeError) {
	fail := func(ruleName string) {
		*errs = append(*errs, ProbeError{Field: path, Rule: ruleName, Message: msgs.lookup(ruleName)})
	}

	switch s.kind {
	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			fail(RuleObject)
			return
		}
		for _, f := range s.fields {
			child := joinPath(path, f.Name)
			fv, present := obj[f.Name]
			if !present || fv == nil {
				if !f.Schema.optional {
					*errs = append(*errs, ProbeError{Field: child, Rule: RuleRequired, Message: msgs.lookup(RuleRequired)})
				}
				continue
			}
			v.check(f.Schema, child, fv, msgs, errs)
		}
	case TypeArray:
		arr, ok := value.([]any)
		if !ok {
			fail(RuleArray)
			return
		}
		for i, elem := range arr {
			v.check(s.each, joinPath(path, strconv.Itoa(i)), elem, msgs, errs)
		}
	default:
		formatted := s.hasFormat()
		for _, r := range s.rules {
			if r.tag == "" || (formatted && r.tag == "is_"+RuleString) {
				continue
			}
			if !v.pass(value, r.tag) {
				fail(r.name)
				return
			}
		}
	}
}

// pass runs a single tag. Built-in validators panic on unsupported kinds;
// that counts as a failure.
func (v *Validator) pass(value any, tag string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return v.validate.Var(value, tag) == nil
}

func (m Messages) lookup(ruleName string) string {
	if msg, ok := m[ruleName]; ok {
		return msg
	}
	return ruleName
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
