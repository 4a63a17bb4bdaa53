package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(Object(
		F("email", String().Email()),
		F("name", String().Min(2).Max(20)),
		F("age", Number().Min(18).Optional()),
		F("active", Boolean()),
		F("role", Enum("admin", "user")),
		F("code", String().Regex(`^[A-Z]{3}$`)),
		F("tags", Array(String())),
		F("address", Object(
			F("city", String()),
		)),
	))
	require.NoError(t, err)
	return v
}

func TestNew(t *testing.T) {
	_, err := New(String())
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = New(nil)
	assert.ErrorIs(t, err, ErrNotObject)

	_, err = New(Object(F("x", String().Format("nope"))))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = New(Object(F("x", String().Regex("("))))
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	v, err := New(Object(
		F("email", String().Email()),
		F("age", Number().Min(1).Max(99).Optional()),
		F("items", Array(Object(F("sku", String().Example("A-1"))))),
		F("scores", Array(Number())),
	))
	require.NoError(t, err)

	root, table := v.Describe()
	assert.Equal(t, TypeObject, root.Type)
	require.Len(t, root.Children, 4)

	email := root.Children[0]
	assert.Equal(t, "email", email.FieldName)
	assert.Equal(t, TypeLiteral, email.Type)
	assert.False(t, email.Optional)
	assert.Len(t, email.Rules, 2)

	age := root.Children[1]
	assert.True(t, age.Optional)
	var minSeen, maxSeen bool
	for _, ref := range age.Rules {
		opts := table[ref.ID]
		if opts.Min != nil {
			minSeen = true
			assert.Equal(t, 1.0, *opts.Min)
		}
		if opts.Max != nil {
			maxSeen = true
			assert.Equal(t, 99.0, *opts.Max)
		}
	}
	assert.True(t, minSeen)
	assert.True(t, maxSeen)

	items := root.Children[2]
	assert.Equal(t, TypeArray, items.Type)
	require.NotNil(t, items.Each)
	assert.Equal(t, TypeObject, items.Each.Type)
	sku := items.Each.Children[0]
	var example any
	for _, ref := range sku.Rules {
		if table[ref.ID].Example != nil {
			example = table[ref.ID].Example
		}
	}
	assert.Equal(t, "A-1", example)

	scores := root.Children[3]
	assert.Equal(t, TypeLiteral, scores.Each.Type)
}

func TestTryValidate(t *testing.T) {
	v := newUserValidator(t)
	msgs := Messages{RuleString: "TYPE", "email": "FORMAT", RuleRequired: "REQUIRED"}

	valid := map[string]any{
		"email":   "john@example.com",
		"name":    "John",
		"active":  true,
		"role":    "admin",
		"code":    "ABC",
		"tags":    []any{"a"},
		"address": map[string]any{"city": "Berlin"},
	}

	t.Run("valid", func(t *testing.T) {
		errs, err := v.TryValidate(context.Background(), valid, msgs)
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	tests := []struct {
		name  string
		patch map[string]any
		want  []ProbeError
	}{
		{
			name:  "format subsumes type",
			patch: map[string]any{"email": 1},
			want:  []ProbeError{{Field: "email", Rule: "email", Message: "FORMAT"}},
		},
		{
			name:  "type mismatch",
			patch: map[string]any{"name": 5},
			want:  []ProbeError{{Field: "name", Rule: RuleString, Message: "TYPE"}},
		},
		{
			name:  "string length",
			patch: map[string]any{"name": "J"},
			want:  []ProbeError{{Field: "name", Rule: RuleMin, Message: RuleMin}},
		},
		{
			name:  "number range",
			patch: map[string]any{"age": 3},
			want:  []ProbeError{{Field: "age", Rule: RuleMin, Message: RuleMin}},
		},
		{
			name:  "number type",
			patch: map[string]any{"age": "old"},
			want:  []ProbeError{{Field: "age", Rule: RuleNumber, Message: RuleNumber}},
		},
		{
			name:  "choices",
			patch: map[string]any{"role": "root"},
			want:  []ProbeError{{Field: "role", Rule: RuleIn, Message: RuleIn}},
		},
		{
			name:  "regex",
			patch: map[string]any{"code": "abc"},
			want:  []ProbeError{{Field: "code", Rule: RuleRegex, Message: RuleRegex}},
		},
		{
			name:  "array element path",
			patch: map[string]any{"tags": []any{"a", 2}},
			want:  []ProbeError{{Field: "tags.1", Rule: RuleString, Message: "TYPE"}},
		},
		{
			name:  "nested object",
			patch: map[string]any{"address": map[string]any{"city": false}},
			want:  []ProbeError{{Field: "address.city", Rule: RuleString, Message: "TYPE"}},
		},
		{
			name:  "required",
			patch: map[string]any{"active": nil},
			want:  []ProbeError{{Field: "active", Rule: RuleRequired, Message: "REQUIRED"}},
		},
		{
			name:  "not an array",
			patch: map[string]any{"tags": "a"},
			want:  []ProbeError{{Field: "tags", Rule: RuleArray, Message: RuleArray}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := make(map[string]any, len(valid))
			for k, val := range valid {
				value[k] = val
			}
			for k, val := range tt.patch {
				value[k] = val
			}

			errs, err := v.TryValidate(context.Background(), value, msgs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, errs)
		})
	}

	t.Run("url panics are failures", func(t *testing.T) {
		v, err := New(Object(F("site", String().URL())))
		require.NoError(t, err)

		errs, err := v.TryValidate(context.Background(), map[string]any{"site": 1}, Messages{"url": "FORMAT"})
		require.NoError(t, err)
		assert.Equal(t, []ProbeError{{Field: "site", Rule: "url", Message: "FORMAT"}}, errs)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := v.TryValidate(ctx, valid, msgs)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

const definitions = `
CreateUserValidator:
  fields:
    email: {type: string, format: email}
    age: {type: number, min: 18, optional: true}
    role: {type: string, choices: [admin, user]}
    tags:
      type: array
      each: {type: string, example: go}
    address:
      fields:
        city: {type: string}
LoginValidator:
  fields:
    token: {type: string, pattern: "^[a-f0-9]+$"}
`

func TestParse(t *testing.T) {
	named, err := Parse([]byte(definitions))
	require.NoError(t, err)
	require.Len(t, named, 2)
	assert.Equal(t, "CreateUserValidator", named[0].Name)
	assert.Equal(t, "LoginValidator", named[1].Name)

	root, _ := named[0].Validator.Describe()
	names := make([]string, 0, len(root.Children))
	for _, c := range root.Children {
		names = append(names, c.FieldName)
	}
	assert.Equal(t, []string{"email", "age", "role", "tags", "address"}, names)
	assert.True(t, root.Children[1].Optional)

	errs, err := named[0].Validator.TryValidate(context.Background(), map[string]any{
		"email":   "a@b.co",
		"role":    "admin",
		"tags":    []any{},
		"address": map[string]any{"city": "x"},
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		is   error
	}{
		{name: "unknown type", doc: "V:\n  fields:\n    x: {type: date}\n", is: ErrUnknownType},
		{name: "array without each", doc: "V:\n  fields:\n    x: {type: array}\n", is: ErrUnknownType},
		{name: "unknown format", doc: "V:\n  fields:\n    x: {type: string, format: nope}\n", is: ErrUnknownFormat},
		{name: "root not object", doc: "V:\n  type: string\n", is: ErrNotObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, err := Parse([]byte("- not\n- a mapping\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validators.yml")
	require.NoError(t, os.WriteFile(path, []byte(definitions), 0o600))

	named, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, named, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
