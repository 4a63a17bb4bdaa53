package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/resolver"
	"github.com/vitalvas/autoswag/rules"
)

func infer(t *testing.T, root *rules.Schema) *openapi.Schema {
	t.Helper()
	v, err := rules.New(root)
	require.NoError(t, err)

	s, err := New(nil).Infer(context.Background(), v)
	require.NoError(t, err)
	return s
}

func TestInferFormat(t *testing.T) {
	s := infer(t, rules.Object(rules.F("email", rules.String().Email())))

	email := s.Properties["email"]
	require.NotNil(t, email)
	assert.Equal(t, "string", email.Type)
	assert.Equal(t, "email", email.Format)
	assert.Equal(t, resolver.ExampleEmail, email.Example)
	assert.Equal(t, []string{"email"}, s.Required)
	assert.Equal(t, map[string]any{"email": resolver.ExampleEmail}, s.Example)
}

func TestInferScalars(t *testing.T) {
	s := infer(t, rules.Object(
		rules.F("name", rules.String().Min(2).Max(20)),
		rules.F("age", rules.Number().Min(18).Optional()),
		rules.F("active", rules.Boolean()),
		rules.F("role", rules.Enum("admin", "user")),
		rules.F("sku", rules.String().Example("A-1")),
		rules.F("code", rules.String().Regex(`^[A-Z]{3}$`)),
	))

	tests := []struct {
		field   string
		typ     string
		example any
	}{
		{field: "name", typ: "string", example: "string"},
		{field: "age", typ: "number", example: 18.0},
		{field: "active", typ: "boolean", example: true},
		{field: "role", typ: "string", example: "admin"},
		{field: "sku", typ: "string", example: "A-1"},
		{field: "code", typ: "string", example: "string"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			prop := s.Properties[tt.field]
			require.NotNil(t, prop)
			assert.Equal(t, tt.typ, prop.Type)
			assert.Equal(t, tt.example, prop.Example)
		})
	}

	name := s.Properties["name"]
	assert.Nil(t, name.Minimum)
	assert.Nil(t, name.Maximum)
	require.NotNil(t, name.MinLength)
	require.NotNil(t, name.MaxLength)
	assert.Equal(t, 2, *name.MinLength)
	assert.Equal(t, 20, *name.MaxLength)

	age := s.Properties["age"]
	require.NotNil(t, age.Minimum)
	assert.Equal(t, 18.0, *age.Minimum)

	assert.Equal(t, []any{"admin", "user"}, s.Properties["role"].Enum)
	assert.Equal(t, `^[A-Z]{3}$`, s.Properties["code"].Pattern)
	assert.ElementsMatch(t, []string{"name", "active", "role", "sku", "code"}, s.Required)
}

func TestInferNested(t *testing.T) {
	s := infer(t, rules.Object(
		rules.F("tags", rules.Array(rules.String())),
		rules.F("items", rules.Array(rules.Object(
			rules.F("site", rules.String().URL()),
		))),
		rules.F("address", rules.Object(
			rules.F("city", rules.String()),
		)),
	))

	tags := s.Properties["tags"]
	assert.Equal(t, "array", tags.Type)
	assert.Equal(t, "string", tags.Items.Type)

	site := s.Properties["items"].Items.Properties["site"]
	assert.Equal(t, "string", site.Type)
	assert.Equal(t, "url", site.Format)
	assert.Equal(t, resolver.ExampleURL, site.Example)

	city := s.Properties["address"].Properties["city"]
	assert.Equal(t, "string", city.Type)

	assert.Equal(t, map[string]any{
		"tags":    []any{"string"},
		"items":   []any{map[string]any{"site": resolver.ExampleURL}},
		"address": map[string]any{"city": "string"},
	}, s.Example)
}

func TestInferExampleValidates(t *testing.T) {
	v, err := rules.New(rules.Object(
		rules.F("email", rules.String().Email()),
		rules.F("active", rules.Boolean()),
		rules.F("tags", rules.Array(rules.String())),
	))
	require.NoError(t, err)

	s, err := New(nil).Infer(context.Background(), v)
	require.NoError(t, err)

	errs, err := v.TryValidate(context.Background(), s.Example, DefaultMessages)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestInferCancelled(t *testing.T) {
	v, err := rules.New(rules.Object(rules.F("x", rules.String())))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = New(nil).Infer(ctx, v)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInferLogs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	v, err := rules.New(rules.Object(rules.F("x", rules.String())))
	require.NoError(t, err)

	_, err = New(zap.New(core)).Infer(context.Background(), v)
	require.NoError(t, err)

	entries := logs.FilterMessage("validator probed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["failures"])
}

func TestLocate(t *testing.T) {
	s := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"list": openapi.ArrayOf(&openapi.Schema{
				Type:       "object",
				Properties: map[string]*openapi.Schema{"id": {Type: "number"}},
			}),
		},
	}

	assert.Equal(t, "number", locate(s, []string{"list", "0", "id"}).Type)
	assert.Nil(t, locate(s, []string{"missing", "x"}))
}

func TestSetPath(t *testing.T) {
	root := map[string]any{
		"list": []any{map[string]any{"id": 1}},
	}

	setPath(root, []string{"list", "0", "id"}, 2)
	setPath(root, []string{"list", "5", "id"}, 3)
	setPath(root, []string{"other"}, true)

	assert.Equal(t, map[string]any{
		"list":  []any{map[string]any{"id": 2}},
		"other": true,
	}, root)
}
