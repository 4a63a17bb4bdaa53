package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/resolver"
	"github.com/vitalvas/autoswag/rules"
	"github.com/vitalvas/autoswag/source"
)

func TestRegistry(t *testing.T) {
	r := New()

	t.Run("builtins", func(t *testing.T) {
		anySchema, ok := r.Lookup(source.AnySchema)
		require.True(t, ok)
		assert.Equal(t, "Any JSON object not defined as schema", anySchema.Description)

		meta, ok := r.Lookup(resolver.PaginationMeta)
		require.True(t, ok)
		assert.Equal(t, "object", meta.Type)
		assert.Contains(t, meta.Properties, "total")
	})

	t.Run("last writer wins", func(t *testing.T) {
		require.NoError(t, r.Register("Pet", &openapi.Schema{Type: "object"}))
		require.NoError(t, r.Register("Pet", &openapi.Schema{Type: "string"}))

		s, ok := r.Lookup("Pet")
		require.True(t, ok)
		assert.Equal(t, "string", s.Type)
		assert.Equal(t, []string{source.AnySchema, resolver.PaginationMeta, "Pet"}, r.Names())
		assert.Equal(t, 3, r.Len())
	})

	t.Run("schemas is a copy", func(t *testing.T) {
		schemas := r.Schemas()
		delete(schemas, "Pet")

		_, ok := r.Lookup("Pet")
		assert.True(t, ok)
	})

	t.Run("frozen", func(t *testing.T) {
		r.Freeze()
		assert.True(t, r.Frozen())
		assert.ErrorIs(t, r.Register("Late", &openapi.Schema{}), ErrFrozen)

		_, ok := r.Lookup("Late")
		assert.False(t, ok)
	})
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func newFixture(t *testing.T) Paths {
	t.Helper()
	root := t.TempDir()

	writeFiles(t, root, map[string]string{
		"interfaces/pet.ts": `export interface Pet {
  id: number;
  name: string;
  tag?: string;
}

export interface PetPage extends PaginationMeta {
  data: Pet[];
}`,
		"interfaces/user_response.ts": `export interface UserResponse extends User {
  token: string;
}`,
		"interfaces/shared.ts": `export interface Shared {
  value: string;
}`,
		"models/user.ts": `export default class User extends BaseModel {
  // @required
  declare id: number

  declare email: string
}`,
		"models/nested/post.ts": `  declare title: string`,
		"models/README.md":      "declare ignored: string",
		"validators/a_login.yml": `LoginValidator:
  fields:
    email: {type: string, format: email}
    age: {type: number, min: 18}
`,
		"validators/b_broken.yml": `BrokenValidator:
  fields:
    when: {type: date}
`,
		"validators/c_signup.yml": `SignupValidator:
  fields:
    name: {type: string}
`,
		"enums/status.ts": `export enum Status {
  Active = 'active',
  Banned = 'banned'
}

export enum Shared {
  A
}`,
	})

	return Paths{
		Interfaces: filepath.Join(root, "interfaces"),
		Models:     filepath.Join(root, "models"),
		Validators: filepath.Join(root, "validators"),
		Enums:      filepath.Join(root, "enums"),
	}
}

func TestAggregatorScan(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := New()
	agg := NewAggregator(reg, Options{Paths: newFixture(t)}, zap.New(core))

	require.NoError(t, agg.Scan(context.Background()))
	assert.Same(t, reg, agg.Registry())

	t.Run("interfaces", func(t *testing.T) {
		pet, ok := reg.Lookup("Pet")
		require.True(t, ok)
		assert.Equal(t, []string{"id", "name"}, pet.Required)

		page, ok := reg.Lookup("PetPage")
		require.True(t, ok)
		assert.Contains(t, page.Properties, "total")
		assert.Contains(t, page.Properties, "data")
		assert.Equal(t, "PetPage extends PaginationMeta (Interface)", page.Description)
	})

	t.Run("interfaces do not see later kinds", func(t *testing.T) {
		resp, ok := reg.Lookup("UserResponse")
		require.True(t, ok)
		assert.Len(t, resp.Properties, 1)
		assert.Contains(t, resp.Properties, "token")
	})

	t.Run("models", func(t *testing.T) {
		user, ok := reg.Lookup("User")
		require.True(t, ok)
		assert.Equal(t, "User (Model)", user.Description)
		assert.Equal(t, []string{"id"}, user.Required)

		post, ok := reg.Lookup("post")
		require.True(t, ok)
		assert.Contains(t, post.Properties, "title")
		assert.Nil(t, post.Required)

		_, ok = reg.Lookup("README")
		assert.False(t, ok)
	})

	t.Run("validators stop at the first failure", func(t *testing.T) {
		login, ok := reg.Lookup("LoginValidator")
		require.True(t, ok)
		assert.Equal(t, "LoginValidator (Validator)", login.Description)
		assert.Equal(t, "email", login.Properties["email"].Format)
		assert.Equal(t, resolver.ExampleEmail, login.Properties["email"].Example)

		_, ok = reg.Lookup("BrokenValidator")
		assert.False(t, ok)
		_, ok = reg.Lookup("SignupValidator")
		assert.False(t, ok)

		failures := agg.Failures()
		require.Len(t, failures, 1)
		assert.Equal(t, KindValidators, failures[0].Kind)
		assert.Equal(t, "b_broken.yml", filepath.Base(failures[0].Path))
		assert.ErrorIs(t, failures[0], ErrValidatorScanAborted)
		assert.ErrorIs(t, failures[0], rules.ErrUnknownType)
	})

	t.Run("enums overwrite earlier kinds", func(t *testing.T) {
		status, ok := reg.Lookup("Status")
		require.True(t, ok)
		assert.Equal(t, []any{"active", "banned"}, status.Enum)

		shared, ok := reg.Lookup("Shared")
		require.True(t, ok)
		assert.Equal(t, "string", shared.Type)
		assert.Equal(t, []any{"A"}, shared.Enum)
	})

	t.Run("logs", func(t *testing.T) {
		assert.Equal(t, 1, logs.FilterMessage("failed to load schema source").Len())

		loaded := logs.FilterMessage("schemas loaded").All()
		require.Len(t, loaded, 1)
		assert.Equal(t, int64(1), loaded[0].ContextMap()["failures"])
	})
}

func TestAggregatorScanMissingDirectories(t *testing.T) {
	reg := New()
	agg := NewAggregator(reg, Options{Paths: Paths{
		Models: filepath.Join(t.TempDir(), "missing"),
	}}, nil)

	require.NoError(t, agg.Scan(context.Background()))
	assert.Empty(t, agg.Failures())
	assert.Equal(t, 2, reg.Len())
}

func TestAggregatorScanSnakeCase(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"models/user.ts": "export default class User {\n  declare firstName: string\n}",
	})

	reg := New()
	agg := NewAggregator(reg, Options{
		Paths:     Paths{Models: filepath.Join(root, "models")},
		SnakeCase: true,
	}, nil)
	require.NoError(t, agg.Scan(context.Background()))

	user, ok := reg.Lookup("User")
	require.True(t, ok)
	assert.Contains(t, user.Properties, "first_name")
}

func TestAggregatorScanErrors(t *testing.T) {
	t.Run("frozen", func(t *testing.T) {
		reg := New()
		reg.Freeze()
		assert.ErrorIs(t, NewAggregator(reg, Options{}, nil).Scan(context.Background()), ErrFrozen)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		agg := NewAggregator(New(), Options{Paths: newFixture(t)}, nil)
		assert.ErrorIs(t, agg.Scan(ctx), context.Canceled)
	})
}

func TestSourceError(t *testing.T) {
	err := &SourceError{Kind: KindModels, Path: "app/models/user.ts", Err: os.ErrPermission}
	assert.Equal(t, "models app/models/user.ts: permission denied", err.Error())
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestAggregatorVerify(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg := New()

	require.NoError(t, reg.Register("Good", &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":   {Type: "integer"},
			"meta": openapi.RefTo(resolver.PaginationMeta),
		},
		Required: []string{"id"},
		Example:  map[string]any{"id": 1, "meta": map[string]any{"total": 3}},
	}))
	require.NoError(t, reg.Register("Bad", &openapi.Schema{
		Type:       "object",
		Properties: map[string]*openapi.Schema{"id": {Type: "integer"}},
		Required:   []string{"id"},
		Example:    map[string]any{"id": "one"},
	}))

	agg := NewAggregator(reg, Options{}, zap.New(core))

	mismatches, err := agg.Verify(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "Bad", mismatches[0].Name)
	assert.Error(t, mismatches[0].Err)

	entries := logs.FilterMessage("schema example does not match schema").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Bad", entries[0].ContextMap()["schema"])
}

func TestAggregatorVerifyInferred(t *testing.T) {
	reg := New()
	agg := NewAggregator(reg, Options{Paths: newFixture(t)}, nil)
	require.NoError(t, agg.Scan(context.Background()))

	mismatches, err := agg.Verify(context.Background())
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}
