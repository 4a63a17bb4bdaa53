package openapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		pattern    string
		wantPath   string
		wantParams []string
	}{
		{pattern: "/", wantPath: "/"},
		{pattern: "/api/users", wantPath: "/api/users"},
		{pattern: "/api/users/:id", wantPath: "/api/users/{id}", wantParams: []string{"id"}},
		{pattern: "/posts/:postId/comments/:id?", wantPath: "/posts/{postId}/comments/{id}", wantParams: []string{"postId", "id"}},
		{pattern: "users/:id/", wantPath: "/users/{id}", wantParams: []string{"id"}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			path, params := ParsePattern(tt.pattern)
			assert.Equal(t, tt.wantPath, path)

			var names []string
			for _, p := range params {
				names = append(names, p.Name)
				assert.Equal(t, "path", p.In)
				assert.True(t, p.Required)
				assert.Equal(t, "string", p.Schema.Type)
			}
			assert.Equal(t, tt.wantParams, names)
		})
	}
}

func TestFormatOperationID(t *testing.T) {
	assert.Equal(t, "usersControllerShow", FormatOperationID("UsersController.show"))
	assert.Equal(t, "getApiUsers", FormatOperationID("get /api/users"))
}

func TestBuilderBuild(t *testing.T) {
	b := NewBuilder(Info{Title: "Test API", Version: "1.0.0"}).
		AddServer(Server{URL: "http://localhost:3333"}).
		AddSecurityScheme("BearerAuth", &SecurityScheme{Type: "http", Scheme: "bearer"}).
		SetAuth("BearerAuth", "auth", "auth:api")

	b.AddOperation(Route{Method: "get", Pattern: "/api/users", Handler: "UsersController.index"}, nil)
	b.AddOperation(Route{Method: http.MethodHead, Pattern: "/api/users"}, nil)
	b.AddOperation(Route{
		Method:     http.MethodGet,
		Pattern:    "/api/users/:id",
		Middleware: []string{"auth"},
		Handler:    "UsersController.show",
	}, &Operation{
		Summary: "Get user",
		Parameters: []*Parameter{
			{Name: "id", In: "path", Required: true, Description: "User id", Schema: &Schema{Type: "integer"}},
			{Name: "include", In: "query", Schema: &Schema{Type: "string"}},
		},
		Responses: map[string]*Response{
			"200": {
				Description: "Returns 200 (OK) as application/json",
				Content:     map[string]*MediaType{"application/json": {Schema: RefTo("User")}},
			},
		},
	})
	b.AddOperation(Route{Method: http.MethodPost, Pattern: "/api/posts", Middleware: []string{"throttle"}}, &Operation{
		Tags: []string{"Blog"},
	})

	doc := b.Build(map[string]*Schema{"User": {Type: "object"}})

	assert.Equal(t, Version, doc.OpenAPI)
	assert.Equal(t, "Test API", doc.Info.Title)
	require.Len(t, doc.Servers, 1)

	t.Run("paths", func(t *testing.T) {
		require.Len(t, doc.Paths, 3)
		assert.Nil(t, doc.Paths["/api/users"].Head)
		require.NotNil(t, doc.Paths["/api/users"].Get)
		require.NotNil(t, doc.Paths["/api/users/{id}"].Get)
		require.NotNil(t, doc.Paths["/api/posts"].Post)
	})

	t.Run("defaults", func(t *testing.T) {
		op := doc.Paths["/api/users"].Get
		assert.Equal(t, []string{"USERS"}, op.Tags)
		assert.Equal(t, "usersControllerIndex", op.OperationID)
		require.Contains(t, op.Responses, "200")
		assert.Equal(t, "Returns 200 (OK)", op.Responses["200"].Description)
		assert.Nil(t, op.Security)
		assert.Nil(t, op.Parameters)
	})

	t.Run("parameters", func(t *testing.T) {
		op := doc.Paths["/api/users/{id}"].Get
		require.Len(t, op.Parameters, 2)
		assert.Equal(t, "id", op.Parameters[0].Name)
		assert.Equal(t, "User id", op.Parameters[0].Description)
		assert.Equal(t, "integer", op.Parameters[0].Schema.Type)
		assert.Equal(t, "include", op.Parameters[1].Name)
	})

	t.Run("security", func(t *testing.T) {
		op := doc.Paths["/api/users/{id}"].Get
		assert.Equal(t, []SecurityRequirement{{"BearerAuth": {}}}, op.Security)
		assert.Nil(t, doc.Paths["/api/posts"].Post.Security)
	})

	t.Run("tags", func(t *testing.T) {
		post := doc.Paths["/api/posts"].Post
		assert.Equal(t, []string{"Blog"}, post.Tags)
		assert.Equal(t, "postApiPosts", post.OperationID)
		assert.Equal(t, []Tag{{Name: "Blog"}, {Name: "USERS"}}, doc.Tags)
	})

	t.Run("components", func(t *testing.T) {
		require.NotNil(t, doc.Components)
		assert.Contains(t, doc.Components.Schemas, "User")
		assert.Contains(t, doc.Components.SecuritySchemes, "BearerAuth")
	})
}

func TestBuilderTagIndex(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		pattern string
		want    []string
	}{
		{name: "first segment", index: 1, pattern: "/users/:id", want: []string{"USERS"}},
		{name: "parameter segment", index: 2, pattern: "/users/:id", want: nil},
		{name: "out of range", index: 5, pattern: "/users", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewBuilder(Info{Title: "T", Version: "1"}).
				SetTagIndex(tt.index).
				AddOperation(Route{Method: http.MethodGet, Pattern: tt.pattern}, nil).
				Build(nil)

			path, _ := ParsePattern(tt.pattern)
			assert.Equal(t, tt.want, doc.Paths[path].Get.Tags)
			assert.Nil(t, doc.Components)
		})
	}
}

func TestBuilderOperationNotMutated(t *testing.T) {
	op := &Operation{Summary: "List"}
	NewBuilder(Info{Title: "T", Version: "1"}).
		AddOperation(Route{Method: http.MethodGet, Pattern: "/api/items/:id"}, op).
		Build(nil)

	assert.Empty(t, op.Tags)
	assert.Empty(t, op.OperationID)
	assert.Nil(t, op.Parameters)
	assert.Nil(t, op.Responses)
}

func TestBuilderDocumentValidates(t *testing.T) {
	minLen := 2
	schemas := map[string]*Schema{
		"User": {
			Type:     "object",
			Required: []string{"id", "email"},
			Properties: map[string]*Schema{
				"id":    {Type: "integer", Example: 1},
				"email": {Type: "string", Format: "email", Example: "johndoe@example.com"},
				"name":  {Type: "string", MinLength: &minLen, Nullable: true, Example: "John Doe"},
				"tags":  ArrayOf(&Schema{Type: "string", Example: "admin"}),
			},
			Example: map[string]any{"id": 1, "email": "johndoe@example.com", "name": "John Doe", "tags": []any{"admin"}},
		},
	}

	b := NewBuilder(Info{Title: "Test API", Version: "1.0.0"}).
		AddSecurityScheme("BearerAuth", &SecurityScheme{Type: "http", Scheme: "bearer"}).
		SetAuth("BearerAuth", "auth")

	b.AddOperation(Route{Method: http.MethodGet, Pattern: "/api/users/:id", Middleware: []string{"auth"}, Handler: "UsersController.show"}, &Operation{
		Responses: map[string]*Response{
			"200": {
				Description: "Returns 200 (OK) as application/json",
				Content:     map[string]*MediaType{"application/json": {Schema: RefTo("User")}},
			},
		},
	})
	b.AddOperation(Route{Method: http.MethodPost, Pattern: "/api/users", Handler: "UsersController.store"}, &Operation{
		RequestBody: &RequestBody{
			Content: map[string]*MediaType{"application/json": {Schema: RefTo("User")}},
		},
	})
	b.AddOperation(Route{Method: http.MethodDelete, Pattern: "/api/users/:id?"}, nil)

	data, err := b.Build(schemas).JSON()
	require.NoError(t, err)

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	require.NoError(t, err)
	require.NoError(t, doc.Validate(context.Background()))

	assert.Equal(t, "usersControllerShow", doc.Paths.Find("/api/users/{id}").Get.OperationID)
	assert.NotNil(t, doc.Components.Schemas["User"])
}
