package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/config"
	"github.com/vitalvas/autoswag/openapi"
)

const usersController = `export default class UsersController {
  /**
   * @index
   * @summary List users
   * @paramQuery page - page number - @type(integer)
   * @responseBody 200 - <User[]>
   */
  async index() {}

  /**
   * @show
   * @summary Show user
   * @paramPath id - user id
   */
  async show() {}
}
`

const userModel = `export default class User extends BaseModel {
  declare id: number

  declare email: string
}
`

const routesDocument = `routes:
  - methods: [GET, HEAD]
    pattern: /api/users
    handler: "#controllers/users_controller.index"
  - pattern: /api/users/:id
    handler: UsersController.show
    middleware: [auth]
  - methods: [DELETE]
    pattern: /api/users/:id
  - pattern: /health
    handler: HealthController.check
`

type project struct {
	root       string
	configPath string
	routesPath string
	output     string
}

func newProject(t *testing.T) project {
	t.Helper()
	root := t.TempDir()

	p := project{
		root:       root,
		configPath: filepath.Join(root, "autoswag.yml"),
		routesPath: filepath.Join(root, "routes.yml"),
		output:     filepath.Join(root, "docs"),
	}

	files := map[string]string{
		"app/controllers/users_controller.ts": usersController,
		"app/models/user.ts":                  userModel,
		"routes.yml":                          routesDocument,
		"autoswag.yml": fmt.Sprintf(`title: Pet Store
version: 2.0.0
app_path: %s
output: %s
ignore: ["/health"]
log: {level: warn}
`, filepath.Join(root, "app"), p.output),
	}

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	return p
}

func TestBuildDocument(t *testing.T) {
	p := newProject(t)

	cfg, err := config.Load(p.configPath)
	require.NoError(t, err)
	routes, err := loadRoutes(p.routesPath)
	require.NoError(t, err)

	doc, err := buildDocument(context.Background(), cfg, routes, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "Pet Store", doc.Info.Title)
	assert.Equal(t, "2.0.0", doc.Info.Version)
	require.Len(t, doc.Paths, 2)
	assert.NotContains(t, doc.Paths, "/health")

	t.Run("annotated operation", func(t *testing.T) {
		op := doc.Paths["/api/users"].Get
		require.NotNil(t, op)
		assert.Nil(t, doc.Paths["/api/users"].Head)

		assert.Equal(t, "List users", op.Summary)
		assert.Equal(t, "controllersUsersControllerIndex", op.OperationID)
		assert.Equal(t, []string{"USERS"}, op.Tags)
		require.Len(t, op.Parameters, 1)
		assert.Equal(t, "page", op.Parameters[0].Name)
		require.Contains(t, op.Responses, "200")
		assert.Contains(t, op.Responses["200"].Content, "application/json")
		assert.Nil(t, op.Security)
	})

	t.Run("path parameters and security", func(t *testing.T) {
		op := doc.Paths["/api/users/{id}"].Get
		require.NotNil(t, op)

		assert.Equal(t, "Show user", op.Summary)
		require.Len(t, op.Parameters, 1)
		assert.Equal(t, "user id", op.Parameters[0].Description)
		assert.True(t, op.Parameters[0].Required)
		assert.Equal(t, []openapi.SecurityRequirement{{"BearerAuth": {}}}, op.Security)
	})

	t.Run("unannotated route", func(t *testing.T) {
		op := doc.Paths["/api/users/{id}"].Delete
		require.NotNil(t, op)

		assert.Equal(t, "deleteApiUsersId", op.OperationID)
		assert.Equal(t, "Returns 200 (OK)", op.Responses["200"].Description)
		require.Len(t, op.Parameters, 1)
		assert.Equal(t, "id", op.Parameters[0].Name)
	})

	t.Run("components", func(t *testing.T) {
		require.NotNil(t, doc.Components)
		for _, name := range []string{"Any", "PaginationMeta", "User"} {
			assert.Contains(t, doc.Components.Schemas, name)
		}
		assert.Contains(t, doc.Components.SecuritySchemes, "BearerAuth")
	})
}

func TestBuildDocumentCancelled(t *testing.T) {
	p := newProject(t)
	cfg, err := config.Load(p.configPath)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = buildDocument(ctx, cfg, nil, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

func newTestRoot(t *testing.T) (*bytes.Buffer, *bytes.Buffer, func(args ...string) error) {
	t.Helper()

	root := NewRootCmd()
	var out, errBuf bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errBuf)

	run := func(args ...string) error {
		root.SetArgs(args)
		return root.Execute()
	}
	return &out, &errBuf, run
}

func TestGenerateCommand(t *testing.T) {
	p := newProject(t)

	_, errBuf, run := newTestRoot(t)
	require.NoError(t, run("generate", "--config", p.configPath, "--routes", p.routesPath), errBuf.String())

	for _, name := range []string{openapi.JSONFile, openapi.YAMLFile} {
		info, err := os.Stat(filepath.Join(p.output, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestGenerateCommandErrors(t *testing.T) {
	p := newProject(t)

	t.Run("missing config", func(t *testing.T) {
		_, _, run := newTestRoot(t)
		err := run("generate", "--config", filepath.Join(p.root, "missing.yml"), "--routes", p.routesPath)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing routes", func(t *testing.T) {
		_, _, run := newTestRoot(t)
		err := run("generate", "--config", p.configPath, "--routes", filepath.Join(p.root, "missing.yml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("unexpected argument", func(t *testing.T) {
		_, _, run := newTestRoot(t)
		assert.Error(t, run("generate", "extra"))
	})
}

func TestVersionCommand(t *testing.T) {
	out, _, run := newTestRoot(t)
	require.NoError(t, run("version"))
	assert.Equal(t, version+"\n", out.String())
}

func TestParseDocsUI(t *testing.T) {
	tests := []struct {
		name    string
		want    openapi.DocsUI
		wantErr bool
	}{
		{name: "", want: openapi.DocsSwaggerUI},
		{name: "swagger", want: openapi.DocsSwaggerUI},
		{name: "rapidoc", want: openapi.DocsRapiDoc},
		{name: "redoc", want: openapi.DocsRedoc},
		{name: "scalar", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui, err := parseDocsUI(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ui)
		})
	}
}

func TestServe(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := http.NewServeMux()
	openapi.NewBuilder(openapi.Info{Title: "Pet Store", Version: "1.0.0"}).
		AddOperation(openapi.Route{Method: http.MethodGet, Pattern: "/api/pets"}, nil).
		Build(nil).
		Handle(mux, "/docs", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, listener, mux, zap.NewNop())
	}()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + listener.Addr().String() + "/docs/swagger.json")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"/api/pets"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
