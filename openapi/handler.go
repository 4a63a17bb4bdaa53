package openapi

import (
	"encoding/json"
	"fmt"
	"html"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
)

// DocsUI selects which interactive documentation UI to serve.
type DocsUI int

const (
	DocsSwaggerUI DocsUI = iota
	DocsRapiDoc
	DocsRedoc
)

// HandleConfig configures the endpoints registered by Handle.
type HandleConfig struct {
	// UI selects the interactive docs UI (default: DocsSwaggerUI).
	UI DocsUI

	// Title overrides the HTML page title (default: info.title).
	Title string

	// JSONFilename is the path of the JSON endpoint (default: JSONFile).
	// Set to "-" to disable. Relative paths are joined with the base path:
	//
	//	"swagger.json"      -> <basePath>/swagger.json
	//	"/api/swagger.json" -> /api/swagger.json
	JSONFilename string

	// YAMLFilename is the path of the YAML endpoint (default: YAMLFile).
	// Set to "-" to disable. Follows the JSONFilename rules.
	YAMLFilename string

	// DisableDocs disables the interactive HTML docs endpoint.
	DisableDocs bool

	// PersistAuthorization keeps Swagger UI credentials across reloads.
	PersistAuthorization bool

	// SwaggerUIConfig holds extra SwaggerUIBundle options, rendered as
	// JavaScript object properties next to url and dom_id.
	//
	// See: https://swagger.io/docs/open-source-tools/swagger-ui/usage/configuration/
	SwaggerUIConfig map[string]any
}

func (cfg HandleConfig) jsonFilename() string {
	if cfg.JSONFilename == "" {
		return JSONFile
	}
	return cfg.JSONFilename
}

func (cfg HandleConfig) yamlFilename() string {
	if cfg.YAMLFilename == "" {
		return YAMLFile
	}
	return cfg.YAMLFilename
}

// resolvePath returns the route path of a filename. Absolute filenames are
// returned as-is.
func resolvePath(basePath, filename string) string {
	if strings.HasPrefix(filename, "/") {
		return filename
	}
	if basePath == "" {
		return "/" + filename
	}
	return basePath + "/" + filename
}

// Handle registers the documentation endpoints of d under basePath:
//
//	<basePath>/         interactive HTML docs (unless DisableDocs)
//	<JSONFilename path> the document as JSON (unless "-")
//	<YAMLFilename path> the document as YAML (unless "-")
//
// Pass nil for the default configuration. Each body is encoded once, on the
// first request.
func (d *Document) Handle(mux *http.ServeMux, basePath string, cfg *HandleConfig) {
	if cfg == nil {
		cfg = &HandleConfig{}
	}
	basePath = strings.TrimRight(basePath, "/")

	var jsonPath, yamlPath string

	if file := cfg.jsonFilename(); file != "-" {
		jsonPath = resolvePath(basePath, file)
		mux.HandleFunc(jsonPath, encodedHandler("application/json", d.JSON))
	}

	if file := cfg.yamlFilename(); file != "-" {
		yamlPath = resolvePath(basePath, file)
		mux.HandleFunc(yamlPath, encodedHandler("application/x-yaml", d.YAML))
	}

	if cfg.DisableDocs {
		return
	}

	specURL := jsonPath
	if specURL == "" {
		specURL = yamlPath
	}
	if specURL == "" {
		return
	}

	title := cfg.Title
	if title == "" {
		title = d.Info.Title
	}
	docs := docsHandler(cfg, title, specURL)

	// "{$}" keeps the docs page from matching the whole subtree.
	if basePath == "" {
		mux.HandleFunc("/{$}", docs)
		return
	}
	mux.HandleFunc(basePath, docs)
	mux.HandleFunc(basePath+"/{$}", docs)
}

func encodedHandler(contentType string, encode func() ([]byte, error)) http.HandlerFunc {
	var (
		once sync.Once
		data []byte
		err  error
	)
	return func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() {
			data, err = encode()
		})
		if err != nil {
			http.Error(w, "failed to encode OpenAPI document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func docsHandler(cfg *HandleConfig, title, specURL string) http.HandlerFunc {
	var page string
	switch cfg.UI {
	case DocsRapiDoc:
		page = rapidocTemplate(title, specURL)
	case DocsRedoc:
		page = redocTemplate(title, specURL)
	default:
		options := maps.Clone(cfg.SwaggerUIConfig)
		if cfg.PersistAuthorization {
			if options == nil {
				options = make(map[string]any)
			}
			options["persistAuthorization"] = true
		}
		page = swaggerUITemplate(title, specURL, options)
	}
	data := []byte(page)

	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func swaggerUITemplate(title, specPath string, options map[string]any) string {
	var extra strings.Builder
	for _, k := range slices.Sorted(maps.Keys(options)) {
		v, err := json.Marshal(options[k])
		if err != nil {
			continue
		}
		fmt.Fprintf(&extra, ", %s: %s", k, v)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"%s});
</script>
</body>
</html>`, html.EscapeString(title), specPath, extra.String())
}

func rapidocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>%s</title>
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url=%q render-style="read"></rapi-doc>
</body>
</html>`, html.EscapeString(title), specPath)
}

func redocTemplate(title, specPath string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>%s</title>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, html.EscapeString(title), specPath)
}
