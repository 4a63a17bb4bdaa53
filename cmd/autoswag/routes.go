package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vitalvas/autoswag/internal/textcase"
)

var errInvalidRoute = errors.New("invalid route")

// route is one entry of the routes file:
//
//	routes:
//	  - methods: [GET, HEAD]
//	    pattern: /api/users/:id
//	    handler: "#controllers/users_controller.show"
//	    middleware: [auth]
//
// The annotated source is derived from the handler unless file and action
// are given.
type route struct {
	Methods    []string `yaml:"methods"`
	Pattern    string   `yaml:"pattern"`
	Handler    string   `yaml:"handler"`
	File       string   `yaml:"file"`
	Action     string   `yaml:"action"`
	Middleware []string `yaml:"middleware"`
}

type routesFile struct {
	Routes []route `yaml:"routes"`
}

func loadRoutes(path string) ([]route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes %s: %w", path, err)
	}

	var file routesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode routes %s: %w", path, err)
	}

	for i, r := range file.Routes {
		if r.Pattern == "" {
			return nil, fmt.Errorf("%w: entry %d has no pattern", errInvalidRoute, i)
		}
		if len(r.Methods) == 0 {
			file.Routes[i].Methods = []string{http.MethodGet}
		}
	}

	return file.Routes, nil
}

// source returns the annotated file and action of the route. Handlers are
// either import references ("#controllers/users_controller.show") resolved
// under controllers, or class references ("UsersController.show") whose file
// is the snake_cased class name.
func (r route) source(controllers string) (string, string) {
	file, action := r.File, r.Action
	if file != "" && action != "" {
		return file, action
	}

	ref, method, ok := cutLast(r.Handler, ".")
	if !ok {
		return file, action
	}
	if action == "" {
		action = method
	}
	if file != "" {
		return file, action
	}

	if rel, ok := strings.CutPrefix(ref, "#controllers/"); ok {
		return filepath.Join(controllers, filepath.FromSlash(rel)+".ts"), action
	}
	return filepath.Join(controllers, textcase.Snake(ref)+".ts"), action
}

func cutLast(s, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
