package registry

import (
	"errors"
	"maps"
	"slices"

	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/resolver"
	"github.com/vitalvas/autoswag/source"
)

// ErrFrozen is returned when registering into a frozen registry.
var ErrFrozen = errors.New("registry is frozen")

// Registry maps component names to schemas. Registering an existing name
// replaces it. The registry is not safe for concurrent use.
type Registry struct {
	schemas map[string]*openapi.Schema
	frozen  bool
}

// New creates a registry holding the built-in schemas.
func New() *Registry {
	r := &Registry{schemas: make(map[string]*openapi.Schema)}
	for name, s := range builtins() {
		r.schemas[name] = s
	}
	return r
}

func builtins() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		source.AnySchema: {
			Description: "Any JSON object not defined as schema",
		},
		resolver.PaginationMeta: {
			Type:        "object",
			Description: "Pagination metadata (Interface)",
			Properties: map[string]*openapi.Schema{
				"total":           {Type: "integer", Example: 100},
				"perPage":         {Type: "integer", Example: 10},
				"currentPage":     {Type: "integer", Example: 1},
				"lastPage":        {Type: "integer", Example: 10},
				"firstPage":       {Type: "integer", Example: 1},
				"firstPageUrl":    {Type: "string", Example: "/?page=1"},
				"lastPageUrl":     {Type: "string", Example: "/?page=10"},
				"nextPageUrl":     {Type: "string", Nullable: true, Example: "/?page=2"},
				"previousPageUrl": {Type: "string", Nullable: true, Example: "/?page=1"},
			},
		},
	}
}

// Register stores s under name.
func (r *Registry) Register(name string, s *openapi.Schema) error {
	if r.frozen {
		return ErrFrozen
	}
	r.schemas[name] = s
	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*openapi.Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Len returns the number of registered schemas, built-ins included.
func (r *Registry) Len() int {
	return len(r.schemas)
}

// Names returns the registered names in lexical order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.schemas))
}

// Schemas returns a copy of the name to schema map.
func (r *Registry) Schemas() map[string]*openapi.Schema {
	return maps.Clone(r.schemas)
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	return r.frozen
}
