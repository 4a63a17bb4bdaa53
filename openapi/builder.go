package openapi

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/vitalvas/autoswag/internal/textcase"
)

// Route is one application route. Pattern uses the ":name" placeholder
// syntax; a trailing "?" marks an optional segment ("/posts/:id?").
type Route struct {
	Method     string
	Pattern    string
	Middleware []string

	// Handler is the handler reference ("UsersController.show") the default
	// operationId is derived from.
	Handler string
}

type routeOperation struct {
	route Route
	op    *Operation
}

// Builder collects route operations and assembles a Document.
type Builder struct {
	info            Info
	servers         []Server
	tagIndex        int
	securitySchemes map[string]*SecurityScheme
	defaultSecurity string
	authMiddlewares []string
	operations      []routeOperation
}

// NewBuilder creates a builder for a document with the given info. Tags are
// taken from the second path segment ("/api/users" -> "USERS") unless
// SetTagIndex says otherwise.
func NewBuilder(info Info) *Builder {
	return &Builder{info: info, tagIndex: 2}
}

// AddServer adds a server to the document.
func (b *Builder) AddServer(server Server) *Builder {
	b.servers = append(b.servers, server)
	return b
}

// SetTagIndex selects the "/"-separated pattern segment used as the tag of
// operations without an explicit tag. Index 0 is the empty segment before the
// leading slash.
func (b *Builder) SetTagIndex(index int) *Builder {
	b.tagIndex = index
	return b
}

// AddSecurityScheme registers a reusable security scheme in components.
func (b *Builder) AddSecurityScheme(name string, scheme *SecurityScheme) *Builder {
	if b.securitySchemes == nil {
		b.securitySchemes = make(map[string]*SecurityScheme)
	}
	b.securitySchemes[name] = scheme
	return b
}

// SetAuth marks operations of routes using one of middlewares as secured by
// the named scheme.
func (b *Builder) SetAuth(scheme string, middlewares ...string) *Builder {
	b.defaultSecurity = scheme
	b.authMiddlewares = middlewares
	return b
}

// AddOperation records the operation of a route. A nil operation documents
// the route from its pattern alone.
func (b *Builder) AddOperation(route Route, op *Operation) *Builder {
	if op == nil {
		op = &Operation{}
	}
	b.operations = append(b.operations, routeOperation{route: route, op: op})
	return b
}

// Build assembles the document. HEAD routes are left out; schemas become the
// component schemas.
func (b *Builder) Build(schemas map[string]*Schema) *Document {
	doc := &Document{
		OpenAPI: Version,
		Info:    b.info,
		Servers: b.servers,
		Paths:   make(map[string]*PathItem),
	}

	for _, ro := range b.operations {
		method := strings.ToUpper(ro.route.Method)
		if method == http.MethodHead {
			continue
		}

		path, pathParams := ParsePattern(ro.route.Pattern)

		pathItem, ok := doc.Paths[path]
		if !ok {
			pathItem = &PathItem{}
			doc.Paths[path] = pathItem
		}

		assignOperation(pathItem, method, b.buildOperation(ro.route, ro.op, pathParams))
	}

	if len(schemas) > 0 || len(b.securitySchemes) > 0 {
		doc.Components = &Components{}
		if len(schemas) > 0 {
			doc.Components.Schemas = schemas
		}
		if len(b.securitySchemes) > 0 {
			doc.Components.SecuritySchemes = b.securitySchemes
		}
	}

	doc.Tags = collectTags(doc.Paths)

	return doc
}

func (b *Builder) buildOperation(route Route, src *Operation, pathParams []*Parameter) *Operation {
	op := *src

	op.Parameters = mergeParameters(pathParams, src.Parameters)

	if len(op.Tags) == 0 {
		if tag := b.patternTag(route.Pattern); tag != "" {
			op.Tags = []string{tag}
		}
	}

	if op.OperationID == "" {
		ref := route.Handler
		if ref == "" {
			ref = strings.ToLower(route.Method) + " " + route.Pattern
		}
		op.OperationID = FormatOperationID(ref)
	}

	if len(op.Responses) == 0 {
		op.Responses = map[string]*Response{
			"200": {Description: fmt.Sprintf("Returns 200 (%s)", http.StatusText(http.StatusOK))},
		}
	}

	if op.Security == nil && b.secured(route.Middleware) {
		op.Security = []SecurityRequirement{{b.defaultSecurity: {}}}
	}

	return &op
}

func (b *Builder) patternTag(pattern string) string {
	segments := strings.Split(pattern, "/")
	if b.tagIndex >= len(segments) {
		return ""
	}
	segment := segments[b.tagIndex]
	if segment == "" || strings.HasPrefix(segment, ":") {
		return ""
	}
	return strings.ToUpper(segment)
}

func (b *Builder) secured(middleware []string) bool {
	if b.defaultSecurity == "" {
		return false
	}
	for _, m := range middleware {
		if slices.Contains(b.authMiddlewares, m) {
			return true
		}
	}
	return false
}

// ParsePattern converts a ":name" route pattern to an OpenAPI path and
// returns its path parameters. The "?" suffix of optional segments is
// dropped: OpenAPI path parameters are always required.
//
// See: https://spec.openapis.org/oas/v3.0.3#fixed-fields-9
func ParsePattern(pattern string) (string, []*Parameter) {
	var params []*Parameter

	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	for i, segment := range segments {
		name, ok := strings.CutPrefix(segment, ":")
		if !ok {
			continue
		}
		name = strings.TrimSuffix(name, "?")

		params = append(params, &Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: "string"},
		})
		segments[i] = "{" + name + "}"
	}

	return "/" + strings.Join(segments, "/"), params
}

// mergeParameters puts path parameters first; an annotated parameter with
// the same name and location replaces the generated one.
func mergeParameters(path, annotated []*Parameter) []*Parameter {
	if len(path) == 0 && len(annotated) == 0 {
		return nil
	}

	out := make([]*Parameter, 0, len(path)+len(annotated))
	for _, p := range path {
		idx := slices.IndexFunc(annotated, func(a *Parameter) bool {
			return a.Name == p.Name && a.In == p.In
		})
		if idx >= 0 {
			out = append(out, annotated[idx])
			continue
		}
		out = append(out, p)
	}
	for _, a := range annotated {
		if !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

// FormatOperationID renders a handler reference as a camelCase operationId
// ("#controllers/users_controller.index" -> "controllersUsersControllerIndex").
func FormatOperationID(ref string) string {
	return textcase.Camel(ref)
}

// collectTags returns the distinct operation tags in lexical order.
func collectTags(paths map[string]*PathItem) []Tag {
	seen := make(map[string]bool)
	var tags []Tag

	for _, pathItem := range paths {
		for _, op := range pathItem.operations() {
			for _, name := range op.Tags {
				if seen[name] {
					continue
				}
				seen[name] = true
				tags = append(tags, Tag{Name: name})
			}
		}
	}

	slices.SortFunc(tags, func(a, b Tag) int {
		return strings.Compare(a.Name, b.Name)
	})

	return tags
}

func (p *PathItem) operations() []*Operation {
	var ops []*Operation
	for _, op := range []*Operation{p.Get, p.Post, p.Put, p.Delete, p.Patch, p.Head, p.Options, p.Trace} {
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops
}

// assignOperation assigns an operation to the field of its HTTP method.
func assignOperation(pathItem *PathItem, method string, op *Operation) {
	switch method {
	case http.MethodGet:
		pathItem.Get = op
	case http.MethodPost:
		pathItem.Post = op
	case http.MethodPut:
		pathItem.Put = op
	case http.MethodDelete:
		pathItem.Delete = op
	case http.MethodPatch:
		pathItem.Patch = op
	case http.MethodHead:
		pathItem.Head = op
	case http.MethodOptions:
		pathItem.Options = op
	case http.MethodTrace:
		pathItem.Trace = op
	}
}
