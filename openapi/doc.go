// Package openapi holds the OpenAPI v3.0 document model and the pieces that
// assemble, encode, and serve it.
//
// See: https://spec.openapis.org/oas/v3.0.3
//
// # Builder
//
// Builder turns application routes and their annotated operations into a
// Document. Route patterns use ":name" placeholders which become "{name}"
// path parameters:
//
//	b := openapi.NewBuilder(openapi.Info{Title: "Pet Store", Version: "1.0.0"})
//	b.AddSecurityScheme("BearerAuth", &openapi.SecurityScheme{Type: "http", Scheme: "bearer"})
//	b.SetAuth("BearerAuth", "auth", "auth:api")
//
//	b.AddOperation(openapi.Route{
//	    Method:     http.MethodGet,
//	    Pattern:    "/api/users/:id",
//	    Middleware: []string{"auth"},
//	    Handler:    "UsersController.show",
//	}, op)
//
//	doc := b.Build(schemas)
//
// Operations without tags are tagged from the route pattern segment selected
// by SetTagIndex ("/api/users" -> "USERS"). Operations without an
// operationId get one from the camelCased handler reference. HEAD routes are
// skipped.
//
// # Schemas
//
// Schema is a single node type covering references, primitives, objects,
// and arrays. Keys without a dedicated field are kept in Extra and flattened
// on output:
//
//	s := openapi.RefTo("User")            // {"$ref": "#/components/schemas/User"}
//	list := openapi.ArrayOf(openapi.RefTo("User"))
//
// # Output
//
// WriteFiles writes swagger.json and swagger.yml. The YAML form keeps the
// key order of the JSON form.
//
// # Serving
//
// Handle mounts the documents and an interactive docs page on a ServeMux:
//
//	mux := http.NewServeMux()
//	doc.Handle(mux, "/docs", &openapi.HandleConfig{UI: openapi.DocsRapiDoc})
//
// This registers /docs/swagger.json, /docs/swagger.yml, and the docs page at
// /docs and /docs/.
package openapi
