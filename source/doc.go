// Package source converts declarative source files (ORM model classes,
// interface and type declarations, enumerations) into component schemas.
//
// The parsers are line oriented. They share a Scanner that yields the
// significant lines of a file together with the line immediately before it,
// which is where field level annotations such as @example(...) live.
package source
