// Package textcase converts identifiers between naming conventions.
package textcase
