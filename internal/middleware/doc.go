// Package middleware wraps the documentation server's handler with panic
// recovery, access logging and gzip compression.
package middleware
