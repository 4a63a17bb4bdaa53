// Package annotation locates the directive comment block attached to a
// handler action and turns it into an operation descriptor.
package annotation
