// Package resolver turns inline reference markers (<Name>, <Name[]>) and JSON
// literals into schema references and synthesized example values.
package resolver
