// Package inference derives an object schema and example from a validator
// whose scalar types are not disclosed by its structural dump.
//
// The engine builds a schema from the dump, derives a hypothesis value from
// it, runs the validator once against the hypothesis and applies the
// reported TYPE and FORMAT failures in a single refinement pass. It does not
// re-probe after refinement, so a field whose corrected type still violates
// another rule keeps a partially refined schema.
package inference
