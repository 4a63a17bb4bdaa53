// Package registry holds the component schemas of a run and the aggregator
// that fills it from declaration, model, validator and enum sources.
package registry
