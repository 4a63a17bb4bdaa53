// Package rules defines request validators whose structure can be dumped and
// whose rules can be executed against arbitrary values.
//
// A validator is declared with a small DSL:
//
//	v, err := rules.New(rules.Object(
//	    rules.F("email", rules.String().Email()),
//	    rules.F("age", rules.Number().Min(18).Optional()),
//	    rules.F("tags", rules.Array(rules.String())),
//	))
//
// Describe returns the structural dump (scalar types are not disclosed, they
// dump as "literal"), and TryValidate executes the rules through
// go-playground/validator, reporting one failure per field.
package rules
