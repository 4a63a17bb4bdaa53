package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

const componentsResource = "components.json"

// Mismatch is a component whose example does not satisfy its own schema.
type Mismatch struct {
	Name string
	Err  error
}

// Verify validates the example of every registered schema against the schema
// itself and logs each mismatch. Inferred validator schemas are refined in a
// single pass, so a mismatch is not fatal. The error is reserved for a
// registry that cannot be encoded and for a cancelled context.
func (a *Aggregator) Verify(ctx context.Context) ([]Mismatch, error) {
	schemas := a.registry.Schemas()

	raw, err := json.Marshal(map[string]any{
		"components": map[string]any{"schemas": schemas},
	})
	if err != nil {
		return nil, fmt.Errorf("encode components: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode components: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft4)
	if err := compiler.AddResource(componentsResource, doc); err != nil {
		return nil, fmt.Errorf("add components resource: %w", err)
	}

	var mismatches []Mismatch
	for _, name := range a.registry.Names() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s := schemas[name]
		if s.Example == nil {
			continue
		}

		if err := verifyExample(compiler, name, s.Example); err != nil {
			a.logger.Warn("schema example does not match schema",
				zap.String("schema", name),
				zap.Error(err),
			)
			mismatches = append(mismatches, Mismatch{Name: name, Err: err})
		}
	}

	return mismatches, nil
}

func verifyExample(compiler *jsonschema.Compiler, name string, example any) error {
	sch, err := compiler.Compile(componentsResource + "#/components/schemas/" + name)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(example)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	return sch.Validate(inst)
}
