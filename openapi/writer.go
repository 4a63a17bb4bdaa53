package openapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Output file names written by WriteFiles.
const (
	JSONFile = "swagger.json"
	YAMLFile = "swagger.yml"
)

// JSON encodes the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML encodes the document as YAML. The JSON encoding is the source
// of truth (field names, flattened schema extensions); it is re-read as a
// YAML node tree so key order is kept, then emitted in block style.
func (d *Document) YAML() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)

	return yaml.Marshal(&node)
}

// blockStyle clears the flow and quoting styles the JSON input left on the
// tree. Strings that would read as another type stay quoted on output.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// WriteFiles writes the document to dir as JSON and YAML, creating dir when
// needed.
func WriteFiles(doc *Document, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	jsonData, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	yamlData, err := doc.YAML()
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, JSONFile), jsonData, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, YAMLFile), yamlData, 0o644)
}
