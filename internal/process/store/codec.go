package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"clarity/internal/process/models"
)

//go:embed schema/processes.schema.json
var processesSchema string

const schemaURL = "https://clarity.local/schemas/processes.schema.json"

// compileSchema builds the validator for the persisted layout.
func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader([]byte(processesSchema))); err != nil {
		return nil, fmt.Errorf("processes schema load failed: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("processes schema compile failed: %w", err)
	}
	return compiled, nil
}

// Encode serializes processes in the persisted layout: one JSON array, most
// recent first.
func Encode(processes []*models.Process) ([]byte, error) {
	if processes == nil {
		processes = []*models.Process{}
	}
	data, err := json.Marshal(processes)
	if err != nil {
		return nil, fmt.Errorf("encode processes: %w", err)
	}
	return data, nil
}

// Decode parses and checks a persisted blob. A nil schema skips the check.
func Decode(data []byte, schema *jsonschema.Schema) ([]*models.Process, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []*models.Process{}, nil
	}
	if schema != nil {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode processes: %w", err)
		}
		if err := schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("processes schema validation failed: %w", err)
		}
	}
	var processes []*models.Process
	if err := json.Unmarshal(data, &processes); err != nil {
		return nil, fmt.Errorf("decode processes: %w", err)
	}
	out := make([]*models.Process, 0, len(processes))
	for _, p := range processes {
		if p == nil {
			continue
		}
		p.Normalize()
		out = append(out, p)
	}
	return out, nil
}
