package layout

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidStructure is returned when layout JSON does not match the expected shape.
var ErrInvalidStructure = errors.New("invalid layout structure")

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("layout.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to load layout schema: %w", err)
	}
	schema, err := compiler.Compile("layout.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile layout schema: %w", err)
	}
	return schema, nil
})

// Validate checks raw layout JSON against the embedded schema. Extra fields the
// runtime emits (bboxes on blocks, scores, ids) are allowed.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return nil
}
