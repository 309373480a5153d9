package checkpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const stateSchemaURL = "schema://generation_state.json"

// stateSchema describes generation_state.json. seed and catalog are
// optional so records written before they existed still load.
const stateSchema = `{
  "type": "object",
  "required": ["items_generated", "chars_generated", "cursor"],
  "properties": {
    "items_generated": {"type": "integer", "minimum": 0},
    "chars_generated": {"type": "integer", "minimum": 0},
    "cursor":          {"type": "integer", "minimum": 0},
    "budget_used":     {"type": "number", "minimum": 0},
    "timestamp":       {"type": "string"},
    "seed":            {"type": "integer", "minimum": 0},
    "catalog":         {"type": "string"}
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func stateValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(stateSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse state schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(stateSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(stateSchemaURL)
	})
	return compiledSchema, compileErr
}

// validateState checks raw against the state schema.
func validateState(raw []byte) error {
	sch, err := stateValidator()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return nil
}
