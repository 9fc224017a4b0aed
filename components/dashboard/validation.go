package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ActionValidator checks a mutation payload before any network call.
type ActionValidator interface {
	Validate(def ActionDefinition, payload map[string]any) error
}

// JSONSchemaValidator compiles action schemas and validates payload maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate returns a *ValidationError listing failing fields.
func (v *JSONSchemaValidator) Validate(def ActionDefinition, payload map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	normalized := map[string]any{}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return &ValidationError{Action: def.Name, Cause: err}
		}
		if err := json.Unmarshal(data, &normalized); err != nil {
			return &ValidationError{Action: def.Name, Cause: err}
		}
	}
	if err := schema.Validate(normalized); err != nil {
		var schemaErr *jsonschema.ValidationError
		if errors.As(err, &schemaErr) {
			return &ValidationError{Action: def.Name, Fields: fieldMessages(schemaErr), Cause: err}
		}
		return &ValidationError{Action: def.Name, Cause: err}
	}
	return nil
}

func fieldMessages(root *jsonschema.ValidationError) map[string]string {
	fields := map[string]string{}
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := strings.TrimPrefix(e.InstanceLocation, "/")
			if field == "" {
				field = "payload"
			}
			if _, seen := fields[field]; !seen {
				fields[field] = e.Message
			}
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(root)
	return fields
}

func (v *JSONSchemaValidator) schemaFor(def ActionDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Name]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Name, err)
	}
	compiler := jsonschema.NewCompiler()
	name := def.Name + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Name, err)
	}
	v.mu.Lock()
	v.compiled[def.Name] = compiled
	v.mu.Unlock()
	return compiled, nil
}
