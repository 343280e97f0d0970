package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	apperrors "github.com/reglet-dev/parserkit/internal/application/errors"
	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

// SchemaDocument renders config schema items as a JSON Schema (draft 2020-12)
// for an object keyed by config ID. Undeclared keys are allowed; the plugin
// ignores them.
func SchemaDocument(items []parsersdk.ConfigSchemaItem) map[string]any {
	properties := make(map[string]any, len(items))
	for _, item := range items {
		prop := map[string]any{"title": item.Title}
		if item.Description != nil {
			prop["description"] = *item.Description
		}

		switch in := item.Input.(type) {
		case parsersdk.BooleanInput:
			prop["type"] = "boolean"
			prop["default"] = in.Default
		case parsersdk.IntegerInput:
			prop["type"] = "integer"
			prop["minimum"] = math.MinInt32
			prop["maximum"] = math.MaxInt32
			prop["default"] = in.Default
		case parsersdk.FloatInput:
			prop["type"] = "number"
			prop["default"] = in.Default
		case parsersdk.TextInput:
			prop["type"] = "string"
			prop["default"] = in.Default
		case parsersdk.DropdownInput:
			prop["type"] = "string"
			prop["enum"] = in.Options
			prop["default"] = in.Default
		case parsersdk.FilesInput:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
			if len(in.Extensions) > 0 {
				prop["x-extensions"] = in.Extensions
			}
		case parsersdk.DirectoriesInput:
			prop["type"] = "array"
			prop["items"] = map[string]any{"type": "string"}
		}
		properties[item.ID] = prop
	}

	return map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": properties,
	}
}

// ValidateDocument validates raw config values (e.g. the configs section of
// a plugin config file) against the schema document of items.
func ValidateDocument(items []parsersdk.ConfigSchemaItem, doc map[string]any) error {
	schemaBytes, err := json.Marshal(SchemaDocument(items))
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	// Normalize YAML-decoded values (uint64, int64, ...) into JSON types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode config document: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("failed to decode config document: %w", err)
	}

	if err := schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return apperrors.NewValidationError("configs", "config document does not match the plugin schema", collectMessages(validationErr)...)
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// collectMessages flattens a validation error tree into "location: message" lines.
func collectMessages(err *jsonschema.ValidationError) []string {
	var messages []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(err)
	if len(messages) == 0 {
		messages = append(messages, err.Error())
	}
	return messages
}
