// Package validate compiles the JSON Schemas for boundary documents
// and checks inbound payloads against them before typed decoding.
package validate

import (
	"embed"
	"fmt"
	"os"
	"sync"

	"github.com/kaptinlin/jsonschema"

	coreerrors "github.com/davidahmann/trustgate/core/errors"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	compileOnce sync.Once
	compileErr  error
	compiled    map[string]*jsonschema.Schema
)

const (
	intentSchemaName      = "intent"
	attestationSchemaName = "attestation"
)

// ValidateIntent checks a raw intent document against the embedded
// intent schema.
func ValidateIntent(data []byte) error {
	return validateEmbedded(intentSchemaName, data)
}

// ValidateAttestation checks a raw attestation document against the
// embedded attestation schema.
func ValidateAttestation(data []byte) error {
	return validateEmbedded(attestationSchemaName, data)
}

// ValidateJSONFile checks a JSON file against a schema file, for
// callers bringing their own schema documents.
func ValidateJSONFile(schemaPath, jsonPath string) error {
	schema, err := loadSchemaFile(schemaPath)
	if err != nil {
		return err
	}
	// #nosec G304 -- document path is explicit local user input.
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return coreerrors.Wrap(fmt.Errorf("read json: %w", err),
			coreerrors.CategoryIOFailure, "document_read",
			"check that the document file exists and is readable", false)
	}
	return validateJSON(schema, data)
}

// ValidateJSON checks raw JSON against a schema file.
func ValidateJSON(schemaPath string, data []byte) error {
	schema, err := loadSchemaFile(schemaPath)
	if err != nil {
		return err
	}
	return validateJSON(schema, data)
}

func validateEmbedded(name string, data []byte) error {
	if err := compileEmbedded(); err != nil {
		return err
	}
	schema, ok := compiled[name]
	if !ok {
		return fmt.Errorf("unknown embedded schema: %s", name)
	}
	return validateJSON(schema, data)
}

func compileEmbedded() error {
	compileOnce.Do(func() {
		compiled = make(map[string]*jsonschema.Schema, 2)
		for _, name := range []string{intentSchemaName, attestationSchemaName} {
			raw, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
			if err != nil {
				compileErr = fmt.Errorf("read embedded schema %s: %w", name, err)
				return
			}
			schema, err := compileSchema(raw)
			if err != nil {
				compileErr = fmt.Errorf("compile embedded schema %s: %w", name, err)
				return
			}
			compiled[name] = schema
		}
	})
	return compileErr
}

func loadSchemaFile(schemaPath string) (*jsonschema.Schema, error) {
	// #nosec G304 -- schema path is explicit local user input.
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, coreerrors.Wrap(fmt.Errorf("read schema: %w", err),
			coreerrors.CategoryIOFailure, "schema_read",
			"check that the schema file exists and is readable", false)
	}
	schema, err := compileSchema(data)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func compileSchema(data []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	return compiler.Compile(data)
}

func validateJSON(schema *jsonschema.Schema, data []byte) error {
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return coreerrors.Wrap(fmt.Errorf("schema validation failed: %v", result.Errors),
		coreerrors.CategoryInvalidInput, "schema_validation",
		"fix the document fields the schema rejected", false)
}
