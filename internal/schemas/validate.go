// Package schemas validates JSON documents against JSON Schemas.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/career-path/internal/errs"
	rootschemas "github.com/jonathan/career-path/schemas"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// Summary renders the errors on one line.
func (ve *ValidationError) Summary() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, err := range ve.Errors {
		parts = append(parts, err.Field+": "+err.Message)
	}
	return strings.Join(parts, "; ")
}

// ValidateJSON validates a JSON file against a JSON Schema file
func ValidateJSON(schemaPath, jsonPath string) error {
	schemaAbsPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to resolve schema path: %w", err)
	}
	jsonAbsPath, err := filepath.Abs(jsonPath)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}

	if _, err := os.Stat(schemaAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("schema file not found: %s", schemaAbsPath)
	}
	if _, err := os.Stat(jsonAbsPath); os.IsNotExist(err) {
		return fmt.Errorf("JSON file not found: %s", jsonAbsPath)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewReferenceLoader("file://"+schemaAbsPath),
		gojsonschema.NewReferenceLoader("file://"+jsonAbsPath),
	)
	if err != nil {
		return &SchemaLoadError{Path: schemaAbsPath, Message: "schema validation failed during load", Cause: err}
	}
	return resultError(result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(jsonContent),
	)
	if err != nil {
		return &SchemaLoadError{Path: "(string schema)", Message: "schema validation failed during load", Cause: err}
	}
	return resultError(result)
}

var (
	profileOnce   sync.Once
	profileSchema *gojsonschema.Schema
	profileErr    error
)

// ValidateProfile checks a model-produced profile document against the
// embedded profile schema. Malformed JSON and schema violations both come back
// as *errs.SchemaError.
func ValidateProfile(jsonContent string) error {
	profileOnce.Do(func() {
		profileSchema, profileErr = gojsonschema.NewSchema(
			gojsonschema.NewStringLoader(rootschemas.MustRead(rootschemas.ProfileFile)),
		)
	})
	if profileErr != nil {
		return &SchemaLoadError{Path: rootschemas.ProfileFile, Message: "failed to compile schema", Cause: profileErr}
	}

	result, err := profileSchema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return &errs.SchemaError{Message: "response is not valid JSON", Cause: err}
	}
	if verr := resultError(result); verr != nil {
		return &errs.SchemaError{Message: verr.(*ValidationError).Summary(), Cause: verr}
	}
	return nil
}

func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
