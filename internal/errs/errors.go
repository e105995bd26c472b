// Package errs defines the error taxonomy shared by every career-path component.
package errs

import (
	"errors"
	"fmt"
)

// Kind names a category of failure.
type Kind string

// Error kinds
const (
	KindConfig       Kind = "config"
	KindInput        Kind = "input"
	KindSchema       Kind = "schema"
	KindUpstream     Kind = "upstream"
	KindNotFound     Kind = "not_found"
	KindPrecondition Kind = "precondition"
	KindUnknown      Kind = "unknown"
)

// ConfigError represents missing or invalid credentials or model identifiers
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// InputError represents malformed or empty input handed to a component
type InputError struct {
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid input: %s", e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// SchemaError represents a vector dimension mismatch or a JSON document
// that does not satisfy its schema
type SchemaError struct {
	Message string
	Field   string
	Cause   error
}

func (e *SchemaError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("schema error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("schema error: %s", msg)
}

func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// UpstreamError represents an LLM provider or index I/O failure, including timeouts
type UpstreamError struct {
	Message string
	Cause   error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream error: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// NotFoundError represents an absent file or index entry
type NotFoundError struct {
	Resource string
	ID       string
	Cause    error
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// PreconditionError represents a driver call made in the wrong session state
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed: %s", e.Message)
}

// KindOf reports the kind of the first taxonomy error found in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var configErr *ConfigError
	var inputErr *InputError
	var schemaErr *SchemaError
	var upstreamErr *UpstreamError
	var notFoundErr *NotFoundError
	var preconditionErr *PreconditionError

	switch {
	case errors.As(err, &configErr):
		return KindConfig
	case errors.As(err, &preconditionErr):
		return KindPrecondition
	case errors.As(err, &inputErr):
		return KindInput
	case errors.As(err, &schemaErr):
		return KindSchema
	case errors.As(err, &notFoundErr):
		return KindNotFound
	case errors.As(err, &upstreamErr):
		return KindUpstream
	default:
		return KindUnknown
	}
}

// IsConfig reports whether err carries a ConfigError.
func IsConfig(err error) bool {
	return KindOf(err) == KindConfig
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	return KindOf(err) == KindUpstream
}

// IsNotFound reports whether err carries a NotFoundError.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
