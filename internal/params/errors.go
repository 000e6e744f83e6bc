// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package params

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNoModel indicates that no model has been selected.
	ErrNoModel = errors.New("no model selected")

	// ErrNoAPIKey indicates that a hosted model was selected without a key.
	ErrNoAPIKey = errors.New("no api key")

	// ErrOutOfRange indicates a generation parameter outside its allowed range.
	ErrOutOfRange = errors.New("parameter out of range")
)

// ValidationError is a user-facing rejection raised before any network call.
// Message is suitable for display as is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

// Unwrap returns the sentinel describing the failure.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func noModelError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "No model is selected. Please select a model on the right.",
		Err:     ErrNoModel,
	}
}

func noKeyError(field, model string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("No API key is provided. Please provide an API key to use %s.", model),
		Err:     ErrNoAPIKey,
	}
}

func rangeError(field string, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrOutOfRange,
	}
}
