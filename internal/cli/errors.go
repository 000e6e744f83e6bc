// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for ragchat commands.
//
// Handlers return errors; main decides how to display them.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/ragchat/internal/config"
	"github.com/jeranaias/ragchat/internal/params"
	"github.com/jeranaias/ragchat/internal/rag"
	"github.com/jeranaias/ragchat/internal/storage"
	"github.com/jeranaias/ragchat/internal/upload"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the backend could not be reached or refused
	ExitNetworkError = 5
	// ExitStorageError indicates the conversation store failed
	ExitStorageError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
	// ExitInterrupted follows the shell convention for SIGINT
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a malformed command line.
type UsageError struct {
	Command string
	Reason  string
}

func (e *UsageError) Error() string {
	if e.Command == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s (see 'ragchat help')", e.Command, e.Reason)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		usageErr     *UsageError
		notFoundErr  *NotFoundError
		validation   *params.ValidationError
		cfgErrs      config.ValidateErrors
		transportErr *rag.TransportError
		remoteErr    *rag.RemoteError
	)

	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.As(err, &usageErr):
		return ExitUsageError
	case errors.As(err, &notFoundErr):
		return ExitNotFoundError
	case errors.Is(err, upload.ErrUnsupportedExtension), errors.Is(err, upload.ErrFileTooLarge):
		return ExitUsageError
	case errors.As(err, &validation):
		return ExitUsageError
	case errors.As(err, &cfgErrs):
		return ExitConfigError
	case errors.As(err, &transportErr):
		if transportErr.IsTimeout() {
			return ExitTimeoutError
		}
		return ExitNetworkError
	case errors.As(err, &remoteErr):
		return ExitNetworkError
	case errors.Is(err, storage.ErrUnavailable):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}
