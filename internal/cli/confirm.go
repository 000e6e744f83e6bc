// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RequireConfirmation asks before a destructive action.
//
// --confirm skips the prompt. JSON mode and non-TTY stdin never prompt and
// require the flag instead.
func RequireConfirmation(confirmFlag bool, action string, jsonMode bool, in io.Reader, out io.Writer) (bool, error) {
	if confirmFlag {
		return true, nil
	}
	if jsonMode {
		return false, &UsageError{Reason: "confirmation required: use --confirm for destructive actions in JSON mode"}
	}
	if in == nil {
		return false, &UsageError{Reason: "confirmation required but stdin is not a terminal; use --confirm"}
	}

	fmt.Fprintf(out, "Are you sure you want to %s? [y/N]: ", action)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}
