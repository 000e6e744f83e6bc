// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the colors and Lip Gloss styles of the ragchat TUI.

All colors are lipgloss.AdaptiveColor values so the same palette works on
light and dark terminals:

  - Purple - assistant turns and selections
  - Cyan - brand, user turns and prompts
  - Emerald - success notices and local models
  - Amber - warnings and hosted models
  - Rose - errors and destructive confirmations

Theme groups the styles of one screen region each: header, sidebar,
transcript, parameters panel, input and status bar. Notices always carry an
ASCII marker ([OK], [X], [!], [i]) next to their color.

# Usage

	theme := styles.NewTheme()
	line := theme.Notice(notify.Success("Upload success!"))
*/
package styles
