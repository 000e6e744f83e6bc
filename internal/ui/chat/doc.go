// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat screen of ragchat.

The screen has three columns: the conversation sidebar (fed by the chat list
provider), the transcript viewport and the parameters panel. The sidebar and
the parameters panel can be hidden; their visibility is persisted through
uistate.

Model never blocks the update loop on the network. Submit, reload and
uploads run as tea.Cmds and report back with actionDoneMsg. Controller
changes, notices and list updates are collected by a bridge and delivered as
a single wakeMsg, so a burst of streamed deltas becomes one redraw.

# Usage

	m, err := chat.New(ctx, a, chat.Options{ChatID: id})
	if err != nil {
		return err
	}
	return chat.Run(ctx, m)
*/
package chat
