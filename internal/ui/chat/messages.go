// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/session"
)

// wakeMsg tells the model that the bridge holds new state.
type wakeMsg struct{}

// openedMsg reports the end of Controller.Init.
type openedMsg struct {
	ctl *session.Controller
	err error
}

// actionDoneMsg reports the end of a blocking action.
type actionDoneMsg struct {
	op     string
	ctl    *session.Controller
	err    error
	notice *notify.Notice // shown on success
}

// clearNoticeMsg hides the notice with the given sequence number.
type clearNoticeMsg struct {
	seq int
}
