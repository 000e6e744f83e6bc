// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notify carries transient user-facing notices. Every recoverable
// error reaches the user through a Notifier rather than aborting the UI.
package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/jeranaias/ragchat/internal/params"
	"github.com/jeranaias/ragchat/internal/rag"
	"github.com/jeranaias/ragchat/internal/storage"
)

// Kind classifies the cause of a notice.
type Kind int

const (
	KindInfo Kind = iota
	KindValidation
	KindTransport
	KindRemote
	KindStorage
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindRemote:
		return "remote"
	case KindStorage:
		return "storage"
	default:
		return "info"
	}
}

// Level is the display severity.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Fixed notice texts.
const (
	// FetchFailedMessage is shown for chat transport failures.
	FetchFailedMessage = "Failed to fetch rag result from backend."

	UploadSuccessMessage = "Upload success!"
	ChatDeletedMessage   = "Chat deleted."
	ChatsClearedMessage  = "All chats deleted."
	KeysRemovedMessage   = "API keys removed."
)

// Notice is one transient notification.
type Notice struct {
	Kind    Kind
	Level   Level
	Message string
	Err     error
}

// Notifier delivers notices to the user.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a function to Notifier.
type Func func(Notice)

// Notify calls f(n).
func (f Func) Notify(n Notice) {
	f(n)
}

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// Success builds an informational success notice.
func Success(msg string) Notice {
	return Notice{Kind: KindInfo, Level: LevelSuccess, Message: msg}
}

// Info builds a plain informational notice.
func Info(msg string) Notice {
	return Notice{Kind: KindInfo, Level: LevelInfo, Message: msg}
}

// FromError classifies err into a notice. Storage failures are warnings
// because the live conversation is unaffected.
func FromError(err error) Notice {
	var (
		ve *params.ValidationError
		re *rag.RemoteError
		te *rag.TransportError
	)
	switch {
	case errors.As(err, &ve):
		return Notice{Kind: KindValidation, Level: LevelError, Message: ve.Error(), Err: err}
	case errors.As(err, &re):
		msg := FetchFailedMessage
		if re.StatusText != "" {
			msg = re.StatusText
		}
		return Notice{Kind: KindRemote, Level: LevelError, Message: msg, Err: err}
	case errors.As(err, &te):
		msg := FetchFailedMessage
		if te.IsTimeout() {
			msg = te.Error()
		}
		return Notice{Kind: KindTransport, Level: LevelError, Message: msg, Err: err}
	case errors.Is(err, storage.ErrUnavailable):
		msg := "Could not save the conversation; it will not appear in history."
		var se *storage.Error
		if errors.As(err, &se) && (se.Op == "get" || se.Op == "keys" || se.Op == "open") {
			msg = "Could not read saved conversations."
		}
		return Notice{Kind: KindStorage, Level: LevelWarning, Message: msg, Err: err}
	case errors.Is(err, context.Canceled):
		return Notice{Kind: KindTransport, Level: LevelInfo, Message: "Request cancelled.", Err: err}
	default:
		msg := FetchFailedMessage
		if err != nil {
			msg = err.Error()
		}
		return Notice{Kind: KindTransport, Level: LevelError, Message: msg, Err: err}
	}
}

// =============================================================================
// RECORDER
// =============================================================================

// Recorder collects notices until drained.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records n.
func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Notices returns a copy of every recorded notice.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Drain returns and forgets every recorded notice.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
