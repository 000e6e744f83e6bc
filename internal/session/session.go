// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/metrics"
	"github.com/jeranaias/ragchat/internal/model"
	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/params"
	"github.com/jeranaias/ragchat/internal/rag"
	"github.com/jeranaias/ragchat/internal/storage"
)

// =============================================================================
// STATE
// =============================================================================

// State is the controller lifecycle state.
type State int

const (
	StateInitializing State = iota
	StateIdle
	StateStreaming
	StateErrored
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned when an action needs Idle but a stream is running
	// or the controller is not initialized.
	ErrBusy = errors.New("session is busy")

	// ErrEmptyPrompt rejects a blank submission.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrMessageNotFound is returned by DeleteMessage for an unknown id.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNothingToReload is returned by Reload without a prompt to resend.
	ErrNothingToReload = errors.New("nothing to regenerate")

	// ErrHistoryNotLoaded is returned by writes while the stored transcript
	// of an existing conversation could not be read. Call Init again to retry.
	ErrHistoryNotLoaded = errors.New("stored conversation could not be loaded")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Store persists conversations. *storage.ChatStore satisfies it.
type Store interface {
	Save(ctx context.Context, id string, messages []model.Message) error
	Load(ctx context.Context, id string) (storage.ChatRecord, bool, error)
	Remove(ctx context.Context, id, path string) error
}

// ListRefresher reloads the conversation list. *chatlist.Provider satisfies it.
type ListRefresher interface {
	Refresh(ctx context.Context) error
}

// Navigator updates the current location once a new conversation is saved.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// Options wires a Controller.
type Options struct {
	Store     Store
	List      ListRefresher
	Params    *params.Store
	Streamer  rag.Streamer
	Notifier  notify.Notifier
	Navigator Navigator

	// ID of the conversation; generated when empty.
	ID string

	// Existing is true when the conversation was opened from its path.
	Existing bool
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the live message list of one conversation.
type Controller struct {
	store     Store
	list      ListRefresher
	params    *params.Store
	streamer  rag.Streamer
	notifier  notify.Notifier
	navigator Navigator

	mu       sync.Mutex
	id       string
	existing bool
	// loadFailed blocks writes so the unread transcript is not overwritten.
	loadFailed bool
	state    State
	messages []model.Message
	cancel   context.CancelFunc
	gen      uint64 // incremented per stream and on stop

	listenersMu sync.Mutex
	listeners   []func()
}

// New validates opts and returns a controller in StateInitializing.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("session: store is required")
	case opts.List == nil:
		return nil, errors.New("session: list is required")
	case opts.Params == nil:
		return nil, errors.New("session: params are required")
	case opts.Streamer == nil:
		return nil, errors.New("session: streamer is required")
	case opts.Existing && opts.ID == "":
		return nil, errors.New("session: existing conversation needs an id")
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.ID == "" {
		opts.ID = model.NewChatID()
	}

	return &Controller{
		store:     opts.Store,
		list:      opts.List,
		params:    opts.Params,
		streamer:  opts.Streamer,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		id:        opts.ID,
		existing:  opts.Existing,
		state:     StateInitializing,
		messages:  []model.Message{},
	}, nil
}

// Init loads the stored transcript of an existing conversation and moves to
// Idle. A storage failure is reported, leaves the list empty and blocks
// writes to the stored record. Init may be called again after a failed load;
// messages added in the meantime are kept after the stored ones.
func (c *Controller) Init(ctx context.Context) error {
	c.mu.Lock()
	retry := c.loadFailed && c.ready()
	if c.state != StateInitializing && !retry {
		c.mu.Unlock()
		return nil
	}
	existing, id := c.existing, c.id
	c.mu.Unlock()

	var (
		msgs    []model.Message
		found   bool
		loadErr error
	)
	if existing {
		var rec storage.ChatRecord
		rec, found, loadErr = c.store.Load(ctx, id)
		if loadErr == nil && found {
			msgs = rec.Messages
		}
	}

	c.mu.Lock()
	var pending []model.Message
	switch {
	case loadErr != nil:
		// Keep existing so nothing treats the stored record as new.
		c.loadFailed = true
	case found:
		pending = model.CloneMessages(c.messages)
		c.messages = append(model.CloneMessages(msgs), pending...)
		c.existing = true
		c.loadFailed = false
	default:
		// Not stored yet; the first completion creates it.
		pending = model.CloneMessages(c.messages)
		c.existing = false
		c.loadFailed = false
	}
	c.state = StateIdle
	snapshot := model.CloneMessages(c.messages)
	c.mu.Unlock()

	if loadErr != nil {
		log.Warn().Err(loadErr).Str("chat_id", id).Msg("failed to load conversation")
		metrics.Global().StorageFailures.WithLabelValues("load").Inc()
		c.notifier.Notify(notify.FromError(loadErr))
	}
	c.changed()
	if loadErr != nil {
		return loadErr
	}
	if retry && len(pending) > 0 {
		return c.persist(ctx, snapshot)
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// ID returns the conversation id.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Path returns the canonical path of the conversation.
func (c *Controller) Path() string {
	return model.ChatPath(c.ID())
}

// Existing reports whether the conversation has a stored record.
func (c *Controller) Existing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.existing
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages returns a copy of the message list.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.CloneMessages(c.messages)
}

// OnChange registers fn to run after every mutation, outside the lock.
func (c *Controller) OnChange(fn func()) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

func (c *Controller) changed() {
	c.listenersMu.Lock()
	listeners := append([]func(){}, c.listeners...)
	c.listenersMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// =============================================================================
// ACTIONS
// =============================================================================

// Submit appends a user message and streams the response. It blocks until the
// stream ends or is stopped. Rejected prompts are reported and leave the
// conversation untouched.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		err := &params.ValidationError{Field: "prompt", Message: "Please enter a message.", Err: ErrEmptyPrompt}
		c.notifier.Notify(notify.FromError(err))
		return err
	}
	if err := c.params.ValidateChat(); err != nil {
		c.notifier.Notify(notify.FromError(err))
		return err
	}

	c.mu.Lock()
	if !c.ready() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.messages = append(c.messages, model.NewUserMessage(text))
	c.mu.Unlock()
	c.changed()

	return c.stream(ctx)
}

// Reload drops the last assistant message, if any, and streams a new
// response to the same history.
func (c *Controller) Reload(ctx context.Context) error {
	if err := c.params.ValidateChat(); err != nil {
		c.notifier.Notify(notify.FromError(err))
		return err
	}

	c.mu.Lock()
	if !c.ready() {
		c.mu.Unlock()
		return ErrBusy
	}
	if n := len(c.messages); n > 0 && c.messages[n-1].Role == model.RoleAssistant {
		c.messages = c.messages[:n-1]
	}
	if len(c.messages) == 0 {
		c.mu.Unlock()
		return ErrNothingToReload
	}
	c.mu.Unlock()
	c.changed()

	return c.stream(ctx)
}

// Stop aborts the running stream. The partial response stays in the list
// but is not persisted. Calling Stop while idle does nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != StateStreaming {
		c.mu.Unlock()
		return
	}
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.dropEmptyTail()
	c.state = StateIdle
	id := c.id
	c.mu.Unlock()

	metrics.Global().ChatStops.Inc()
	log.Debug().Str("chat_id", id).Msg("stream stopped")
	c.changed()
}

// DeleteMessage removes one message and persists the result immediately.
// Removing the last message deletes the stored record.
func (c *Controller) DeleteMessage(ctx context.Context, messageID string) error {
	c.mu.Lock()
	if !c.ready() {
		c.mu.Unlock()
		return ErrBusy
	}
	idx := -1
	for i, m := range c.messages {
		if m.ID == messageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return ErrMessageNotFound
	}
	c.messages = append(c.messages[:idx], c.messages[idx+1:]...)
	msgs := model.CloneMessages(c.messages)
	id, existing := c.id, c.existing
	if len(msgs) == 0 {
		c.existing = false
	}
	c.mu.Unlock()
	c.changed()

	if len(msgs) > 0 {
		return c.persist(ctx, msgs)
	}
	if !existing {
		return nil
	}
	if c.historyUnavailable(id) {
		return ErrHistoryNotLoaded
	}
	if err := c.store.Remove(ctx, id, model.ChatPath(id)); err != nil {
		c.storageFailed("remove", id, err)
		return err
	}
	c.refreshList(ctx)
	return nil
}

// ready reports whether a new action may start. Caller holds c.mu.
func (c *Controller) ready() bool {
	return c.state == StateIdle || c.state == StateErrored
}

// dropEmptyTail removes a trailing assistant placeholder that never received
// content. Caller holds c.mu.
func (c *Controller) dropEmptyTail() {
	if n := len(c.messages); n > 0 {
		last := c.messages[n-1]
		if last.Role == model.RoleAssistant && last.Content == "" {
			c.messages = c.messages[:n-1]
		}
	}
}

// =============================================================================
// STREAMING
// =============================================================================

func (c *Controller) stream(ctx context.Context) error {
	p := c.params.ChatParams()

	c.mu.Lock()
	history := model.CloneMessages(c.messages)
	assistant := model.NewAssistantMessage()
	c.messages = append(c.messages, assistant)

	streamCtx, cancel := context.WithCancel(ctx)
	c.gen++
	gen := c.gen
	c.cancel = cancel
	c.state = StateStreaming

	req := rag.ChatRequest{
		ID:          c.id,
		Messages:    history,
		LLM:         p.LLM,
		APIKey:      p.APIKey,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		TopP:        p.TopP,
	}
	c.mu.Unlock()
	c.changed()

	m := metrics.Global()
	m.ChatRequests.Inc()
	start := time.Now()

	err := c.streamer.Stream(streamCtx, req, func(delta string) {
		c.applyDelta(gen, assistant.ID, delta)
	})
	cancel()
	m.StreamDuration.Observe(time.Since(start).Seconds())

	return c.finish(ctx, gen, err)
}

// applyDelta appends delta to the streaming assistant message. Deltas from a
// stopped or superseded stream are dropped.
func (c *Controller) applyDelta(gen uint64, assistantID, delta string) {
	if delta == "" {
		return
	}
	c.mu.Lock()
	if c.gen != gen || c.state != StateStreaming {
		c.mu.Unlock()
		return
	}
	n := len(c.messages)
	if n == 0 || c.messages[n-1].ID != assistantID {
		c.mu.Unlock()
		return
	}
	c.messages[n-1].Content += delta
	c.mu.Unlock()

	metrics.Global().StreamDeltas.Inc()
	c.changed()
}

func (c *Controller) finish(ctx context.Context, gen uint64, streamErr error) error {
	c.mu.Lock()
	if c.gen != gen {
		// Stopped; Stop already settled the state.
		c.mu.Unlock()
		return nil
	}
	c.cancel = nil
	id := c.id

	if streamErr != nil {
		c.dropEmptyTail()
		if errors.Is(streamErr, context.Canceled) && ctx.Err() != nil {
			c.state = StateIdle
			c.mu.Unlock()
			c.changed()
			return streamErr
		}
		c.state = StateErrored
		c.mu.Unlock()
		c.changed()

		kind := "transport"
		var re *rag.RemoteError
		if errors.As(streamErr, &re) {
			kind = "remote"
		}
		metrics.Global().ChatFailures.WithLabelValues(kind).Inc()
		log.Warn().Err(streamErr).Str("chat_id", id).Msg("chat stream failed")
		c.notifier.Notify(notify.FromError(streamErr))
		return streamErr
	}

	c.state = StateIdle
	msgs := model.CloneMessages(c.messages)
	c.mu.Unlock()
	c.changed()

	// A failed save is reported but does not fail the turn.
	_ = c.persist(ctx, msgs)
	return nil
}

// persist saves msgs. The first save of a new conversation navigates to its
// path and refreshes the list, even when the write itself failed.
func (c *Controller) persist(ctx context.Context, msgs []model.Message) error {
	id := c.ID()
	if c.historyUnavailable(id) {
		return ErrHistoryNotLoaded
	}
	saveErr := c.store.Save(ctx, id, msgs)
	if saveErr != nil {
		c.storageFailed("save", id, saveErr)
	}

	c.mu.Lock()
	wasNew := !c.existing
	c.existing = true
	c.mu.Unlock()

	if wasNew {
		if c.navigator != nil {
			c.navigator.Navigate(model.ChatPath(id))
		}
		c.refreshList(ctx)
	}
	return saveErr
}

// historyUnavailable reports, and warns about, a write blocked by a failed
// load of the stored transcript.
func (c *Controller) historyUnavailable(id string) bool {
	c.mu.Lock()
	blocked := c.loadFailed
	c.mu.Unlock()
	if !blocked {
		return false
	}
	log.Warn().Str("chat_id", id).Msg("skipping write; stored conversation was not loaded")
	c.notifier.Notify(notify.Notice{
		Kind:    notify.KindStorage,
		Level:   notify.LevelWarning,
		Message: "Saved history could not be loaded, so changes to this chat are not saved.",
		Err:     ErrHistoryNotLoaded,
	})
	return true
}

func (c *Controller) refreshList(ctx context.Context) {
	if err := c.list.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to refresh conversation list")
	}
}

func (c *Controller) storageFailed(op, id string, err error) {
	metrics.Global().StorageFailures.WithLabelValues(op).Inc()
	log.Warn().Err(err).Str("chat_id", id).Str("op", op).Msg("storage operation failed")
	c.notifier.Notify(notify.FromError(err))
}
