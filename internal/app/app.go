// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app builds the application-wide containers once at program start
// and hands them to the TUI and the line-mode commands.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/ragchat/internal/chatlist"
	"github.com/jeranaias/ragchat/internal/config"
	"github.com/jeranaias/ragchat/internal/metrics"
	"github.com/jeranaias/ragchat/internal/notify"
	"github.com/jeranaias/ragchat/internal/params"
	"github.com/jeranaias/ragchat/internal/rag"
	"github.com/jeranaias/ragchat/internal/render"
	"github.com/jeranaias/ragchat/internal/server"
	"github.com/jeranaias/ragchat/internal/session"
	"github.com/jeranaias/ragchat/internal/storage"
	"github.com/jeranaias/ragchat/internal/uistate"
	"github.com/jeranaias/ragchat/internal/upload"
)

// App holds every long-lived collaborator.
type App struct {
	Config   *config.Config
	Backend  storage.Backend
	Chats    *storage.ChatStore
	List     *chatlist.Provider
	Params   *params.Store
	RAG      *rag.Client
	Uploader *upload.Uploader
	Flags    *uistate.Flags
	Render   *render.Cache
	Metrics  *metrics.Metrics
}

// New opens the configured backend and wires the containers around it.
// userAgent is sent on every backend request.
func New(ctx context.Context, cfg *config.Config, userAgent string) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	opts, err := cfg.StorageOptions()
	if err != nil {
		return nil, fmt.Errorf("storage options: %w", err)
	}
	backend, err := storage.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", opts.Kind, err)
	}
	return NewWithBackend(ctx, cfg, backend, userAgent)
}

// NewWithBackend wires the containers around an already open backend.
// The App takes ownership of backend.
func NewWithBackend(ctx context.Context, cfg *config.Config, backend storage.Backend, userAgent string) (*App, error) {
	cache := render.NewCache(cfg.UI.MarkdownStyle)
	chats := storage.NewChatStore(backend, cache)

	ps := params.New(cfg.ParamValues(), cfg.Catalog())
	if err := ps.Attach(ctx, backend); err != nil {
		// Params still work in memory; only the mirror is lost.
		log.Warn().Err(err).Msg("could not restore saved parameters")
	}

	hc := rag.NewHTTPClient()
	var ragOpts []rag.Option
	ragOpts = append(ragOpts, rag.WithHTTPClient(hc))
	if userAgent != "" {
		ragOpts = append(ragOpts, rag.WithUserAgent(userAgent))
	}

	a := &App{
		Config:  cfg,
		Backend: backend,
		Chats:   chats,
		List:    chatlist.New(chats),
		Params:  ps,
		RAG:     rag.NewClient(cfg.Endpoints.ChatURL, ragOpts...),
		Uploader: upload.New(upload.Config{
			IndexURL:  cfg.Endpoints.IndexURL,
			ImageURL:  cfg.Endpoints.ImageURL,
			Timeout:   cfg.Timeout(),
			SizeLimit: cfg.UploadLimit(),
			HTTP:      hc,
		}, ps),
		Flags:   uistate.New(backend),
		Render:  cache,
		Metrics: metrics.Global(),
	}

	log.Debug().
		Str("chat_url", cfg.Endpoints.ChatURL).
		Str("storage", cfg.Storage.Backend).
		Msg("app initialized")
	return a, nil
}

// NewSession creates a controller for conversation id. An empty id starts a
// new conversation that is not yet routed.
func (a *App) NewSession(id string, notifier notify.Notifier, nav session.Navigator) (*session.Controller, error) {
	return session.New(session.Options{
		Store:     a.Chats,
		List:      a.List,
		Params:    a.Params,
		Streamer:  a.RAG,
		Notifier:  notifier,
		Navigator: nav,
		ID:        id,
		Existing:  id != "",
	})
}

// ServeMetrics starts the /metrics listener in the background when one is
// configured. It stops when ctx is cancelled.
func (a *App) ServeMetrics(ctx context.Context) {
	addr := a.Config.Metrics.Listen
	if addr == "" {
		return
	}
	go func() {
		if err := server.Serve(ctx, addr); err != nil {
			log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.Backend == nil {
		return nil
	}
	return a.Backend.Close()
}
