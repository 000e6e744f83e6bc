// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for ragchat.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - EndpointsConfig: Backend chat, indexing and image URLs
//   - StorageConfig: Conversation store backend selection
//   - ParamsConfig: Startup generation parameters
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RAGCHAT_*)
//   - ~/.ragchat/config.toml
//   - Built-in defaults
//
// API keys are accepted only from the environment and are never written
// back to the file.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal().Err(err).Msg("invalid config")
//	}
//	opts, err := cfg.StorageOptions()
package config
