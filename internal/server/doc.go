// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server runs ragchat's optional local HTTP listener.
//
// # Endpoints
//
//   - GET /metrics - Prometheus collectors from package metrics
//   - GET /healthz - liveness probe
//
// Every route goes through the same middleware chain: panic recovery,
// request logging through zerolog and a small set of security headers.
// The listener is only started when metrics.listen is configured.
package server
