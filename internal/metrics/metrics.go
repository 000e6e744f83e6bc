// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes ragchat's Prometheus counters.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ragchat"

// Metrics groups every collector.
type Metrics struct {
	ChatRequests    prometheus.Counter
	ChatFailures    *prometheus.CounterVec // label: kind (remote, transport)
	ChatStops       prometheus.Counter
	StreamDeltas    prometheus.Counter
	StreamDuration  prometheus.Histogram
	Uploads         *prometheus.CounterVec // labels: kind, result
	StorageFailures *prometheus.CounterVec // label: op
}

var (
	once   sync.Once
	global *Metrics
)

// Global returns the process-wide collectors, registering them on first use.
func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			ChatRequests: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_requests_total",
				Help:      "Total chat streams opened",
			}),
			ChatFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_failures_total",
				Help:      "Total chat streams that ended in an error",
			}, []string{"kind"}),
			ChatStops: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chat_stops_total",
				Help:      "Total chat streams stopped by the user",
			}),
			StreamDeltas: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stream_deltas_total",
				Help:      "Total text deltas applied to assistant messages",
			}),
			StreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stream_duration_seconds",
				Help:      "Duration of chat streams",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
			}),
			Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Total file uploads by kind and result",
			}, []string{"kind", "result"}),
			StorageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_failures_total",
				Help:      "Total failed storage operations",
			}, []string{"op"}),
		}
		prometheus.MustRegister(
			global.ChatRequests,
			global.ChatFailures,
			global.ChatStops,
			global.StreamDeltas,
			global.StreamDuration,
			global.Uploads,
			global.StorageFailures,
		)
	})
	return global
}
