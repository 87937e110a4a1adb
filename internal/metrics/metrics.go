// Package metrics exposes the dispatch core's Prometheus instrumentation,
// grounded in the engine package's promauto-based package-level vectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchCount counts every Select call, labeled by channel and
	// whether it matched at least one sink.
	DispatchCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chanlog_dispatch_total",
		Help: "The total number of dispatch selections performed",
	}, []string{"channel_id", "matched"})

	// DispatchLatency times Select, from lookup to the return of the
	// matched writer list (not the writes themselves).
	DispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chanlog_dispatch_duration_seconds",
		Help:    "Time taken to resolve a dispatch's matching sinks",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel_id"})

	// WriteCount counts individual writer invocations made during dispatch.
	WriteCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chanlog_sink_writes_total",
		Help: "The total number of successful sink writes",
	}, []string{"channel_id"})

	// WriteErrors counts writer invocations that returned an error; these
	// are reported out-of-band via Diagnostics and do not fail dispatch.
	WriteErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chanlog_sink_write_errors_total",
		Help: "The total number of sink write errors",
	}, []string{"channel_id"})

	// IndexSize reports the current number of distinct match keys held by
	// a channel's index table.
	IndexSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chanlog_index_keys",
		Help: "The number of distinct match keys currently indexed",
	}, []string{"channel_id"})

	// ActiveChannels counts channels currently created on a Manager.
	ActiveChannels = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chanlog_active_channels",
		Help: "The total number of active channels",
	})

	// ActiveSinks counts installed sinks, labeled per channel.
	ActiveSinks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chanlog_active_sinks",
		Help: "The number of sinks currently installed on a channel",
	}, []string{"channel_id"})
)
