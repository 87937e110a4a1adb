// Package logging provides the default chanlog.Diagnostics sink: structured
// output via zerolog, matching the engine package's DefaultLogger shape
// (stderr, timestamped, optional sampling of the noisier levels).
package logging

import (
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/user/chanlog"
)

// Logger is the default Diagnostics implementation: every report becomes one
// structured zerolog event, leveled by DiagnosticKind.
type Logger struct {
	logger  zerolog.Logger
	sampler zerolog.Sampler
	sampled zerolog.Logger
}

// NewDefault builds a Logger writing to stderr with a timestamp field. If
// CHANLOG_LOG_SAMPLE_N is set to an integer > 1, writer-failure and
// lifetime-expiry reports (the high-volume kinds) are sampled at that rate.
func NewDefault() *Logger {
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	var samp zerolog.Sampler
	if v := os.Getenv("CHANLOG_LOG_SAMPLE_N"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			samp = zerolog.RandomSampler(n)
		}
	}
	var sampled zerolog.Logger
	if samp != nil {
		sampled = l.Sample(samp)
	}
	return &Logger{logger: l, sampler: samp, sampled: sampled}
}

func (lg *Logger) eventFor(kind chanlog.DiagnosticKind) *zerolog.Event {
	switch kind {
	case chanlog.DiagnosticWriterFailure:
		if lg.sampler != nil {
			return lg.sampled.Warn()
		}
		return lg.logger.Warn()
	case chanlog.DiagnosticLifetimeExpired:
		if lg.sampler != nil {
			return lg.sampled.Info()
		}
		return lg.logger.Info()
	case chanlog.DiagnosticSupersede:
		return lg.logger.Info()
	case chanlog.DiagnosticCompositeWaitTimeout:
		return lg.logger.Warn()
	default:
		return lg.logger.Debug()
	}
}

func kindString(kind chanlog.DiagnosticKind) string {
	switch kind {
	case chanlog.DiagnosticWriterFailure:
		return "writer_failure"
	case chanlog.DiagnosticLifetimeExpired:
		return "lifetime_expired"
	case chanlog.DiagnosticSupersede:
		return "supersede"
	case chanlog.DiagnosticCompositeWaitTimeout:
		return "composite_wait_timeout"
	default:
		return "unknown"
	}
}

// Report implements chanlog.Diagnostics.
func (lg *Logger) Report(d chanlog.Diagnostic) {
	event := lg.eventFor(d.Kind).
		Str("kind", kindString(d.Kind)).
		Str("channel_id", d.ChannelID).
		Str("sink_id", d.SinkID)
	if d.Err != nil {
		event = event.Err(d.Err)
	}
	event.Msg("chanlog diagnostic")
}

// Discard implements chanlog.Diagnostics by dropping every report; useful in
// tests that assert on behavior rather than log output.
type Discard struct{}

func (Discard) Report(chanlog.Diagnostic) {}
