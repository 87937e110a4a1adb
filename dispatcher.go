package chanlog

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/user/chanlog/internal/metrics"
	"github.com/user/chanlog/internal/otelsetup"
)

var tracer = otelsetup.Tracer()

// Select resolves (severity, application, module) against channelID's
// index and returns the writers of every matching sink, in no particular
// order. A channel that doesn't exist, or a never-populated key, both
// yield a nil slice rather than an error — an emitter must never be
// blocked by administrative state.
func (m *Manager) Select(channelID string, sev Severity, application, module string) []Writer {
	ch, err := m.get(channelID)
	if err != nil {
		return nil
	}
	start := time.Now()
	writers := ch.idx.Select(sev, application, module)
	metrics.DispatchLatency.WithLabelValues(channelID).Observe(time.Since(start).Seconds())
	matched := "false"
	if len(writers) > 0 {
		matched = "true"
	}
	metrics.DispatchCount.WithLabelValues(channelID, matched).Inc()
	return writers
}

// Dispatch resolves channelID's matching sinks for (severity, application,
// module) and writes data to every one of them. Each writer's failure is
// isolated: it's reported via Diagnostics and does not stop the remaining
// writers from running. Dispatch returns the number of writers that
// succeeded.
func (m *Manager) Dispatch(ctx context.Context, channelID string, sev Severity, application, module, format string, data any) int {
	ctx, span := tracer.Start(ctx, "chanlog.Dispatch", trace.WithAttributes(
		attribute.String("channel_id", channelID),
		attribute.String("severity", sev.String()),
		attribute.String("application", application),
		attribute.String("module", module),
	))
	defer span.End()

	writers := m.Select(channelID, sev, application, module)
	succeeded := 0
	for _, w := range writers {
		if _, err := w.Write(ctx, format, data); err != nil {
			span.RecordError(err)
			metrics.WriteErrors.WithLabelValues(channelID).Inc()
			m.reportWriteFailure(channelID, err)
			continue
		}
		succeeded++
		metrics.WriteCount.WithLabelValues(channelID).Inc()
	}
	if succeeded == len(writers) {
		span.SetStatus(codes.Ok, fmt.Sprintf("%d/%d writers succeeded", succeeded, len(writers)))
	} else {
		span.SetStatus(codes.Error, fmt.Sprintf("%d/%d writers succeeded", succeeded, len(writers)))
	}
	return succeeded
}

func (m *Manager) reportWriteFailure(channelID string, err error) {
	if m.diag == nil {
		return
	}
	m.diag.Report(Diagnostic{Kind: DiagnosticWriterFailure, ChannelID: channelID, Err: err})
}
