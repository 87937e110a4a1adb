package chanlog

import "context"

// Writer is the external collaborator that actually serialises a log
// record to some device. The dispatch core never constructs one directly;
// it only ever holds and invokes whatever a Sink's StartSpec produced. A
// Writer must not panic out to the dispatcher — failures are reported via
// Diagnostics and the next writer in the match set still runs.
type Writer interface {
	// Write hands a pre-formatted record to the writer. format and data are
	// opaque to the dispatch core; a concrete writer (see pkg/writer) knows
	// how to interpret them. The returned bytes are what was actually
	// written, for callers that want to confirm or log it.
	Write(ctx context.Context, format string, data any) ([]byte, error)

	// Writee identifies the ultimate write target for introspection (a file
	// path, a topic name, a URL). Returns nil if the writer has none yet
	// (e.g. a composite sink whose active child hasn't connected).
	Writee() any
}

// WriterFunc adapts a plain function to the Writer interface for writers
// with no meaningful Writee.
type WriterFunc func(ctx context.Context, format string, data any) ([]byte, error)

func (f WriterFunc) Write(ctx context.Context, format string, data any) ([]byte, error) {
	return f(ctx, format, data)
}

func (f WriterFunc) Writee() any { return nil }

// StartSpec describes how a sink obtains its Writer: either an immediate,
// already-constructed Writer, or a start function that will be run as a
// supervised child and is expected to call the supplied publish callback
// (possibly more than once, to hot-swap writers) as it comes up.
type StartSpec struct {
	// Immediate is set when the sink's writer is ready at install time.
	Immediate Writer

	// Start is set when the writer is produced asynchronously. It is run
	// in its own goroutine; it must call publish at least once (publish(nil)
	// is acceptable if startup fails) and may call it again later to
	// hot-swap the writer without re-installing the sink.
	Start func(ctx context.Context, publish func(Writer))
}

func (s StartSpec) isAsync() bool { return s.Start != nil }

// SinkHandle is the immutable descriptor of an installable sink: its id
// within the channel, its condition, and how it obtains a writer.
type SinkHandle struct {
	ID        string
	Condition Condition
	Writer    StartSpec
}

func (h SinkHandle) Validate() error {
	if h.ID == "" {
		return &InvalidArgumentError{Field: "sink.id", Reason: "must be non-empty"}
	}
	if h.Writer.Immediate == nil && h.Writer.Start == nil {
		return &InvalidArgumentError{Field: "sink.writer", Reason: "must set Immediate or Start"}
	}
	return nil
}

// IfExists selects the conflict policy applied by Manager.InstallSink when
// a sink with the same id is already installed.
type IfExists int

const (
	// IfExistsError fails the install, returning the previous sink.
	IfExistsError IfExists = iota
	// IfExistsIgnore leaves the existing sink installed and reports it.
	IfExistsIgnore
	// IfExistsSupersede cancels the previous sink's lifetime and re-indexes
	// atomically with the new condition.
	IfExistsSupersede
)

// Lifetime bounds how long an installed sink stays registered.
type Lifetime struct {
	// Duration, if non-zero, uninstalls the sink once it elapses. If Process
	// is also set, only Process is watched and Duration is ignored.
	Duration durationMS

	// Process, if non-nil, uninstalls the sink when this context is
	// cancelled or times out — the external_process_handle of the source
	// protocol, modeled as a context because that's the idiomatic Go
	// equivalent of "watch this task's liveness".
	Process context.Context
}

// durationMS is a plain count of milliseconds (an int64, not a
// time.Duration), restricted at validation time to [0, 2^32), matching the
// source protocol's lifetime bound.
type durationMS = int64

// Infinite is the zero-value Lifetime: the sink lives until explicitly
// uninstalled or the channel is deleted.
var Infinite = Lifetime{}

func (l Lifetime) Validate() error {
	if l.Duration < 0 {
		return &InvalidArgumentError{Field: "lifetime.duration", Reason: "must be non-negative"}
	}
	const maxMS = int64(1) << 32
	if l.Duration >= maxMS {
		return &InvalidArgumentError{Field: "lifetime.duration", Reason: "exceeds 2^32 ms"}
	}
	return nil
}

// InstallOptions configures Manager.InstallSink.
type InstallOptions struct {
	Lifetime Lifetime
	IfExists IfExists
}

// InstallResult reports what happened to an existing sink on install,
// mirroring the source protocol's {ok, previous_sink | none} shape.
type InstallResult struct {
	Previous      SinkHandle
	HadPrevious   bool
	Replaced      bool // true only for IfExistsSupersede
}

// Diagnostic is the out-of-band report shape for conditions §7 says must be
// "reported via diagnostics" rather than surfaced to the emitter: an
// isolated writer failure, a lifetime expiry that uninstalled a sink, a
// supersede of an installed sink, or a composite child's initial-wait
// timeout. An unmatched lifetime expiry is dropped without a report.
type Diagnostic struct {
	Kind      DiagnosticKind
	ChannelID string
	SinkID    string
	Err       error
}

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind int

const (
	DiagnosticWriterFailure DiagnosticKind = iota
	DiagnosticLifetimeExpired
	DiagnosticSupersede
	DiagnosticCompositeWaitTimeout
)

// Diagnostics receives out-of-band reports the spec says must not reach the
// emitter. A Manager built with a nil Diagnostics discards every report;
// logging.NewDefault provides a zerolog-backed implementation, and callers
// that want structured shipping of these events can supply their own.
type Diagnostics interface {
	Report(d Diagnostic)
}
