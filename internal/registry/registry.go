// Package registry implements the channel registry: the per-channel
// authoritative state of installed sinks, serialised behind a single
// mutex so the index table only ever observes whole, consistent
// mutations. Spec §9 allows either a dedicated actor goroutine or a
// mutex-guarded state machine for this; we use the latter — simpler, and
// the teacher lineage leans on sync.Mutex/RWMutex for exactly this kind of
// single-writer state throughout its engine package.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/user/chanlog"
	"github.com/user/chanlog/internal/index"
	"github.com/user/chanlog/internal/lifetime"
	"github.com/user/chanlog/internal/metrics"
)

type sinkEntry struct {
	handle       chanlog.SinkHandle
	keys         []chanlog.MatchKey
	lifetime     lifetime.Handle
	token        lifetime.Token
	teardownFunc func() // cancels an async Start's context, if any
}

// Registry is one channel's authoritative sink state. The zero value is
// not usable; construct with New.
type Registry struct {
	channelID string
	idx       *index.Index
	diag      chanlog.Diagnostics

	mu     sync.Mutex
	sinks  map[string]*sinkEntry
	closed bool
}

// New returns a Registry backed by idx, reporting out-of-band events to
// diag.
func New(channelID string, idx *index.Index, diag chanlog.Diagnostics) *Registry {
	return &Registry{
		channelID: channelID,
		idx:       idx,
		diag:      diag,
		sinks:     make(map[string]*sinkEntry),
	}
}

func (r *Registry) report(kind chanlog.DiagnosticKind, sinkID string, err error) {
	if r.diag == nil {
		return
	}
	r.diag.Report(chanlog.Diagnostic{Kind: kind, ChannelID: r.channelID, SinkID: sinkID, Err: err})
}

// Install installs sink under the channel's conflict policy. Validation
// failures are returned synchronously with the registry state unchanged;
// a same-id collision resolves per opts.IfExists.
func (r *Registry) Install(sink chanlog.SinkHandle, opts chanlog.InstallOptions) (chanlog.InstallResult, error) {
	if err := sink.Validate(); err != nil {
		return chanlog.InstallResult{}, err
	}
	if err := opts.Lifetime.Validate(); err != nil {
		return chanlog.InstallResult{}, err
	}
	keys, err := chanlog.Normalize(sink.Condition)
	if err != nil {
		return chanlog.InstallResult{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return chanlog.InstallResult{}, &chanlog.ChannelNotRunningError{ChannelID: r.channelID}
	}

	if existing, ok := r.sinks[sink.ID]; ok {
		switch opts.IfExists {
		case chanlog.IfExistsError:
			return chanlog.InstallResult{}, &chanlog.AlreadyInstalledError{SinkID: sink.ID, Previous: existing.handle}
		case chanlog.IfExistsIgnore:
			return chanlog.InstallResult{Previous: existing.handle, HadPrevious: true}, nil
		case chanlog.IfExistsSupersede:
			r.teardownWatchers(existing)
			entry := r.startEntry(sink, keys, existing.keys, opts.Lifetime)
			r.sinks[sink.ID] = entry
			r.report(chanlog.DiagnosticSupersede, sink.ID, nil)
			return chanlog.InstallResult{Previous: existing.handle, HadPrevious: true, Replaced: true}, nil
		default:
			return chanlog.InstallResult{}, &chanlog.InvalidArgumentError{Field: "options.if_exists", Reason: "unknown policy"}
		}
	}

	entry := r.startEntry(sink, keys, nil, opts.Lifetime)
	r.sinks[sink.ID] = entry
	return chanlog.InstallResult{}, nil
}

// startEntry indexes sink and arranges its writer source and lifetime. For a
// fresh install oldKeys is nil; for a supersede it's the replaced entry's
// last-known keys, so the index moves in one Diff-based transaction instead
// of a full removal followed by a full fresh insert. The caller must hold
// r.mu.
func (r *Registry) startEntry(sink chanlog.SinkHandle, keys, oldKeys []chanlog.MatchKey, lt chanlog.Lifetime) *sinkEntry {
	r.idx.Register(sink.ID, sink.Writer.Immediate, keys, oldKeys)

	e := &sinkEntry{handle: sink, keys: keys}

	if start := sink.Writer.Start; start != nil {
		ctx, cancel := context.WithCancel(context.Background())
		e.teardownFunc = cancel
		go start(ctx, func(w chanlog.Writer) {
			r.idx.SetWriter(sink.ID, w)
		})
	}

	e.token = lifetime.NewToken()
	switch {
	case lt.Process != nil:
		e.lifetime = lifetime.WatchProcess(lt.Process, e.token, r.expire)
	case lt.Duration > 0:
		e.lifetime = lifetime.WatchDuration(time.Duration(lt.Duration)*time.Millisecond, e.token, r.expire)
	}
	return e
}

// teardownWatchers cancels an entry's lifetime watch and async writer
// producer without touching the index. Used by supersede, which reindexes
// the old and new conditions together in one Diff-based call instead of a
// full removal followed by a full fresh insert. The caller must hold r.mu.
func (r *Registry) teardownWatchers(e *sinkEntry) {
	e.lifetime.Cancel()
	if e.teardownFunc != nil {
		e.teardownFunc()
	}
}

// teardownEntry cancels an entry's lifetime watch and async writer
// producer, and removes it from the index using its last-known keys. The
// caller must hold r.mu.
func (r *Registry) teardownEntry(e *sinkEntry) {
	r.teardownWatchers(e)
	r.idx.Deregister(e.handle.ID, e.keys)
}

// expire runs on a lifetime watcher's own goroutine when a duration fires
// or a watched process dies. It reacquires the registry lock so it
// serializes exactly like any administrative call.
func (r *Registry) expire(token lifetime.Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.sinks {
		if e.token != token {
			continue
		}
		if e.teardownFunc != nil {
			e.teardownFunc()
		}
		r.idx.Deregister(e.handle.ID, e.keys)
		delete(r.sinks, id)
		metrics.ActiveSinks.WithLabelValues(r.channelID).Dec()
		metrics.IndexSize.WithLabelValues(r.channelID).Set(float64(len(r.idx.Snapshot())))
		r.report(chanlog.DiagnosticLifetimeExpired, id, nil)
		return
	}
	// Unmatched token: the entry was already replaced or uninstalled.
	// Dropped silently, per spec §4.4.
}

// Uninstall removes sinkID, cancelling its lifetime and dropping it from
// the index with its current condition.
func (r *Registry) Uninstall(sinkID string) (chanlog.SinkHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return chanlog.SinkHandle{}, &chanlog.ChannelNotRunningError{ChannelID: r.channelID}
	}
	e, ok := r.sinks[sinkID]
	if !ok {
		return chanlog.SinkHandle{}, &chanlog.NotFoundError{SinkID: sinkID}
	}
	r.teardownEntry(e)
	delete(r.sinks, sinkID)
	return e.handle, nil
}

// Find returns sinkID's current handle, if installed.
func (r *Registry) Find(sinkID string) (chanlog.SinkHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return chanlog.SinkHandle{}, &chanlog.ChannelNotRunningError{ChannelID: r.channelID}
	}
	e, ok := r.sinks[sinkID]
	if !ok {
		return chanlog.SinkHandle{}, &chanlog.NotFoundError{SinkID: sinkID}
	}
	return e.handle, nil
}

// ListSinks returns a snapshot of every installed sink, ordered by id.
func (r *Registry) ListSinks() ([]chanlog.SinkHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, &chanlog.ChannelNotRunningError{ChannelID: r.channelID}
	}
	out := make([]chanlog.SinkHandle, 0, len(r.sinks))
	for _, e := range r.sinks {
		out = append(out, e.handle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetCondition re-indexes sinkID from its current condition to cond via
// Diff, returning the previous condition.
func (r *Registry) SetCondition(sinkID string, cond chanlog.Condition) (chanlog.Condition, error) {
	newKeys, err := chanlog.Normalize(cond)
	if err != nil {
		return chanlog.Condition{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return chanlog.Condition{}, &chanlog.ChannelNotRunningError{ChannelID: r.channelID}
	}
	e, ok := r.sinks[sinkID]
	if !ok {
		return chanlog.Condition{}, &chanlog.NotFoundError{SinkID: sinkID}
	}

	previous := e.handle.Condition
	r.idx.Reindex(sinkID, newKeys, e.keys)
	e.keys = newKeys
	e.handle.Condition = cond
	return previous, nil
}

// Close tears down every installed sink and marks the registry closed;
// subsequent calls fail with ChannelNotRunning.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	for _, e := range r.sinks {
		r.teardownEntry(e)
	}
	r.sinks = nil
	r.closed = true
}
