// Package composite implements the composite sink coordinator: a single
// sink id backed by an ordered collection of child sinks, one of which is
// "active" and whose writer is published upward to the parent (the
// channel index) without ever re-registering the composite sink itself.
package composite

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/chanlog"
)

// DefaultInitialWait is how long Start gathers each child's first writer
// before giving up and leaving it none, mirroring the source's hard-coded
// ~100ms (spec §4.5, §9's configurability open question).
const DefaultInitialWait = 100 * time.Millisecond

// Child is one member of a composite sink: its own id (for diagnostics)
// and how it obtains a writer, exactly like a top-level sink's StartSpec.
type Child struct {
	ID     string
	Writer chanlog.StartSpec
}

// Coordinator manages a composite sink's children, tracks each child's
// latest known writer, and exposes the currently active one upward via the
// publish callback given to Start. What reaches the parent through that
// callback is the active child's own writer, not the Coordinator. The
// Coordinator also implements chanlog.Writer itself, with Write/Writee
// forwarding to whichever child is active.
type Coordinator struct {
	id            string
	initialWait   time.Duration
	publish       func(chanlog.Writer)
	onWaitTimeout func(childID string)

	mu       sync.RWMutex
	children []Child
	writers  []chanlog.Writer // parallel to children; nil until published
	active   int              // -1 means unset
	cancels  []context.CancelFunc
}

// New creates a coordinator for id with the given children; children must
// be non-empty. initialWait <= 0 uses DefaultInitialWait.
func New(id string, children []Child, initialWait time.Duration, onWaitTimeout func(childID string)) *Coordinator {
	if initialWait <= 0 {
		initialWait = DefaultInitialWait
	}
	cp := make([]Child, len(children))
	copy(cp, children)
	return &Coordinator{
		id:            id,
		initialWait:   initialWait,
		children:      cp,
		writers:       make([]chanlog.Writer, len(cp)),
		cancels:       make([]context.CancelFunc, len(cp)),
		active:        len(cp) - 1, // "last child is active by default"
		onWaitTimeout: onWaitTimeout,
	}
}

// Start launches every child as a supervised subordinate, waits up to
// initialWait for each one's first writer (a timed-out child stays nil,
// reported via onWaitTimeout), then publishes the default-active child's
// writer upward via publish. publish is also used for every later
// writer_update from whichever child is currently active. A writer a child
// publishes while Start is still gathering is cached and goes out with that
// first publish.
func (co *Coordinator) Start(publish func(chanlog.Writer)) {
	var g errgroup.Group
	for i, child := range co.children {
		i, child := i, child
		g.Go(func() error {
			co.startChild(i, child)
			return nil
		})
	}
	g.Wait()

	co.mu.Lock()
	defer co.mu.Unlock()
	co.publish = publish
	co.publishActiveLocked()
}

func (co *Coordinator) startChild(i int, child Child) {
	if child.Writer.Immediate != nil {
		co.mu.Lock()
		co.writers[i] = child.Writer.Immediate
		co.mu.Unlock()
		return
	}
	if child.Writer.Start == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	co.mu.Lock()
	co.cancels[i] = cancel
	co.mu.Unlock()

	first := make(chan struct{})
	var once sync.Once
	go child.Writer.Start(ctx, func(w chanlog.Writer) {
		co.mu.Lock()
		co.writers[i] = w
		active := i == co.active
		co.mu.Unlock()
		once.Do(func() { close(first) })
		if active {
			co.republish()
		}
	})

	select {
	case <-first:
	case <-time.After(co.initialWait):
		if co.onWaitTimeout != nil {
			co.onWaitTimeout(child.ID)
		}
	}
}

func (co *Coordinator) republish() {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.publishActiveLocked()
}

// publishActiveLocked must be called with co.mu held.
func (co *Coordinator) publishActiveLocked() {
	if co.publish == nil {
		return
	}
	if co.active < 0 || co.active >= len(co.writers) {
		co.publish(nil)
		return
	}
	co.publish(co.writers[co.active])
}

// Children returns a read-only snapshot of the composite's children.
func (co *Coordinator) Children() []Child {
	co.mu.RLock()
	defer co.mu.RUnlock()
	out := make([]Child, len(co.children))
	copy(out, co.children)
	return out
}

// SetActive selects the n-th child (1-indexed) and publishes its current
// writer (possibly nil) upward.
func (co *Coordinator) SetActive(n int) error {
	co.mu.Lock()
	if n < 1 || n > len(co.children) {
		co.mu.Unlock()
		return &chanlog.InvalidArgumentError{Field: "composite.active", Reason: "index out of range"}
	}
	co.active = n - 1
	co.mu.Unlock()
	co.republish()
	return nil
}

// UnsetActive publishes none upward.
func (co *Coordinator) UnsetActive() {
	co.mu.Lock()
	co.active = -1
	co.mu.Unlock()
	co.republish()
}

// Close cancels every child's async writer producer.
func (co *Coordinator) Close() {
	co.mu.Lock()
	defer co.mu.Unlock()
	for _, cancel := range co.cancels {
		if cancel != nil {
			cancel()
		}
	}
}

// Write forwards to the active child's writer. Returns an error if no
// child is currently active or that child has no writer yet.
func (co *Coordinator) Write(ctx context.Context, format string, data any) ([]byte, error) {
	co.mu.RLock()
	var active chanlog.Writer
	if co.active >= 0 && co.active < len(co.writers) {
		active = co.writers[co.active]
	}
	co.mu.RUnlock()
	if active == nil {
		return nil, &chanlog.InvalidArgumentError{Field: "composite.active", Reason: "no writer published"}
	}
	return active.Write(ctx, format, data)
}

// Writee forwards to the active child's writer, or nil if there isn't one.
func (co *Coordinator) Writee() any {
	co.mu.RLock()
	defer co.mu.RUnlock()
	if co.active >= 0 && co.active < len(co.writers) && co.writers[co.active] != nil {
		return co.writers[co.active].Writee()
	}
	return nil
}
