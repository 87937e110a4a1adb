// Package lifetime implements the lifetime watcher: the two non-infinite
// bounds a sink registration can carry (a one-shot duration, or the
// liveness of an external task) unified behind a single cancellable token
// and expiry callback, per spec §4.4/§9.
package lifetime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Token correlates an expiry event back to the registry entry it belongs
// to. A channel actor matches an incoming expiry by token identity; a
// token whose entry was already replaced or uninstalled is dropped
// silently by the caller, not by this package.
type Token string

// NewToken returns a fresh, process-unique token.
func NewToken() Token {
	return Token(uuid.NewString())
}

// Handle cancels a scheduled watch. Cancelling an already-fired or
// already-cancelled Handle is a no-op.
type Handle struct {
	cancel func()
}

// Cancel releases the watch. Safe to call on the zero Handle (infinity
// lifetimes use it) and safe to call more than once.
func (h Handle) Cancel() {
	if h.cancel != nil {
		h.cancel()
	}
}

// WatchDuration schedules a one-shot timer; onExpire(token) runs once, on
// its own goroutine, when d elapses, unless Cancel fires first.
func WatchDuration(d time.Duration, token Token, onExpire func(Token)) Handle {
	timer := time.AfterFunc(d, func() { onExpire(token) })
	return Handle{cancel: func() { timer.Stop() }}
}

// WatchProcess watches ctx's liveness; onExpire(token) runs once ctx is
// done, unless Cancel releases the monitor first.
func WatchProcess(ctx context.Context, token Token, onExpire func(Token)) Handle {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			onExpire(token)
		case <-stop:
		}
	}()
	var once sync.Once
	return Handle{cancel: func() {
		once.Do(func() { close(stop) })
	}}
}
