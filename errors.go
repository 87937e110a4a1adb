package chanlog

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, classified per spec §7. InvalidArgument and
// ChannelNotRunning are raised synchronously from the administrative
// surface; AlreadyInstalled and NotFound are returned as values, the first
// carrying the sink already installed and the second the id that could not
// be resolved (never panics, never wrapped channel errors).
var (
	ErrInvalidArgument  = errors.New("chanlog: invalid argument")
	ErrChannelNotRunning = errors.New("chanlog: channel not running")
	ErrAlreadyInstalled = errors.New("chanlog: sink already installed")
	ErrNotFound         = errors.New("chanlog: sink not found")
)

// AlreadyInstalledError carries the previously installed sink so callers
// using if_exists=error can inspect what is already there without a second
// round trip through Find.
type AlreadyInstalledError struct {
	SinkID   string
	Previous SinkHandle
}

func (e *AlreadyInstalledError) Error() string {
	return fmt.Sprintf("chanlog: sink %q already installed", e.SinkID)
}

func (e *AlreadyInstalledError) Unwrap() error { return ErrAlreadyInstalled }

// NotFoundError carries the sink id an uninstall/find/set_condition call
// could not resolve.
type NotFoundError struct {
	SinkID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("chanlog: sink %q not found", e.SinkID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ChannelNotRunningError names the channel an administrative call targeted
// after it was deleted, or before it was ever created.
type ChannelNotRunningError struct {
	ChannelID string
}

func (e *ChannelNotRunningError) Error() string {
	return fmt.Sprintf("chanlog: channel %q is not running", e.ChannelID)
}

func (e *ChannelNotRunningError) Unwrap() error { return ErrChannelNotRunning }

// InvalidArgumentError classifies a synchronous validation failure: a
// malformed sink id, condition, or lifetime value.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("chanlog: invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return ErrInvalidArgument }
