package provider

import (
	"context"
	"errors"
	"strings"
	"syscall"
	"time"
)

// State is where a connection attempt ended up. Every attempt starts
// Pending and moves to exactly one of the other states.
type State int

const (
	Pending State = iota
	Connected
	TimedOut
	ConnectionRefused
	OtherError
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Connected:
		return "connected"
	case TimedOut:
		return "timed_out"
	case ConnectionRefused:
		return "connection_refused"
	case OtherError:
		return "error"
	}
	return "unknown"
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Stage names the step an attempt failed in.
type Stage string

const (
	StageConnect   Stage = "connect"
	StageListTools Stage = "list_tools"
)

// ErrNoTools marks a provider that connected but offers nothing.
var ErrNoTools = errors.New("provider lists no tools")

// Outcome records one provider's connection attempt.
type Outcome struct {
	Name     string
	State    State
	Stage    Stage
	Err      error
	Tools    int
	Duration time.Duration
}

// Failed reports whether the provider was skipped.
func (o Outcome) Failed() bool { return o.State != Connected }

// classify maps an attempt error to its terminal state. deadline is the
// error of the context that bounded the step, if any.
func classify(err, deadline error) State {
	switch {
	case err == nil:
		return Connected
	case errors.Is(err, context.DeadlineExceeded), errors.Is(deadline, context.DeadlineExceeded):
		return TimedOut
	case errors.Is(err, syscall.ECONNREFUSED), strings.Contains(err.Error(), "connection refused"):
		return ConnectionRefused
	}
	return OtherError
}
