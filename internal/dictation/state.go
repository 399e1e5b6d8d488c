package dictation

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of the dictation session.
type State int

const (
	// StateIdle - no session; both the initial and terminal state.
	StateIdle State = iota
	// StateConnecting - transport connect in flight, microphone not yet open.
	StateConnecting
	// StateActive - session established, frames flowing.
	StateActive
	// StateStopping - ordered teardown in progress.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateConnecting:
		return "CONNECTING"
	case StateActive:
		return "ACTIVE"
	case StateStopping:
		return "STOPPING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid state transitions.
var (
	ErrSessionInProgress = errors.New("a dictation session is already in progress")
	ErrNotConnecting     = errors.New("session is not connecting")
	ErrNoSession         = errors.New("no dictation session in progress")
)

// lifecycle manages the session state machine. Thread-safe.
//
// Transitions:
//
//	IDLE → CONNECTING → ACTIVE → STOPPING → IDLE
//	           │
//	           └──────────────→ STOPPING (stop/error mid-connect)
type lifecycle struct {
	mu    sync.RWMutex
	state State
}

// State returns the current state.
func (l *lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// BeginConnect transitions IDLE → CONNECTING. Any other state means a
// session already exists.
func (l *lifecycle) BeginConnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateIdle {
		return ErrSessionInProgress
	}
	l.state = StateConnecting
	return nil
}

// Activate transitions CONNECTING → ACTIVE. Fails when a stop began while
// the connect was in flight.
func (l *lifecycle) Activate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateConnecting {
		return ErrNotConnecting
	}
	l.state = StateActive
	return nil
}

// BeginStop transitions CONNECTING or ACTIVE → STOPPING. Returns
// ErrNoSession when there is nothing to stop; a teardown already in
// progress counts as nothing to stop, making the stop path idempotent.
func (l *lifecycle) BeginStop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.state {
	case StateConnecting, StateActive:
		l.state = StateStopping
		return nil
	default:
		return ErrNoSession
	}
}

// Reset forces the state back to IDLE. Idempotent; used both to complete a
// teardown and to abandon a failed connect.
func (l *lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateIdle
}
