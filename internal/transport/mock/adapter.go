// Package mock provides a scripted session transport for tests and local
// runs without backend credentials. It simulates realistic dictation
// behavior: incremental transcript deltas as audio arrives and exactly one
// turn completion per utterance.
package mock

import (
	"context"
	"sync"
	"time"

	"voice-dictation-service/internal/codec"
	"voice-dictation-service/internal/transport"
)

// ScriptedUtterance is one simulated utterance delivered as incremental
// deltas.
type ScriptedUtterance struct {
	Deltas []string
}

// DefaultScript provides sample utterances for simulation.
var DefaultScript = []ScriptedUtterance{
	{Deltas: []string{"add ", "milk ", "and eggs ", "to the shopping list"}},
	{Deltas: []string{"remind me ", "to call ", "the dentist ", "tomorrow"}},
	{Deltas: []string{"new note ", "about the ", "quarterly planning meeting"}},
}

// Adapter implements transport.Transport with scripted responses. One delta
// is emitted per received frame; when an utterance's deltas are exhausted
// the next frame triggers its turn completion.
type Adapter struct {
	mu        sync.Mutex
	handler   transport.Handler
	script    []ScriptedUtterance
	delay     time.Duration
	utterance int
	delta     int
	connected bool
	closed    bool
}

// New creates a mock transport playing DefaultScript.
func New() *Adapter {
	return NewWithScript(DefaultScript)
}

// NewWithScript creates a mock transport playing the given utterances in
// order, cycling when exhausted.
func NewWithScript(script []ScriptedUtterance) *Adapter {
	return &Adapter{script: script}
}

// SetDelay makes emissions asynchronous with the given delay, approximating
// backend latency. Zero (the default) emits synchronously from Send.
func (a *Adapter) SetDelay(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delay = d
}

// Connect registers the handler; there is no real session to open.
func (a *Adapter) Connect(ctx context.Context, cfg transport.Config, h transport.Handler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = h
	a.connected = true
	a.closed = false
	return nil
}

// Send consumes one frame and advances the script.
func (a *Adapter) Send(frame codec.EncodedFrame) error {
	a.mu.Lock()

	if a.closed || !a.connected || len(a.script) == 0 {
		a.mu.Unlock()
		return nil
	}

	h := a.handler
	delay := a.delay
	utt := a.script[a.utterance%len(a.script)]

	var emit func()
	if a.delta < len(utt.Deltas) {
		delta := utt.Deltas[a.delta]
		a.delta++
		emit = func() { h.OnTranscript(delta) }
	} else {
		a.utterance++
		a.delta = 0
		emit = func() { h.OnTurnComplete() }
	}
	a.mu.Unlock()

	if delay > 0 {
		go func() {
			time.Sleep(delay)
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if !closed {
				emit()
			}
		}()
		return nil
	}

	emit()
	return nil
}

// Close ends the mock session. Idempotent.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}
