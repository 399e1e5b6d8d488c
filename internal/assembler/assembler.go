// Package assembler folds incremental transcript deltas into stable utterances.
package assembler

import "strings"

// Result is one transcription result: the text accumulated so far
// (non-final) or a completed utterance (final).
type Result struct {
	Text    string
	IsFinal bool
}

// EmitFunc receives results synchronously, in the exact order events were
// processed.
type EmitFunc func(Result)

// Assembler accumulates partial-text deltas between turn boundaries.
// Pure bookkeeping, no I/O. Not safe for concurrent use: the session
// controller feeds it from a single goroutine.
type Assembler struct {
	buf  strings.Builder
	emit EmitFunc
}

// New creates an assembler that delivers results through emit.
func New(emit EmitFunc) *Assembler {
	return &Assembler{emit: emit}
}

// OnPartial appends one incremental suffix to the current utterance and
// emits the accumulated text as a non-final result.
func (a *Assembler) OnPartial(textDelta string) {
	a.buf.WriteString(textDelta)
	a.emit(Result{Text: a.buf.String()})
}

// OnTurnComplete emits the accumulated utterance as a final result and
// clears the buffer. An empty buffer emits nothing.
func (a *Assembler) OnTurnComplete() {
	if a.buf.Len() == 0 {
		return
	}
	a.emit(Result{Text: a.buf.String(), IsFinal: true})
	a.buf.Reset()
}

// Reset discards any partially accumulated utterance without emitting.
func (a *Assembler) Reset() {
	a.buf.Reset()
}

// Pending returns the text of the turn in progress.
func (a *Assembler) Pending() string {
	return a.buf.String()
}
