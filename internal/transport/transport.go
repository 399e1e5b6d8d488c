// Package transport defines the interface for duplex transcription sessions.
package transport

import (
	"context"

	"voice-dictation-service/internal/codec"
)

// Handler receives inbound events from the transcription backend.
// Calls are made from the transport's own read loop and must not block.
type Handler interface {
	// OnTranscript is called once per incremental transcript delta.
	OnTranscript(textDelta string)

	// OnTurnComplete is called when the backend marks the current
	// utterance finished and stable.
	OnTurnComplete()

	// OnError is called at most once with a terminal transport error.
	// The session is unusable afterwards.
	OnError(err error)
}

// Config describes the session to open.
type Config struct {
	URL           string
	APIKey        string
	LanguageCode  string
	SampleRateHz  int
	Transcription bool
}

// Transport is a persistent duplex channel to a transcription backend
// (live websocket, Google Cloud Speech, mock).
type Transport interface {
	// Connect opens the session and registers the inbound event handler.
	// Cancelling ctx aborts an in-flight connection attempt.
	Connect(ctx context.Context, cfg Config, h Handler) error

	// Send ships one encoded frame, best-effort. Valid only between
	// Connect and Close; the session controller's state machine enforces
	// the ordering.
	Send(frame codec.EncodedFrame) error

	// Close gracefully ends the session. Idempotent; safe to call even
	// if Connect never completed.
	Close() error
}
