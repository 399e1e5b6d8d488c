// Package live implements the duplex websocket session to the dictation
// backend.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"voice-dictation-service/internal/codec"
	"voice-dictation-service/internal/transport"
)

// ErrSessionClosed is returned by Send after Close.
var ErrSessionClosed = errors.New("live session is closed")

const closeGracePeriod = time.Second

// Session implements transport.Transport over a websocket connection.
// Audio frames flow out as media messages; transcript events flow in on a
// dedicated read loop. A single Session can be connected once.
type Session struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// New creates an unconnected session.
func New() *Session {
	return &Session{}
}

// Connect dials the backend, sends the setup payload and starts the read
// loop. Cancelling ctx aborts the dial.
func (s *Session) Connect(ctx context.Context, cfg transport.Config, h transport.Handler) error {
	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	setup := setupMessage{
		AudioEncodingConfig: audioEncodingConfig{Transcription: cfg.Transcription},
		ResponseModalities:  []string{"AUDIO"},
	}
	if err := conn.WriteJSON(setup); err != nil {
		conn.Close()
		return fmt.Errorf("send setup: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.closed = false
	s.mu.Unlock()

	go s.readLoop(conn, h)

	log.Debug().Str("url", cfg.URL).Msg("Live session connected")
	return nil
}

// Send ships one media frame. Writes are serialized: gorilla connections
// allow one concurrent writer.
func (s *Session) Send(frame codec.EncodedFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil || s.closed {
		return ErrSessionClosed
	}

	msg := mediaMessage{Media: media{Data: frame.Data, MimeType: frame.MimeType}}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send frame: %w", err)
	}
	return nil
}

// readLoop delivers inbound events in receipt order until the connection
// dies. A read failure after Close is the expected teardown path and is not
// reported.
func (s *Session) readLoop(conn *websocket.Conn, h transport.Handler) {
	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				h.OnError(fmt.Errorf("session read: %w", err))
			}
			return
		}

		sc := msg.ServerContent
		if sc == nil {
			continue
		}
		if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
			h.OnTranscript(sc.InputTranscription.Text)
		}
		if sc.TurnComplete {
			h.OnTurnComplete()
		}
	}
}

// Close gracefully ends the session. Idempotent; safe before Connect.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.conn == nil {
		return nil
	}

	deadline := time.Now().Add(closeGracePeriod)
	if err := s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), deadline); err != nil {
		log.Debug().Err(err).Msg("Close frame write failed")
	}

	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
