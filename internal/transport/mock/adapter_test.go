package mock

import (
	"context"
	"strings"
	"testing"

	"voice-dictation-service/internal/codec"
	"voice-dictation-service/internal/transport"
)

type recordingHandler struct {
	transcripts []string
	turns       int
	errs        []error
}

func (h *recordingHandler) OnTranscript(text string) { h.transcripts = append(h.transcripts, text) }
func (h *recordingHandler) OnTurnComplete()          { h.turns++ }
func (h *recordingHandler) OnError(err error)        { h.errs = append(h.errs, err) }

func frame() codec.EncodedFrame {
	return codec.Encode([]float32{0, 0.1, -0.1})
}

func TestAdapter_OneDeltaPerFrame(t *testing.T) {
	script := []ScriptedUtterance{{Deltas: []string{"Hel", "lo "}}}
	a := NewWithScript(script)
	h := &recordingHandler{}

	if err := a.Connect(context.Background(), transport.Config{}, h); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := a.Send(frame()); err != nil {
			t.Fatalf("send %d: unexpected error %v", i, err)
		}
	}

	if len(h.transcripts) != 2 {
		t.Fatalf("expected 2 deltas, got %v", h.transcripts)
	}
	if got := strings.Join(h.transcripts, ""); got != "Hello " {
		t.Errorf("expected deltas to concatenate to 'Hello ', got %q", got)
	}
	if h.turns != 0 {
		t.Errorf("expected no turn completion yet, got %d", h.turns)
	}
}

func TestAdapter_TurnCompleteAfterDeltasExhausted(t *testing.T) {
	script := []ScriptedUtterance{{Deltas: []string{"one"}}}
	a := NewWithScript(script)
	h := &recordingHandler{}

	if err := a.Connect(context.Background(), transport.Config{}, h); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	// delta, then turn completion
	_ = a.Send(frame())
	_ = a.Send(frame())

	if len(h.transcripts) != 1 || h.transcripts[0] != "one" {
		t.Errorf("expected single delta 'one', got %v", h.transcripts)
	}
	if h.turns != 1 {
		t.Errorf("expected 1 turn completion, got %d", h.turns)
	}
}

func TestAdapter_ScriptCycles(t *testing.T) {
	script := []ScriptedUtterance{
		{Deltas: []string{"first"}},
		{Deltas: []string{"second"}},
	}
	a := NewWithScript(script)
	h := &recordingHandler{}

	if err := a.Connect(context.Background(), transport.Config{}, h); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}

	// Three utterances with their turn boundaries: the script wraps
	for i := 0; i < 6; i++ {
		_ = a.Send(frame())
	}

	want := []string{"first", "second", "first"}
	if len(h.transcripts) != len(want) {
		t.Fatalf("expected %d deltas, got %v", len(want), h.transcripts)
	}
	for i, w := range want {
		if h.transcripts[i] != w {
			t.Errorf("delta %d: expected %q, got %q", i, w, h.transcripts[i])
		}
	}
	if h.turns != 3 {
		t.Errorf("expected 3 turn completions, got %d", h.turns)
	}
}

func TestAdapter_SendAfterClose(t *testing.T) {
	a := New()
	h := &recordingHandler{}

	if err := a.Connect(context.Background(), transport.Config{}, h); err != nil {
		t.Fatalf("unexpected connect error: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}

	if err := a.Send(frame()); err != nil {
		t.Errorf("send after close should be a silent no-op, got %v", err)
	}
	if len(h.transcripts) != 0 || h.turns != 0 {
		t.Errorf("expected no emissions after close, got %v / %d turns", h.transcripts, h.turns)
	}
}

func TestAdapter_CloseIdempotent(t *testing.T) {
	a := New()
	if err := a.Close(); err != nil {
		t.Errorf("close before connect: unexpected error %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second close: unexpected error %v", err)
	}
}
