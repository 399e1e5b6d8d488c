// Package dictation implements the dictation session controller: the state
// machine that owns the microphone graph and the backend transport, pumps
// captured frames into the encoder and the session, and folds inbound
// transcript events into utterances for the host.
package dictation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"voice-dictation-service/internal/assembler"
	"voice-dictation-service/internal/audio"
	"voice-dictation-service/internal/codec"
	"voice-dictation-service/internal/observability/logging"
	"voice-dictation-service/internal/observability/metrics"
	"voice-dictation-service/internal/transport"
)

// Result is one host-visible outcome of a running session: a partial or
// final transcript, or a terminal session error.
type Result struct {
	Text    string
	IsFinal bool
	Err     error
}

// ResultFunc receives results in processing order. Partials carry the text
// accumulated so far; each completed utterance arrives exactly once with
// IsFinal set.
type ResultFunc func(Result)

// Options configure a Controller.
type Options struct {
	Capture   audio.Capture
	Transport transport.Transport
	Config    transport.Config

	// EventBuffer bounds the inbound transcript event channel. Zero means
	// the default.
	EventBuffer int
}

const defaultEventBuffer = 256

// Controller drives at most one dictation session at a time. The
// microphone stream and the transport handle are owned exclusively by the
// controller for the session's lifetime; its single consuming loop is the
// only place cross-cutting session state is mutated.
type Controller struct {
	capture     audio.Capture
	transport   transport.Transport
	cfg         transport.Config
	eventBuffer int

	lc lifecycle

	mu        sync.Mutex
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
}

// New creates a controller over the given capture graph and transport.
func New(opts Options) *Controller {
	eb := opts.EventBuffer
	if eb <= 0 {
		eb = defaultEventBuffer
	}
	return &Controller{
		capture:     opts.Capture,
		transport:   opts.Transport,
		cfg:         opts.Config,
		eventBuffer: eb,
	}
}

// State returns the current session state.
func (c *Controller) State() State {
	return c.lc.State()
}

// SessionID returns the identifier of the current session, or empty when
// idle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// event is one inbound unit from the transport, funneled through a bounded
// channel into the consuming loop so transport callbacks never block.
type event struct {
	kind eventKind
	text string
	err  error
}

type eventKind int

const (
	eventTranscript eventKind = iota
	eventTurnComplete
	eventError
)

// handler adapts transport callbacks onto the session's event channel. The
// channel belongs to one session only; once its loop has exited, late
// callbacks land in the buffer and are never surfaced.
type handler struct {
	events chan event
}

func (h *handler) OnTranscript(textDelta string) {
	h.push(event{kind: eventTranscript, text: textDelta})
}

func (h *handler) OnTurnComplete() {
	h.push(event{kind: eventTurnComplete})
}

func (h *handler) OnError(err error) {
	h.push(event{kind: eventError, err: err})
}

func (h *handler) push(ev event) {
	select {
	case h.events <- ev:
	default:
		metrics.DefaultMetrics.EventsDropped.Inc()
		log.Debug().Msg("Transcript event dropped: event channel full")
	}
}

// Start opens a session: transport connect first, then the microphone, so a
// connect failure never triggers the OS permission prompt. No-op with a
// warning when a session is already in progress.
func (c *Controller) Start(ctx context.Context, onResult ResultFunc) error {
	if err := c.lc.BeginConnect(); err != nil {
		log.Warn().
			Str("state", c.lc.State().String()).
			Msg("Start ignored: session already in progress")
		return nil
	}

	m := metrics.DefaultMetrics
	m.SessionsStarted.Inc()

	sessionCtx, cancel := context.WithCancel(ctx)
	sessionID := uuid.NewString()

	c.mu.Lock()
	c.sessionID = sessionID
	c.cancel = cancel
	c.startedAt = time.Now()
	c.mu.Unlock()

	h := &handler{events: make(chan event, c.eventBuffer)}

	err := c.transport.Connect(sessionCtx, c.cfg, h)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		stopped := sessionCtx.Err() != nil || c.lc.State() == StateStopping
		cancel()
		if stopped {
			// Stop() began teardown mid-connect; the outcome is discarded
			// and the pending teardown finishes the cleanup.
			return nil
		}
		c.sessionID = ""
		c.cancel = nil
		c.lc.Reset()
		m.ConnectErrors.Inc()
		return fmt.Errorf("dictation start: connect backend: %w", err)
	}

	if sessionCtx.Err() != nil {
		// The dial won the race against a Stop() that already tore the
		// session down. Discard the fresh connection.
		_ = c.transport.Close()
		return nil
	}

	frames, err := c.capture.Start(sessionCtx)
	if err != nil {
		stopped := c.lc.State() == StateStopping
		_ = c.transport.Close()
		cancel()
		if stopped {
			return nil
		}
		c.sessionID = ""
		c.cancel = nil
		c.lc.Reset()
		return fmt.Errorf("dictation start: open microphone: %w", err)
	}

	if err := c.lc.Activate(); err != nil {
		// Stop() won the race; release the resources it never saw. The
		// handles are cleared here too: a stop that already ran to
		// completion will not come back for them.
		c.capture.Stop()
		_ = c.transport.Close()
		cancel()
		c.sessionID = ""
		c.cancel = nil
		return nil
	}

	asm := assembler.New(func(r assembler.Result) {
		if r.IsFinal {
			m.TranscriptsFinal.Inc()
		} else {
			m.TranscriptsPartial.Inc()
		}
		onResult(Result{Text: r.Text, IsFinal: r.IsFinal})
	})

	done := make(chan struct{})
	c.done = done
	m.SessionsActive.Inc()

	go c.run(sessionCtx, frames, h.events, asm, onResult, done)

	sessionLog := logging.WithSession(sessionID)
	sessionLog.Info().Msg("Dictation session active")
	return nil
}

// run is the session's single consuming loop: captured frames go out
// through the encoder and the transport, inbound events go through the
// assembler to the host. Per-source ordering is preserved.
func (c *Controller) run(
	ctx context.Context,
	frames <-chan audio.Frame,
	events <-chan event,
	asm *assembler.Assembler,
	onResult ResultFunc,
	done chan struct{},
) {
	defer close(done)
	m := metrics.DefaultMetrics

	for {
		select {
		case <-ctx.Done():
			return

		case frame, ok := <-frames:
			if !ok {
				// Capture stopped; teardown is underway.
				return
			}
			enc := codec.Encode(frame)
			if err := c.transport.Send(enc); err != nil {
				// Best-effort: a dead session reports through OnError.
				m.SendErrors.Inc()
				log.Warn().Err(err).Msg("Frame send failed")
				continue
			}
			m.FramesSent.Inc()
			m.PCMBytesSent.Add(float64(2 * len(frame)))

		case ev := <-events:
			switch ev.kind {
			case eventTranscript:
				asm.OnPartial(ev.text)
			case eventTurnComplete:
				asm.OnTurnComplete()
			case eventError:
				// Same teardown as Stop, then surface to the host. Runs
				// outside this goroutine so teardown can wait for the
				// loop to exit.
				go c.fail(ev.err, onResult)
				return
			}
		}
	}
}

// Stop ends the current session: capture first, so no further frames are
// produced, then the transport, then all remaining handles. No-op when
// idle. Safe to call at any time, including mid-connect.
func (c *Controller) Stop() error {
	if !c.teardown("") {
		log.Debug().Msg("Stop ignored: no session in progress")
	}
	return nil
}

// Cancel is the fire-and-forget variant of Stop. Any partially accumulated
// utterance is discarded, not flushed.
func (c *Controller) Cancel() {
	go func() {
		_ = c.Stop()
	}()
}

// fail runs the Stop path for a terminal transport error and notifies the
// host through the result channel. A concurrent Stop wins harmlessly.
func (c *Controller) fail(cause error, onResult ResultFunc) {
	if !c.teardown("transport") {
		return
	}
	log.Error().Err(cause).Msg("Dictation session terminated by transport error")
	onResult(Result{Err: cause})
}

// teardown performs the ordered shutdown and returns false when no session
// was live. Exactly one caller wins the BeginStop transition, so cleanup
// runs once per session.
func (c *Controller) teardown(reason string) bool {
	if err := c.lc.BeginStop(); err != nil {
		return false
	}

	c.mu.Lock()
	sessionID := c.sessionID
	cancel := c.cancel
	done := c.done
	startedAt := c.startedAt
	c.mu.Unlock()

	// Order matters: stop producing frames before closing the session they
	// would be sent into.
	c.capture.Stop()
	if cancel != nil {
		cancel()
	}
	if err := c.transport.Close(); err != nil {
		log.Warn().Err(err).Msg("Transport close failed")
	}
	if done != nil {
		<-done
	}

	c.mu.Lock()
	c.sessionID = ""
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	c.lc.Reset()

	m := metrics.DefaultMetrics
	if done != nil {
		// Only sessions that reached ACTIVE count toward the gauge.
		m.SessionsActive.Dec()
		m.SessionDuration.Observe(time.Since(startedAt).Seconds())
	}
	if reason != "" {
		m.SessionErrors.WithLabelValues(reason).Inc()
	}

	sessionLog := logging.WithSession(sessionID)
	sessionLog.Info().
		Dur("duration", time.Since(startedAt)).
		Msg("Dictation session stopped")
	return true
}
