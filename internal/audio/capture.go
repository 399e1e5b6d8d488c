// Package audio owns the microphone stream and the capture pipeline.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"

	"voice-dictation-service/internal/observability/metrics"
)

// Frame is one fixed-size quantum of mono samples with amplitude in [-1, 1].
type Frame []float32

// Device access errors surfaced by Start.
var (
	ErrPermissionDenied  = errors.New("microphone access denied")
	ErrDeviceUnavailable = errors.New("no audio input device available")
)

// Capture produces a continuous stream of fixed-size audio frames, pushed at
// the audio subsystem's own real-time cadence. A consumer that falls behind
// loses the newest frame; the device callback never stalls.
type Capture interface {
	// Start acquires the input device and begins frame delivery. The
	// returned channel is closed by Stop.
	Start(ctx context.Context) (<-chan Frame, error)

	// Stop tears down the capture pipeline and releases the device.
	// Idempotent, safe to call when not started, never panics: cleanup
	// failures are logged and swallowed.
	Stop()
}

// Graph is the portaudio-backed Capture implementation.
type Graph struct {
	sampleRate int
	quantum    int
	buffer     int

	mu      sync.Mutex
	stream  *portaudio.Stream
	frames  chan Frame
	started bool
}

// NewGraph creates a capture graph. buffer is the number of frames held
// between the device callback and the consumer.
func NewGraph(sampleRate, quantum, buffer int) *Graph {
	if buffer < 1 {
		buffer = 1
	}
	return &Graph{sampleRate: sampleRate, quantum: quantum, buffer: buffer}
}

// Start requests the default input device and begins frame delivery.
// Opening the device triggers the OS-level microphone permission prompt on
// first use.
func (g *Graph) Start(ctx context.Context) (<-chan Frame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started {
		return nil, errors.New("capture already started")
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio subsystem init: %w", err)
	}

	frames := make(chan Frame, g.buffer)
	m := metrics.DefaultMetrics

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(g.sampleRate), g.quantum,
		func(in []float32) {
			frame := make(Frame, len(in))
			copy(frame, in)
			select {
			case frames <- frame:
				m.FramesCaptured.Inc()
			default:
				m.FramesDropped.Inc()
				log.Debug().Msg("Frame dropped: consumer behind capture cadence")
			}
		})
	if err != nil {
		if e := portaudio.Terminate(); e != nil {
			log.Warn().Err(e).Msg("Audio subsystem terminate failed")
		}
		return nil, classifyDeviceError(err)
	}

	if err := stream.Start(); err != nil {
		if e := stream.Close(); e != nil {
			log.Warn().Err(e).Msg("Audio stream close failed")
		}
		if e := portaudio.Terminate(); e != nil {
			log.Warn().Err(e).Msg("Audio subsystem terminate failed")
		}
		return nil, classifyDeviceError(err)
	}

	g.stream = stream
	g.frames = frames
	g.started = true

	log.Info().
		Int("sampleRate", g.sampleRate).
		Int("quantum", g.quantum).
		Msg("Audio capture started")

	return frames, nil
}

// Stop tears down the stream and releases the device. The frame channel is
// closed only after the device callback has stopped firing.
func (g *Graph) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started {
		return
	}
	g.started = false

	if err := g.stream.Stop(); err != nil {
		log.Warn().Err(err).Msg("Audio stream stop failed")
	}
	if err := g.stream.Close(); err != nil {
		log.Warn().Err(err).Msg("Audio stream close failed")
	}
	if err := portaudio.Terminate(); err != nil {
		log.Warn().Err(err).Msg("Audio subsystem terminate failed")
	}

	close(g.frames)
	g.stream = nil
	g.frames = nil

	log.Info().Msg("Audio capture stopped")
}

// classifyDeviceError maps portaudio failures onto the device error
// taxonomy. Portaudio reports both conditions as plain errors, so the
// mapping is by message.
func classifyDeviceError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "denied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "no default input") ||
		strings.Contains(msg, "device unavailable") ||
		strings.Contains(msg, "no device") ||
		strings.Contains(msg, "invalid device"):
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	default:
		return fmt.Errorf("open capture stream: %w", err)
	}
}
