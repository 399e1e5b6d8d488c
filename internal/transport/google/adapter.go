// Package google provides a Google Cloud Speech-to-Text session transport.
package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voice-dictation-service/internal/codec"
	"voice-dictation-service/internal/transport"
)

// Adapter implements transport.Transport using Google Cloud Speech-to-Text.
//
// Google interim results replace the running hypothesis instead of
// extending it, which does not fit the incremental-delta contract expected
// downstream. Interim results are therefore disabled: each final surfaces
// as a single delta followed by a turn completion.
type Adapter struct {
	client *speech.Client

	mu     sync.Mutex
	stream speechpb.Speech_StreamingRecognizeClient
	closed bool
}

// New creates the adapter. Requires GOOGLE_APPLICATION_CREDENTIALS to be
// set in the environment.
func New(ctx context.Context) (*Adapter, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &Adapter{client: c}, nil
}

// Connect opens a streaming recognition session and sends the initial
// recognition config.
func (a *Adapter) Connect(ctx context.Context, cfg transport.Config, h transport.Handler) error {
	stream, err := a.client.StreamingRecognize(ctx)
	if err != nil {
		switch status.Code(err) {
		case codes.Unauthenticated, codes.PermissionDenied:
			return fmt.Errorf("speech auth: %w", err)
		default:
			return fmt.Errorf("open recognize stream: %w", err)
		}
	}

	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(cfg.SampleRateHz),
					LanguageCode:    cfg.LanguageCode,
				},
				InterimResults: false,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send recognition config: %w", err)
	}

	a.mu.Lock()
	a.stream = stream
	a.closed = false
	a.mu.Unlock()

	go a.listen(stream, h)
	return nil
}

// Send forwards one frame's PCM bytes to the recognizer. The wire format is
// base64 over the websocket transport; Google takes raw bytes.
func (a *Adapter) Send(frame codec.EncodedFrame) error {
	a.mu.Lock()
	stream := a.stream
	closed := a.closed
	a.mu.Unlock()

	if stream == nil || closed {
		return fmt.Errorf("recognize stream is closed")
	}

	pcm, err := base64.StdEncoding.DecodeString(frame.Data)
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: pcm,
		},
	})
}

// listen receives recognition responses and maps them onto the handler:
// one delta plus one turn completion per final result.
func (a *Adapter) listen(stream speechpb.Speech_StreamingRecognizeClient, h transport.Handler) {
	for {
		resp, err := stream.Recv()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if !closed {
				h.OnError(fmt.Errorf("recognize stream: %w", err))
			}
			return
		}

		for _, r := range resp.Results {
			if !r.IsFinal || len(r.Alternatives) == 0 {
				continue
			}
			h.OnTranscript(r.Alternatives[0].Transcript)
			h.OnTurnComplete()
		}
	}
}

// Close half-closes the send side; the recognizer then drains and ends the
// stream. Idempotent.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if a.stream == nil {
		return nil
	}
	if err := a.stream.CloseSend(); err != nil {
		return fmt.Errorf("close recognize stream: %w", err)
	}
	return nil
}
