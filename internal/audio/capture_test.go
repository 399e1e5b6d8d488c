package audio

import (
	"errors"
	"testing"
)

func TestClassifyDeviceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"permission denied", errors.New("Input device permission denied"), ErrPermissionDenied},
		{"access denied", errors.New("access denied by host"), ErrPermissionDenied},
		{"no default input", errors.New("no default input device"), ErrDeviceUnavailable},
		{"invalid device", errors.New("Invalid device"), ErrDeviceUnavailable},
		{"device unavailable", errors.New("Device unavailable"), ErrDeviceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyDeviceError(tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestClassifyDeviceError_Unknown(t *testing.T) {
	err := classifyDeviceError(errors.New("host api not found"))
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("expected generic wrap for unknown failure, got %v", err)
	}
	if err == nil {
		t.Error("expected non-nil error")
	}
}

func TestNewGraph_BufferFloor(t *testing.T) {
	g := NewGraph(16000, 4096, 0)
	if g.buffer != 1 {
		t.Errorf("expected buffer floor of 1, got %d", g.buffer)
	}
}

func TestGraph_StopWhenNotStarted(t *testing.T) {
	g := NewGraph(16000, 4096, 64)
	// Must be a safe no-op
	g.Stop()
	g.Stop()
}
