package codec

import (
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"
)

// decodePCM reverses the wire encoding: base64 -> PCM16LE -> float samples.
func decodePCM(t *testing.T, data string) []float32 {
	t.Helper()
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if len(pcm)%2 != 0 {
		t.Fatalf("payload length %d is not a whole number of samples", len(pcm))
	}
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		samples[i] = float32(v) / 32767
	}
	return samples
}

func TestEncode_RoundTripAccuracy(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 1, -1, 0.123, -0.987, 0.00003}

	enc := Encode(in)
	out := decodePCM(t, enc.Data)

	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		diff := math.Abs(float64(in[i]) - float64(out[i]))
		if diff > 1.0/32768 {
			t.Errorf("sample %d: error %g exceeds one quantization step", i, diff)
		}
	}
}

func TestEncode_ClampsOutOfRange(t *testing.T) {
	enc := Encode([]float32{1.5, -1.5})
	pcm, err := base64.StdEncoding.DecodeString(enc.Data)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}

	hi := int16(binary.LittleEndian.Uint16(pcm[0:]))
	lo := int16(binary.LittleEndian.Uint16(pcm[2:]))

	if hi != 32767 {
		t.Errorf("expected +1.5 to clamp to 32767, got %d", hi)
	}
	if lo != -32768 {
		t.Errorf("expected -1.5 to clamp to -32768, got %d", lo)
	}
}

func TestEncode_LittleEndian(t *testing.T) {
	enc := Encode([]float32{1})
	pcm, err := base64.StdEncoding.DecodeString(enc.Data)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	if pcm[0] != 0xFF || pcm[1] != 0x7F {
		t.Errorf("expected full-scale sample as FF 7F, got %X %X", pcm[0], pcm[1])
	}
}

func TestEncode_MimeType(t *testing.T) {
	enc := Encode([]float32{0})
	if enc.MimeType != "audio/pcm;rate=16000" {
		t.Errorf("expected mime 'audio/pcm;rate=16000', got %s", enc.MimeType)
	}
}

func TestEncode_EmptyFrame(t *testing.T) {
	enc := Encode(nil)
	if enc.Data != "" {
		t.Errorf("expected empty payload for empty frame, got %q", enc.Data)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	in := []float32{0.25, -0.75, 0.5}
	a := Encode(in)
	b := Encode(in)
	if a != b {
		t.Errorf("expected identical output for identical input: %v vs %v", a, b)
	}
}
