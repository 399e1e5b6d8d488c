// Package codec converts captured audio frames into the backend wire format.
package codec

import (
	"encoding/base64"
	"encoding/binary"
	"math"
)

// MimeTypePCM16 describes the payload produced by Encode: 16-bit signed
// little-endian linear PCM at 16 kHz mono.
const MimeTypePCM16 = "audio/pcm;rate=16000"

// EncodedFrame is the transport payload derived from one capture quantum.
// Immutable; sent at most once.
type EncodedFrame struct {
	Data     string // base64 PCM16LE
	MimeType string
}

// Encode quantizes float samples in [-1, 1] to 16-bit signed little-endian
// PCM and base64-encodes the result. Samples outside the expected range are
// clamped, not rejected. Pure and deterministic: no state is retained
// across calls.
func Encode(samples []float32) EncodedFrame {
	pcm := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(v)))
	}
	return EncodedFrame{
		Data:     base64.StdEncoding.EncodeToString(pcm),
		MimeType: MimeTypePCM16,
	}
}
