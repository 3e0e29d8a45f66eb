package audio

import (
	"encoding/base64"
	"fmt"
	"math"
)

// DecodePCM16Base64 decodes base64 of raw little-endian signed 16-bit mono
// PCM into normalized float32 samples in [-1, 1).
func DecodePCM16Base64(audioB64 string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", err)
	}
	return PCM16ToFloat32(raw)
}

// PCM16ToFloat32 converts little-endian int16 PCM bytes to normalized float32
func PCM16ToFloat32(pcm []byte) ([]float32, error) {
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples), got %d", len(pcm))
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		// Little-endian 16-bit signed integer
		s := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		samples[i] = float32(s) / 32768.0
	}
	return samples, nil
}

// Float32ToPCM16 converts normalized float32 samples back to little-endian
// int16 PCM bytes, clipping to the representable range.
func Float32ToPCM16(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, sample := range samples {
		v := int32(sample * 32768.0)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}
	return pcm
}

// EncodePCM16Base64 encodes normalized samples as base64 PCM s16le
func EncodePCM16Base64(samples []float32) string {
	return base64.StdEncoding.EncodeToString(Float32ToPCM16(samples))
}

// CalculateRMS calculates the root mean square of normalized audio samples
func CalculateRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, sample := range samples {
		sum += float64(sample) * float64(sample)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
