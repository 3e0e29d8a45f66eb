package audio

import "math"

// VADConfig holds configuration for voice activity endpointing
type VADConfig struct {
	SampleRateHz int     // Input sample rate
	FrameMs      int     // Frame duration for analysis
	EndSilenceMs int     // Trailing silence that completes an utterance
	RMSThreshold float64 // RMS energy threshold on [-1,1) samples
}

// DefaultVADConfig returns a default VAD configuration for 16 kHz input
func DefaultVADConfig(sampleRateHz int) VADConfig {
	return VADConfig{
		SampleRateHz: sampleRateHz,
		FrameMs:      30,
		EndSilenceMs: 450,
		RMSThreshold: 0.012,
	}
}

// EndpointDetector segments incoming audio into fixed-duration frames,
// classifies each by RMS energy and tracks speech/silence run-lengths to
// declare utterance endpoints.
type EndpointDetector struct {
	config        VADConfig
	speechFrames  int
	silenceFrames int
}

// NewEndpointDetector creates a detector with the given configuration.
// Unset tuning fields fall back to the defaults for the sample rate.
func NewEndpointDetector(config VADConfig) *EndpointDetector {
	defaults := DefaultVADConfig(config.SampleRateHz)
	if config.FrameMs <= 0 {
		config.FrameMs = defaults.FrameMs
	}
	if config.EndSilenceMs <= 0 {
		config.EndSilenceMs = defaults.EndSilenceMs
	}
	if config.RMSThreshold <= 0 {
		config.RMSThreshold = defaults.RMSThreshold
	}
	return &EndpointDetector{config: config}
}

// FrameLength returns the number of samples per analysis frame
func (d *EndpointDetector) FrameLength() int {
	return int(math.Round(float64(d.config.SampleRateHz) * float64(d.config.FrameMs) / 1000.0))
}

// PushSamples analyzes only the newly appended samples, scoring the whole
// frames that fit within them, and reports whether an utterance endpoint was
// reached. Samples already scored on earlier pushes are never re-analyzed.
func (d *EndpointDetector) PushSamples(newSamples []float32) bool {
	frameLen := d.FrameLength()
	if frameLen <= 0 {
		return false
	}

	nFrames := len(newSamples) / frameLen
	if nFrames <= 0 {
		return false
	}

	// Align whole frames to the end of the new slice.
	start := len(newSamples) - nFrames*frameLen

	endpoint := false
	for i := 0; i < nFrames; i++ {
		frame := newSamples[start+i*frameLen : start+(i+1)*frameLen]
		if CalculateRMS(frame) >= d.config.RMSThreshold {
			d.speechFrames++
			d.silenceFrames = 0
		} else {
			d.silenceFrames++
			if d.speechFrames > 0 && d.silenceFrames*d.config.FrameMs >= d.config.EndSilenceMs {
				endpoint = true
			}
		}
	}
	return endpoint
}

// SpeechFrames returns the cumulative speech frame count this utterance
func (d *EndpointDetector) SpeechFrames() int {
	return d.speechFrames
}

// SilenceFrames returns the current trailing silence frame count
func (d *EndpointDetector) SilenceFrames() int {
	return d.silenceFrames
}

// SpeechMs returns the confirmed speech duration this utterance
func (d *EndpointDetector) SpeechMs() int {
	return d.speechFrames * d.config.FrameMs
}

// Reset clears the detector state for the next utterance
func (d *EndpointDetector) Reset() {
	d.speechFrames = 0
	d.silenceFrames = 0
}
