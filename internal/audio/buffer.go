package audio

// Accumulator holds the sample buffer for the current utterance. It is
// append-only between resets: partial transcription re-reads trailing
// history, so samples are kept until the utterance completes.
type Accumulator struct {
	samples []float32
}

// NewAccumulator creates an empty utterance accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{samples: make([]float32, 0, 16000)}
}

// Append appends newly pushed samples
func (a *Accumulator) Append(samples []float32) {
	a.samples = append(a.samples, samples...)
}

// Len returns the number of buffered samples
func (a *Accumulator) Len() int {
	return len(a.samples)
}

// Samples returns the full buffered utterance
func (a *Accumulator) Samples() []float32 {
	return a.samples
}

// Tail returns the trailing n samples, or the whole buffer if shorter
func (a *Accumulator) Tail(n int) []float32 {
	if n >= len(a.samples) {
		return a.samples
	}
	return a.samples[len(a.samples)-n:]
}

// Reset clears the buffer for the next utterance
func (a *Accumulator) Reset() {
	a.samples = a.samples[:0]
}
