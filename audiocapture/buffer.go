package audiocapture

import (
	"math"
	"sync"
	"time"
)

// SampleBuffer is an append-only store of normalized mono samples for one
// recording session. The capture callback is the single writer; the tick
// loop reads non-destructively via Snapshot and the stop path drains via
// Drain. All three share one mutex, so a reader never observes a torn
// append.
type SampleBuffer struct {
	mu         sync.Mutex
	samples    []float32
	sampleRate int
}

// NewSampleBuffer creates a buffer for samples at the given rate.
func NewSampleBuffer(sampleRate int) *SampleBuffer {
	return &SampleBuffer{
		samples:    make([]float32, 0, sampleRate*30),
		sampleRate: sampleRate,
	}
}

// Append adds a chunk of samples. Called from the capture callback.
func (b *SampleBuffer) Append(chunk []float32) {
	b.mu.Lock()
	b.samples = append(b.samples, chunk...)
	b.mu.Unlock()
}

// Snapshot returns a copy of the current samples without clearing them.
// Safe to call any number of times while recording continues.
func (b *SampleBuffer) Snapshot() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Drain returns all buffered samples and clears the buffer. Draining an
// empty buffer returns an empty slice.
func (b *SampleBuffer) Drain() []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.samples
	b.samples = make([]float32, 0, b.sampleRate*30)
	return out
}

// Len returns the number of buffered samples.
func (b *SampleBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Duration returns the duration of the buffered audio.
func (b *SampleBuffer) Duration() time.Duration {
	b.mu.Lock()
	n := len(b.samples)
	b.mu.Unlock()
	if b.sampleRate == 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(b.sampleRate) * float64(time.Second))
}

// RMS returns the root mean square of the samples, 0 for an empty slice.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
