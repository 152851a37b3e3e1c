// Package pcm accumulates captured audio frames and finalizes them into one
// contiguous sample sequence with loudness diagnostics.
package pcm

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// ErrEmptyCapture is returned by Finalize when no samples were collected.
var ErrEmptyCapture = errors.New("pcm: empty capture, no samples collected")

// Soft diagnostic thresholds. Recordings below these are logged by the
// caller, never rejected: a legitimate quiet speaker can fall under both.
const (
	MinUsefulDuration = 300 * time.Millisecond
	QuietRMS          = 0.002
)

// Stats holds loudness diagnostics computed once over a finalized sequence.
type Stats struct {
	RMS      float32
	Peak     float32
	Duration time.Duration
}

// Quiet reports whether the recording falls under the soft diagnostic
// thresholds for duration or loudness.
func (s Stats) Quiet() bool {
	return s.Duration < MinUsefulDuration || s.RMS < QuietRMS
}

// Aggregator collects frames streamed out of the real-time capture domain.
// Append and HasAudio are safe to call concurrently with each other;
// Finalize must only be called after the producer has stopped.
type Aggregator struct {
	sampleRate int

	mu       sync.Mutex
	frames   [][]float32
	total    int
	hasAudio atomic.Bool
}

// NewAggregator creates an aggregator for samples at the given rate.
func NewAggregator(sampleRate int) *Aggregator {
	return &Aggregator{sampleRate: sampleRate}
}

// Append takes ownership of frame and adds it to the pending buffer.
// Empty frames are ignored. The hasAudio flag flips one-way to true on the
// first non-empty frame and stays set until the next Reset.
func (a *Aggregator) Append(frame []float32) {
	if len(frame) == 0 {
		return
	}
	a.mu.Lock()
	a.frames = append(a.frames, frame)
	a.total += len(frame)
	a.mu.Unlock()
	a.hasAudio.Store(true)
}

// HasAudio reports whether at least one frame has arrived since the last
// Reset.
func (a *Aggregator) HasAudio() bool {
	return a.hasAudio.Load()
}

// Len returns the number of samples currently buffered.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// Reset clears the buffer and the hasAudio flag for a new session.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	a.frames = nil
	a.total = 0
	a.mu.Unlock()
	a.hasAudio.Store(false)
}

// Finalize concatenates all pending frames into one contiguous sequence and
// computes its stats. The buffer is consumed: a second Finalize without new
// frames returns ErrEmptyCapture.
func (a *Aggregator) Finalize() ([]float32, Stats, error) {
	a.mu.Lock()
	frames, total := a.frames, a.total
	a.frames = nil
	a.total = 0
	a.mu.Unlock()

	if total == 0 {
		return nil, Stats{}, ErrEmptyCapture
	}

	samples := make([]float32, 0, total)
	for _, f := range frames {
		samples = append(samples, f...)
	}

	return samples, a.stats(samples), nil
}

func (a *Aggregator) stats(samples []float32) Stats {
	var sum float64
	var peak float32
	for _, s := range samples {
		sum += float64(s) * float64(s)
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	rms := float32(math.Sqrt(sum / float64(len(samples))))

	dur := time.Duration(float64(len(samples)) / float64(a.sampleRate) * float64(time.Second))
	return Stats{RMS: rms, Peak: peak, Duration: dur}
}
