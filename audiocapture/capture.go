// Package audiocapture acquires a microphone stream and moves raw sample
// frames out of the real-time audio domain through a bounded channel.
package audiocapture

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// TargetSampleRate is the only sample rate the pipeline accepts. Whisper-style
// transcription engines expect 16 kHz mono; no resampling is performed.
const TargetSampleRate = 16000

// ErrRunning is returned when acquiring while a stream is already held.
var ErrRunning = errors.New("audiocapture: capture already running")

// PermissionError wraps a device-open failure. The microphone being denied
// and the microphone being absent are indistinguishable at this layer.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("audiocapture: microphone unavailable: %v", e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// RateMismatchError reports a device that negotiated a sample rate other
// than the requested one. There is no resampling fallback.
type RateMismatchError struct {
	Negotiated int
	Want       int
}

func (e *RateMismatchError) Error() string {
	return fmt.Sprintf("audiocapture: device negotiated %d Hz, need %d Hz", e.Negotiated, e.Want)
}

// Device opens microphone streams. The handler runs in the real-time audio
// domain on every hardware buffer tick and must not block.
type Device interface {
	Open(sampleRate, frameSize int, handler func(samples []float32)) (Stream, error)
}

// Stream is a live microphone stream.
type Stream interface {
	// SampleRate returns the negotiated rate, which may differ from the
	// requested one.
	SampleRate() int
	Start() error
	// Stop halts delivery. It must not return while a handler invocation is
	// still in flight.
	Stop() error
	Close() error
}

// Config holds pipeline configuration.
type Config struct {
	Device     Device
	SampleRate int // default TargetSampleRate
	FrameSize  int // samples per hardware buffer tick, default 1024
	QueueDepth int // bounded frame queue capacity, default 32
}

// Pipeline owns one microphone stream at a time and fans its frames into a
// bounded channel. The real-time side copies each frame once and never
// blocks: when the queue is full the frame is dropped and counted.
type Pipeline struct {
	cfg Config

	mu     sync.Mutex
	stream Stream
	frames chan []float32

	dropped atomic.Uint64
}

// New creates a pipeline using the given device.
func New(cfg Config) *Pipeline {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = TargetSampleRate
	}
	if cfg.FrameSize == 0 {
		cfg.FrameSize = 1024
	}
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = 32
	}
	return &Pipeline{cfg: cfg}
}

// Acquire releases any previously held stream, opens a fresh one, verifies
// the negotiated sample rate and starts delivery. It returns the channel
// frames arrive on; the channel is closed by Teardown.
func (p *Pipeline) Acquire() (<-chan []float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Never reuse a stale handle across sessions.
	p.teardownLocked()

	// The drop count is per stream, not per process.
	p.dropped.Store(0)

	frames := make(chan []float32, p.cfg.QueueDepth)
	handler := func(in []float32) {
		if len(in) == 0 {
			return
		}
		// One copy to move the frame out of the real-time domain; the
		// original buffer is reused by the driver after this returns.
		frame := make([]float32, len(in))
		copy(frame, in)
		select {
		case frames <- frame:
		default:
			p.dropped.Add(1)
		}
	}

	stream, err := p.cfg.Device.Open(p.cfg.SampleRate, p.cfg.FrameSize, handler)
	if err != nil {
		return nil, err
	}

	if got := stream.SampleRate(); got != p.cfg.SampleRate {
		_ = stream.Close()
		return nil, &RateMismatchError{Negotiated: got, Want: p.cfg.SampleRate}
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, &PermissionError{Err: err}
	}

	p.stream = stream
	p.frames = frames
	return frames, nil
}

// Teardown stops and releases the held stream and closes the frame channel.
// Safe to call multiple times and with no stream held.
func (p *Pipeline) Teardown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked()
}

func (p *Pipeline) teardownLocked() {
	if p.stream != nil {
		// Stop blocks until in-flight handler calls return, so closing the
		// channel afterwards cannot race a send.
		_ = p.stream.Stop()
		_ = p.stream.Close()
		p.stream = nil
	}
	if p.frames != nil {
		close(p.frames)
		p.frames = nil
	}
}

// Active reports whether a stream is currently held.
func (p *Pipeline) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream != nil
}

// Dropped returns the number of frames discarded because the queue was full,
// counted since the last Acquire.
func (p *Pipeline) Dropped() uint64 {
	return p.dropped.Load()
}

// SampleRate returns the configured target rate.
func (p *Pipeline) SampleRate() int {
	return p.cfg.SampleRate
}
