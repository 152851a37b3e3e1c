// Package session orchestrates the recording lifecycle: capture start/stop
// gating, sample aggregation, WAV encoding and the hand-off to the external
// transcription and paste collaborators.
package session

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"go.vtype.dev/vtype/audiocapture"
	"go.vtype.dev/vtype/pcm"
	"go.vtype.dev/vtype/permission"
	"go.vtype.dev/vtype/wav"
)

// Status is the controller state.
type Status int32

const (
	StatusIdle Status = iota
	StatusRecording
	StatusProcessing
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRecording:
		return "recording"
	case StatusProcessing:
		return "processing"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

const (
	// DefaultMinDuration is the minimum elapsed time before a stop request
	// is honored. Together with the hasAudio requirement it keeps a
	// double-tap from pushing a near-empty recording into the encoder.
	DefaultMinDuration = 350 * time.Millisecond

	// DefaultStopGrace is the soft-drain delay between the stop request and
	// finalization, letting already-scheduled capture ticks deliver their
	// last frames. There is no hard join: the minimum-duration guard already
	// ensured enough data arrived.
	DefaultStopGrace = 120 * time.Millisecond

	// DefaultTranscribeTimeout bounds the external transcription call.
	DefaultTranscribeTimeout = 60 * time.Second
)

// Transcriber is the external speech-to-text boundary. The payload is the
// base64-encoded WAV container; an empty result means nothing recognized.
type Transcriber interface {
	Transcribe(ctx context.Context, wavBase64 string) (string, error)
}

// Paster is the external text delivery boundary.
type Paster interface {
	Paste(text string) error
}

// Diagnostics is the free-text telemetry boundary.
type Diagnostics interface {
	Log(message string)
}

// TranscriptCache is an optional lookaside store keyed by encoded WAV bytes.
type TranscriptCache interface {
	Lookup(wavBytes []byte) (string, bool)
	Store(wavBytes []byte, text string)
}

// Config wires the controller's collaborators.
type Config struct {
	Pipeline    *audiocapture.Pipeline
	Transcriber Transcriber
	Paster      Paster
	Diagnostics Diagnostics
	Probe       *permission.Probe // optional
	Cache       TranscriptCache   // optional

	MinDuration       time.Duration
	StopGrace         time.Duration
	TranscribeTimeout time.Duration

	// TrimSilence cuts leading and trailing silence before encoding.
	TrimSilence bool

	// OnStatus, when set, is invoked after every status transition. It runs
	// with the controller lock held and must not call back into the
	// controller.
	OnStatus func(Status)
}

// recording is one in-flight session. Exactly one exists at a time, owned by
// the controller.
type recording struct {
	id        string
	startedAt time.Time
	minStopAt time.Time
	drained   chan struct{}
}

// Controller is the state machine driving record, finalize, encode,
// transcribe and paste. All status mutations happen under one mutex; the
// real-time side only ever appends frames and flips the aggregator's
// hasAudio flag.
type Controller struct {
	cfg Config
	agg *pcm.Aggregator

	mu      sync.Mutex
	status  Status
	current *recording
	lastErr error
}

// New creates a controller. Pipeline, Transcriber, Paster and Diagnostics
// are required.
func New(cfg Config) *Controller {
	if cfg.MinDuration == 0 {
		cfg.MinDuration = DefaultMinDuration
	}
	if cfg.StopGrace == 0 {
		cfg.StopGrace = DefaultStopGrace
	}
	if cfg.TranscribeTimeout == 0 {
		cfg.TranscribeTimeout = DefaultTranscribeTimeout
	}
	return &Controller{
		cfg: cfg,
		agg: pcm.NewAggregator(cfg.Pipeline.SampleRate()),
	}
}

// Toggle processes one accepted trigger. From Idle or Error it attempts a
// fresh capture start; from Recording it requests a guarded stop; during
// Processing it is ignored.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.status {
	case StatusIdle, StatusError:
		c.startLocked()
	case StatusRecording:
		c.stopLocked()
	case StatusProcessing:
		slog.Debug("toggle ignored while processing")
	}
}

// Status returns the current controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the error that moved the controller into Error, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Shutdown releases any held capture resources. Call once at process exit.
func (c *Controller) Shutdown() {
	c.cfg.Pipeline.Teardown()
}

func (c *Controller) startLocked() {
	frames, err := c.cfg.Pipeline.Acquire()
	if err != nil {
		c.lastErr = err
		c.setStatusLocked(StatusError)
		if c.cfg.Probe != nil {
			c.cfg.Probe.ReportCaptureFailure(err)
		}
		c.cfg.Diagnostics.Log("capture start failed: " + err.Error())
		slog.Error("start capture", "error", err)
		return
	}
	if c.cfg.Probe != nil {
		c.cfg.Probe.ReportCaptureSuccess()
	}

	c.agg.Reset()
	now := time.Now()
	rec := &recording{
		id:        uuid.NewString(),
		startedAt: now,
		minStopAt: now.Add(c.cfg.MinDuration),
		drained:   make(chan struct{}),
	}
	go c.drain(frames, rec)

	c.current = rec
	c.lastErr = nil
	c.setStatusLocked(StatusRecording)
	slog.Info("recording started", "session", rec.id)
}

// drain consumes frames from the capture channel into the aggregator. It
// exits when the pipeline teardown closes the channel.
func (c *Controller) drain(frames <-chan []float32, rec *recording) {
	defer close(rec.drained)
	for frame := range frames {
		c.agg.Append(frame)
	}
}

func (c *Controller) stopLocked() {
	rec := c.current
	elapsed := time.Since(rec.startedAt)

	if time.Now().Before(rec.minStopAt) || !c.agg.HasAudio() {
		slog.Debug("stop rejected",
			"session", rec.id,
			"elapsed", elapsed,
			"has_audio", c.agg.HasAudio())
		return
	}

	c.setStatusLocked(StatusProcessing)
	slog.Info("recording stopping", "session", rec.id, "elapsed", elapsed)
	go c.process(rec)
}

// process runs the stop-side pipeline: soft drain, finalize, encode,
// transcribe, paste. Resource teardown happens on every exit path and
// completes before the status leaves Processing, so the next session can
// never see a stale device handle.
func (c *Controller) process(rec *recording) {
	text, err := c.finishRecording(rec)

	c.cfg.Pipeline.Teardown()

	c.mu.Lock()
	c.current = nil
	if err != nil {
		c.lastErr = err
		c.setStatusLocked(StatusError)
	} else {
		c.setStatusLocked(StatusIdle)
	}
	c.mu.Unlock()

	if err != nil {
		slog.Error("session failed", "session", rec.id, "error", err)
	} else if text != "" {
		slog.Info("session complete", "session", rec.id, "chars", len(text))
	}
}

func (c *Controller) finishRecording(rec *recording) (string, error) {
	// Soft drain: let scheduled capture ticks land before cutting the stream.
	time.Sleep(c.cfg.StopGrace)
	c.cfg.Pipeline.Teardown()
	<-rec.drained

	samples, stats, err := c.agg.Finalize()
	if err != nil {
		c.cfg.Diagnostics.Log("empty capture: no samples delivered")
		return "", err
	}

	if stats.Quiet() {
		// Soft diagnostics only: rejecting would discard legitimate quiet
		// speech.
		slog.Warn("quiet recording",
			"session", rec.id,
			"duration", stats.Duration,
			"rms", stats.RMS,
			"peak", stats.Peak)
	}
	if dropped := c.cfg.Pipeline.Dropped(); dropped > 0 {
		slog.Warn("frames dropped during capture", "session", rec.id, "dropped", dropped)
	}

	if c.cfg.TrimSilence {
		before := len(samples)
		samples = pcm.TrimSilence(samples, c.cfg.Pipeline.SampleRate())
		if len(samples) < before {
			slog.Debug("silence trimmed",
				"session", rec.id,
				"before", before,
				"after", len(samples))
		}
	}

	wavBytes := wav.Encode(samples, c.cfg.Pipeline.SampleRate())

	if c.cfg.Cache != nil {
		if text, ok := c.cfg.Cache.Lookup(wavBytes); ok {
			slog.Info("transcript cache hit", "session", rec.id)
			return c.deliver(text)
		}
	}

	payload := base64.StdEncoding.EncodeToString(wavBytes)

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.TranscribeTimeout)
	defer cancel()

	text, err := c.cfg.Transcriber.Transcribe(ctx, payload)
	if err != nil {
		c.cfg.Diagnostics.Log("transcription failed: " + err.Error())
		return "", &TranscriptionError{Err: err}
	}

	if c.cfg.Cache != nil && text != "" {
		c.cfg.Cache.Store(wavBytes, text)
	}

	return c.deliver(text)
}

// deliver forwards non-empty text to the paste boundary. An empty result is
// "nothing recognized": a non-error no-op.
func (c *Controller) deliver(text string) (string, error) {
	if text == "" {
		slog.Info("nothing recognized")
		return "", nil
	}
	if err := c.cfg.Paster.Paste(text); err != nil {
		c.cfg.Diagnostics.Log("paste failed: " + err.Error())
		return "", err
	}
	return text, nil
}

// setStatusLocked must be called with c.mu held.
func (c *Controller) setStatusLocked(s Status) {
	c.status = s
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(s)
	}
}
