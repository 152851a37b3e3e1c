// Package permission tracks an advisory view of microphone permission.
//
// The state never gates a capture attempt: every session still opens the
// device itself and reports its own failure. The probe only exists so the
// process can log and surface a likely-denied microphone early.
package permission

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"go.vtype.dev/vtype/audiocapture"
)

// State is the advisory microphone permission state.
type State int32

const (
	Unknown State = iota
	Granted
	Denied
)

func (s State) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// Probe holds the process-wide advisory state and knows how to refresh it.
type Probe struct {
	device     audiocapture.Device
	sampleRate int
	state      atomic.Int32
}

// NewProbe creates a probe that tests permission against the given device.
func NewProbe(device audiocapture.Device, sampleRate int) *Probe {
	if sampleRate == 0 {
		sampleRate = audiocapture.TargetSampleRate
	}
	return &Probe{device: device, sampleRate: sampleRate}
}

// State returns the current advisory state.
func (p *Probe) State() State {
	return State(p.state.Load())
}

// Run performs a best-effort permission check by opening and immediately
// releasing a capture stream. There is no platform permission query behind
// PortAudio, so open-and-release is the only signal available.
func (p *Probe) Run() State {
	stream, err := p.device.Open(p.sampleRate, 256, func([]float32) {})
	if err != nil {
		p.state.Store(int32(Denied))
		slog.Warn("microphone probe failed", "error", err)
		return Denied
	}
	_ = stream.Close()

	p.state.Store(int32(Granted))
	slog.Debug("microphone probe ok", "rate", p.sampleRate)
	return Granted
}

// ReportCaptureFailure updates the advisory state after a capture attempt
// failed. Only permission-shaped failures flip the state; a rate mismatch
// says nothing about permission.
func (p *Probe) ReportCaptureFailure(err error) {
	var perm *audiocapture.PermissionError
	if errors.As(err, &perm) {
		p.state.Store(int32(Denied))
	}
}

// ReportCaptureSuccess marks the microphone as granted after a capture
// stream opened successfully.
func (p *Probe) ReportCaptureSuccess() {
	p.state.Store(int32(Granted))
}
