// Package hotkey turns global key chords into debounced toggle requests.
package hotkey

import (
	"log/slog"
	"sync"
	"time"
)

// DebounceWindow is the minimum spacing between accepted triggers. A key
// repeat or double-tap inside the window is dropped with no side effect.
const DebounceWindow = 250 * time.Millisecond

// Debouncer suppresses duplicate trigger signals and forwards accepted ones.
// The very first accepted trigger additionally fires a one-time warm-up
// call, so the transcription engine can spin up while the user is still
// speaking.
type Debouncer struct {
	window time.Duration
	toggle func()
	warm   func()

	mu   sync.Mutex
	last time.Time

	warmOnce sync.Once
}

// NewDebouncer creates a debouncer forwarding accepted triggers to toggle.
// warm may be nil. A zero window defaults to DebounceWindow.
func NewDebouncer(window time.Duration, toggle, warm func()) *Debouncer {
	if window == 0 {
		window = DebounceWindow
	}
	return &Debouncer{window: window, toggle: toggle, warm: warm}
}

// OnTrigger processes one raw trigger signal and reports whether it was
// accepted. time.Now carries a monotonic clock reading, so wall-clock jumps
// cannot shrink or stretch the window.
func (d *Debouncer) OnTrigger() bool {
	now := time.Now()

	d.mu.Lock()
	if !d.last.IsZero() && now.Sub(d.last) < d.window {
		d.mu.Unlock()
		slog.Debug("trigger debounced", "since_last", now.Sub(d.last))
		return false
	}
	d.last = now
	d.mu.Unlock()

	if d.warm != nil {
		d.warmOnce.Do(func() { go d.warm() })
	}
	d.toggle()
	return true
}
