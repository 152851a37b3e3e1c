package hotkey

import (
	"errors"
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// ErrListening is returned when starting a listener that is already running.
var ErrListening = errors.New("hotkey: listener already running")

// Listener registers a global key chord and feeds every press into a
// debouncer. Only one listener can run per process: gohook owns a single
// OS-level event hook.
type Listener struct {
	chord     []string
	debouncer *Debouncer

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewListener creates a listener for the given chord, e.g.
// []string{"ctrl", "alt", "r"}.
func NewListener(chord []string, d *Debouncer) *Listener {
	return &Listener{chord: chord, debouncer: d}
}

// Start installs the global hook and begins dispatching key-down events for
// the chord. It returns once the hook is installed; dispatch runs in a
// background goroutine until Stop.
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrListening
	}

	hook.Register(hook.KeyDown, l.chord, func(e hook.Event) {
		l.debouncer.OnTrigger()
	})

	events := hook.Start()
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		<-hook.Process(events)
	}()

	l.running = true
	slog.Info("hotkey listener started", "chord", l.chord)
	return nil
}

// Stop removes the hook and waits for the dispatch goroutine to exit.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running {
		return
	}
	hook.End()
	<-l.done
	l.running = false
	slog.Info("hotkey listener stopped")
}
