package hotkey

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebounceWindow(t *testing.T) {
	var toggles atomic.Int32
	d := NewDebouncer(100*time.Millisecond, func() { toggles.Add(1) }, nil)

	if !d.OnTrigger() {
		t.Fatal("first trigger must be accepted")
	}
	if d.OnTrigger() {
		t.Fatal("immediate second trigger must be dropped")
	}
	if got := toggles.Load(); got != 1 {
		t.Fatalf("toggles = %d, want 1", got)
	}

	time.Sleep(120 * time.Millisecond)
	if !d.OnTrigger() {
		t.Fatal("trigger after window must be accepted")
	}
	if got := toggles.Load(); got != 2 {
		t.Fatalf("toggles = %d, want 2", got)
	}
}

func TestDebounceMeasuresFromAccepted(t *testing.T) {
	var toggles atomic.Int32
	d := NewDebouncer(100*time.Millisecond, func() { toggles.Add(1) }, nil)

	d.OnTrigger()
	// A burst of rejected triggers must not extend the window.
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		d.OnTrigger()
	}
	// 90ms of rejected noise, then 20ms more: past the window from the
	// last *accepted* trigger.
	time.Sleep(20 * time.Millisecond)
	if !d.OnTrigger() {
		t.Fatal("trigger 110ms after last accepted must be accepted")
	}
	if got := toggles.Load(); got != 2 {
		t.Fatalf("toggles = %d, want 2", got)
	}
}

func TestWarmFiresOnce(t *testing.T) {
	var warms atomic.Int32
	warmed := make(chan struct{})
	d := NewDebouncer(time.Millisecond, func() {}, func() {
		if warms.Add(1) == 1 {
			close(warmed)
		}
	})

	for i := 0; i < 5; i++ {
		d.OnTrigger()
		time.Sleep(2 * time.Millisecond)
	}

	select {
	case <-warmed:
	case <-time.After(time.Second):
		t.Fatal("warm-up never fired")
	}
	// Give any extra warm goroutines a chance to run before counting.
	time.Sleep(10 * time.Millisecond)
	if got := warms.Load(); got != 1 {
		t.Fatalf("warm-up fired %d times, want 1", got)
	}
}

func TestZeroWindowDefaults(t *testing.T) {
	d := NewDebouncer(0, func() {}, nil)
	if d.window != DebounceWindow {
		t.Fatalf("window = %v, want %v", d.window, DebounceWindow)
	}
}
