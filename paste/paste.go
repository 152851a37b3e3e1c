// Package paste delivers recognized text into the focused application by
// swapping it through the system clipboard and synthesizing a paste chord.
package paste

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

const (
	// settleDelay gives the window manager time to propagate the clipboard
	// before the chord fires.
	settleDelay = 80 * time.Millisecond
	// retryDelay spaces the single retry after a failed chord.
	retryDelay = 220 * time.Millisecond
)

// Paster writes text to the clipboard, sends the platform paste chord, and
// restores the previous clipboard contents.
type Paster struct{}

// New creates a Paster.
func New() *Paster {
	return &Paster{}
}

// Paste delivers text to the focused application. The original clipboard
// contents are restored afterwards on a best-effort basis.
func (p *Paster) Paste(text string) error {
	orig, _ := clipboard.ReadAll()

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	time.Sleep(settleDelay)

	if err := sendChordWithRetry(); err != nil {
		return err
	}

	time.Sleep(retryDelay)
	if err := clipboard.WriteAll(orig); err != nil {
		slog.Debug("restore clipboard", "error", err)
	}
	return nil
}

// sendChordWithRetry fires the paste chord, retrying once after a short
// delay; a focus change mid-chord occasionally swallows the first attempt.
func sendChordWithRetry() error {
	first := sendChord()
	if first == nil {
		return nil
	}
	time.Sleep(retryDelay)
	if second := sendChord(); second != nil {
		return fmt.Errorf("paste failed: %v | %v", first, second)
	}
	return nil
}

func sendChord() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return fmt.Errorf("init key synthesis: %w", err)
	}

	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}

	if err := kb.Launching(); err != nil {
		return fmt.Errorf("send paste chord: %w", err)
	}
	return nil
}
