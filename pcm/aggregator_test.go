package pcm

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestAppendSetsHasAudio(t *testing.T) {
	a := NewAggregator(16000)

	if a.HasAudio() {
		t.Fatal("hasAudio true before any frame")
	}

	a.Append(nil)
	a.Append([]float32{})
	if a.HasAudio() {
		t.Fatal("empty frames must not set hasAudio")
	}

	a.Append([]float32{0.1, 0.2})
	if !a.HasAudio() {
		t.Fatal("hasAudio false after non-empty frame")
	}

	a.Reset()
	if a.HasAudio() || a.Len() != 0 {
		t.Fatal("Reset did not clear state")
	}
}

func TestFinalizeConcatenates(t *testing.T) {
	a := NewAggregator(16000)
	a.Append([]float32{1, 2})
	a.Append([]float32{3})
	a.Append([]float32{4, 5, 6})

	samples, _, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	want := []float32{1, 2, 3, 4, 5, 6}
	if len(samples) != len(want) {
		t.Fatalf("len = %d, want %d", len(samples), len(want))
	}
	for i, w := range want {
		if samples[i] != w {
			t.Errorf("samples[%d] = %v, want %v", i, samples[i], w)
		}
	}
}

func TestFinalizeEmpty(t *testing.T) {
	a := NewAggregator(16000)
	if _, _, err := a.Finalize(); !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("err = %v, want ErrEmptyCapture", err)
	}
}

func TestFinalizeConsumesBuffer(t *testing.T) {
	a := NewAggregator(16000)
	a.Append([]float32{0.5})

	if _, _, err := a.Finalize(); err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if _, _, err := a.Finalize(); !errors.Is(err, ErrEmptyCapture) {
		t.Fatalf("second Finalize err = %v, want ErrEmptyCapture", err)
	}
}

func TestStats(t *testing.T) {
	a := NewAggregator(16000)
	// 16000 samples of constant 0.5: rms = 0.5, peak = 0.5, duration = 1s.
	frame := make([]float32, 16000)
	for i := range frame {
		frame[i] = 0.5
	}
	frame[100] = -0.9 // peak from the negative side
	a.Append(frame)

	_, stats, err := a.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if math.Abs(float64(stats.RMS)-0.5) > 0.01 {
		t.Errorf("RMS = %v, want ~0.5", stats.RMS)
	}
	if stats.Peak != 0.9 {
		t.Errorf("Peak = %v, want 0.9", stats.Peak)
	}
	if stats.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", stats.Duration)
	}
}

func TestStatsQuiet(t *testing.T) {
	tests := []struct {
		name  string
		stats Stats
		want  bool
	}{
		{"normal speech", Stats{RMS: 0.05, Duration: time.Second}, false},
		{"too short", Stats{RMS: 0.05, Duration: 100 * time.Millisecond}, true},
		{"too quiet", Stats{RMS: 0.001, Duration: time.Second}, true},
		{"at thresholds", Stats{RMS: QuietRMS, Duration: MinUsefulDuration}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stats.Quiet(); got != tt.want {
				t.Errorf("Quiet() = %v, want %v", got, tt.want)
			}
		})
	}
}
