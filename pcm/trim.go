package pcm

import (
	"math"
	"time"
)

// Silence trimming parameters. The window is the RMS analysis granularity;
// the padding keeps a little context around the detected speech so plosives
// and trailing sibilants survive the cut.
const (
	trimWindow  = 10 * time.Millisecond
	trimPadding = 100 * time.Millisecond

	// TrimThreshold is the per-window RMS below which a window counts as
	// silence. It sits above QuietRMS so a recording that is quiet overall
	// is never trimmed down further.
	TrimThreshold = 0.01
)

// TrimSilence cuts leading and trailing silence from a finalized sample
// sequence, keeping a padding margin on both sides. The input is returned
// unchanged when no window exceeds the threshold or when trimming would not
// remove anything.
func TrimSilence(samples []float32, sampleRate int) []float32 {
	window := int(float64(sampleRate) * trimWindow.Seconds())
	if window <= 0 || len(samples) < window {
		return samples
	}

	first, last := -1, -1
	for start := 0; start+window <= len(samples); start += window {
		if windowRMS(samples[start:start+window]) < TrimThreshold {
			continue
		}
		if first < 0 {
			first = start
		}
		last = start + window
	}
	if first < 0 {
		return samples
	}

	pad := int(float64(sampleRate) * trimPadding.Seconds())
	lo := first - pad
	if lo < 0 {
		lo = 0
	}
	hi := last + pad
	if hi > len(samples) {
		hi = len(samples)
	}
	return samples[lo:hi]
}

func windowRMS(samples []float32) float32 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}
