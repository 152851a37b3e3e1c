// Package transcribe provides speech-to-text engines behind a single
// boundary interface.
//
// The payload contract is a base64-encoded WAV container (mono 16-bit PCM at
// 16 kHz). An empty result string means nothing was recognized; it is not an
// error.
package transcribe

import "context"

// Engine converts a recorded WAV payload into text.
type Engine interface {
	// Name returns the engine identifier.
	Name() string

	// Warm starts any expensive background initialization. Fire-and-forget:
	// it never blocks on readiness and reports no error.
	Warm()

	// Transcribe decodes the base64 WAV payload and returns the recognized
	// text. An empty string with a nil error means no speech was recognized.
	Transcribe(ctx context.Context, wavBase64 string) (string, error)

	// Close releases engine resources.
	Close() error
}
