package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// WhisperAPI transcribes audio through OpenAI's transcription endpoint.
type WhisperAPI struct {
	client openai.Client
	model  openai.AudioModel
}

// NewWhisperAPI creates a Whisper API engine. An empty model defaults to
// whisper-1.
func NewWhisperAPI(apiKey, model string) *WhisperAPI {
	m := openai.AudioModel(model)
	if model == "" {
		m = openai.AudioModelWhisper1
	}
	return &WhisperAPI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}
}

func (w *WhisperAPI) Name() string { return "whisper-api" }

// Warm is a no-op: there is nothing to preload for a remote API.
func (w *WhisperAPI) Warm() {}

// Transcribe uploads the WAV payload and returns the recognized text.
func (w *WhisperAPI) Transcribe(ctx context.Context, wavBase64 string) (string, error) {
	wavBytes, err := base64.StdEncoding.DecodeString(wavBase64)
	if err != nil {
		return "", fmt.Errorf("decode payload: %w", err)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: w.model,
		File:  openai.File(bytes.NewReader(wavBytes), "audio.wav", "audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

func (w *WhisperAPI) Close() error { return nil }
