// Package transcribe converts voice notes into text that flows into
// the agent exactly like typed input.
package transcribe

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Transcriber turns raw audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// OpenAITranscriber implements Transcriber with the OpenAI audio
// transcription endpoint.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAITranscriber creates a transcriber. An empty model selects
// whisper-1.
func NewOpenAITranscriber(apiKey string, model string) *OpenAITranscriber {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	return &OpenAITranscriber{
		client: &client,
		model:  model,
	}
}

// Transcribe implements Transcriber. The filename hints the audio
// container format to the API (e.g. "voice.ogg").
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("transcribe: empty audio payload")
	}
	if filename == "" {
		filename = "audio.ogg"
	}

	transcription, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(t.model),
		File:  openai.File(bytes.NewReader(audio), filename, "application/octet-stream"),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	return transcription.Text, nil
}
