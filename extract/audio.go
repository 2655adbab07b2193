package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoTranscriber is returned when audio content arrives but no
// transcription backend is configured.
var ErrNoTranscriber = errors.New("no transcriber configured")

// Transcriber converts audio bytes to text. Implementations wrap a
// speech-to-text backend (local whisper daemon, cloud API).
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// AudioExtractor extracts text from audio content via a Transcriber.
type AudioExtractor struct {
	transcriber Transcriber
}

// NewAudioExtractor creates an audio extractor. The transcriber may be
// nil, in which case extraction fails with ErrNoTranscriber.
func NewAudioExtractor(t Transcriber) *AudioExtractor {
	return &AudioExtractor{transcriber: t}
}

// ContentTypes implements Extractor.
func (e *AudioExtractor) ContentTypes() []string {
	return []string{ContentTypeAudio}
}

// Extract transcribes the audio bytes and returns the transcript.
func (e *AudioExtractor) Extract(ctx context.Context, content any, metadata map[string]any) (*Result, error) {
	if e.transcriber == nil {
		return nil, ErrNoTranscriber
	}

	data, err := contentBytes(content)
	if err != nil {
		return nil, err
	}

	mimeType, _ := metadata["mime_type"].(string)
	transcript, err := e.transcriber.Transcribe(ctx, data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("transcribe audio: %w", err)
	}
	transcript = strings.TrimSpace(transcript)

	title, _ := metadata["filename"].(string)
	if title == "" {
		title = "Audio transcript"
	}

	resultMeta := map[string]any{
		"word_count": len(strings.Fields(transcript)),
	}
	if d, ok := metadata["duration"]; ok {
		resultMeta["duration"] = d
	}

	return &Result{
		Title:    title,
		Text:     transcript,
		Metadata: resultMeta,
	}, nil
}
