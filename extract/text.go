package extract

import (
	"context"
	"fmt"
	"strings"
)

// TextExtractor normalizes plain text content. It also serves the
// query content type, where the "extraction" is the question itself.
type TextExtractor struct{}

// NewTextExtractor creates a text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ContentTypes implements Extractor.
func (e *TextExtractor) ContentTypes() []string {
	return []string{ContentTypeText, ContentTypeQuery}
}

// Extract trims the text and derives a title from the message subject
// when present, else from the first line.
func (e *TextExtractor) Extract(ctx context.Context, content any, metadata map[string]any) (*Result, error) {
	text, err := contentString(content)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text content is empty")
	}

	title, _ := metadata["subject"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		title = firstLine(text, 80)
	}

	return &Result{
		Title: title,
		Text:  text,
		Metadata: map[string]any{
			"word_count": len(strings.Fields(text)),
		},
	}, nil
}

// firstLine returns the first line of text, truncated to max runes.
func firstLine(text string, max int) string {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)

	runes := []rune(line)
	if len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return line
}
