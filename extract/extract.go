package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Content types handled by extractors.
const (
	ContentTypeURL    = "url"
	ContentTypePDF    = "pdf"
	ContentTypeText   = "text"
	ContentTypeAudio  = "audio"
	ContentTypeSocial = "social"
	ContentTypeQuery  = "query"
)

// ErrUnsupportedContent is returned when an extractor is handed a
// content value of a type it cannot read.
var ErrUnsupportedContent = errors.New("unsupported content value")

// Result is the normalized output of content extraction.
type Result struct {
	Title         string         `json:"title"`
	Text          string         `json:"text"`
	Summary       string         `json:"summary,omitempty"`
	Author        string         `json:"author,omitempty"`
	PublishedDate string         `json:"published_date,omitempty"`
	Source        string         `json:"source,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Extractor turns raw content of one or more content types into a
// Result. Content may be a string, []byte, or io.Reader as appropriate
// to the type.
type Extractor interface {
	// ContentTypes lists the content types this extractor handles.
	ContentTypes() []string

	// Extract reads the content and produces a normalized result.
	Extract(ctx context.Context, content any, metadata map[string]any) (*Result, error)
}

// contentString coerces a content value into a string.
func contentString(content any) (string, error) {
	switch v := content.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return "", fmt.Errorf("read content: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedContent, content)
	}
}

// contentBytes coerces a content value into a byte slice.
func contentBytes(content any) ([]byte, error) {
	switch v := content.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, fmt.Errorf("read content: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedContent, content)
	}
}
