package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts plain text from PDF documents.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ContentTypes implements Extractor.
func (e *PDFExtractor) ContentTypes() []string {
	return []string{ContentTypePDF}
}

// Extract reads PDF bytes and concatenates the text of every page.
// Pages that fail to parse are skipped; an image-only PDF yields a
// placeholder text rather than an error.
func (e *PDFExtractor) Extract(ctx context.Context, content any, metadata map[string]any) (*Result, error) {
	data, err := contentBytes(content)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(newBytesReaderAt(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	var text strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages fail to parse; keep going
			continue
		}
		if pageText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n---\n\n")
		}
		text.WriteString(pageText)
	}

	extracted := text.String()
	if extracted == "" {
		extracted = fmt.Sprintf("[PDF document with %d pages - no text content extracted]", numPages)
	}

	title, _ := metadata["filename"].(string)
	if title == "" {
		title = fmt.Sprintf("PDF document (%d pages)", numPages)
	}

	return &Result{
		Title: title,
		Text:  extracted,
		Metadata: map[string]any{
			"page_count": numPages,
		},
	}, nil
}

// bytesReaderAt implements io.ReaderAt for a byte slice; the pdf
// library wants random access, not a stream.
type bytesReaderAt struct {
	data []byte
}

func newBytesReaderAt(data []byte) *bytesReaderAt {
	return &bytesReaderAt{data: data}
}

func (r *bytesReaderAt) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset")
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n = copy(p, r.data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return n, err
}
