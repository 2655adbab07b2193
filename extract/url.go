package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// URLExtractor fetches a web page and produces its readable article
// content as markdown.
type URLExtractor struct {
	fetcher   *Fetcher
	converter *Converter
}

// NewURLExtractor creates a URL extractor with the given fetch timeout.
func NewURLExtractor(timeout time.Duration) *URLExtractor {
	return &URLExtractor{
		fetcher:   NewFetcher(timeout),
		converter: NewConverter(),
	}
}

// ContentTypes implements Extractor.
func (e *URLExtractor) ContentTypes() []string {
	return []string{ContentTypeURL}
}

// Extract fetches the URL given as content and extracts the article.
// Readability isolates the main content; the result text is markdown.
func (e *URLExtractor) Extract(ctx context.Context, content any, metadata map[string]any) (*Result, error) {
	rawURL, err := contentString(content)
	if err != nil {
		return nil, err
	}
	rawURL = strings.TrimSpace(rawURL)

	fetched, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	pageURL, _ := url.Parse(fetched.FinalURL)
	htmlContent := string(fetched.Body)

	result := &Result{
		Source: rawURL,
		Metadata: map[string]any{
			"domain":    Domain(rawURL),
			"final_url": fetched.FinalURL,
		},
	}

	article, err := readability.FromReader(strings.NewReader(htmlContent), pageURL)
	if err != nil {
		// Readability gave up; convert the whole page instead.
		markdown, convErr := e.converter.Convert(htmlContent)
		if convErr != nil {
			return nil, fmt.Errorf("extract article from %s: %w", rawURL, err)
		}
		result.Title = firstNonEmpty(HTMLTitle(htmlContent), markdownTitle(markdown))
		result.Text = markdown
		return result, nil
	}

	markdown, err := e.converter.Convert(article.Content)
	if err != nil || strings.TrimSpace(markdown) == "" {
		markdown = strings.TrimSpace(article.TextContent)
	}

	result.Title = firstNonEmpty(article.Title, HTMLTitle(htmlContent))
	result.Text = markdown
	result.Summary = strings.TrimSpace(article.Excerpt)
	result.Author = strings.TrimSpace(article.Byline)
	if article.PublishedTime != nil {
		result.PublishedDate = article.PublishedTime.UTC().Format(time.RFC3339)
	}
	if article.SiteName != "" {
		result.Metadata["site_name"] = article.SiteName
	}
	result.Metadata["word_count"] = len(strings.Fields(markdown))

	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
