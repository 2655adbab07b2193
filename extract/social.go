package extract

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// SocialExtractor handles social media content: a single post URL or a
// thread given as newline-separated post URLs. Thread posts are fetched
// in order and fused into one document.
type SocialExtractor struct {
	url *URLExtractor
}

// NewSocialExtractor creates a social extractor with the given fetch
// timeout.
func NewSocialExtractor(timeout time.Duration) *SocialExtractor {
	return &SocialExtractor{url: NewURLExtractor(timeout)}
}

// ContentTypes implements Extractor.
func (e *SocialExtractor) ContentTypes() []string {
	return []string{ContentTypeSocial}
}

// Extract fetches each post URL and fuses the extracted texts. A post
// that fails to fetch becomes a placeholder line so thread order is
// preserved.
func (e *SocialExtractor) Extract(ctx context.Context, content any, metadata map[string]any) (*Result, error) {
	text, err := contentString(content)
	if err != nil {
		return nil, err
	}

	urls := postURLs(text)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no post URLs in social content")
	}

	var fused []string
	var title, author string
	failed := 0

	for i, postURL := range urls {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		post, err := e.url.Extract(ctx, postURL, metadata)
		if err != nil {
			failed++
			fused = append(fused, fmt.Sprintf("[post %d unavailable: %s]", i+1, postURL))
			continue
		}
		if title == "" {
			title = post.Title
		}
		if author == "" {
			author = post.Author
		}
		fused = append(fused, post.Text)
	}

	if failed == len(urls) {
		return nil, fmt.Errorf("all %d posts failed to fetch", len(urls))
	}

	if title == "" {
		title = fmt.Sprintf("Thread (%d posts)", len(urls))
	}

	return &Result{
		Title:  title,
		Text:   strings.Join(fused, "\n\n---\n\n"),
		Author: author,
		Source: urls[0],
		Metadata: map[string]any{
			"platform":     platformFor(urls[0]),
			"post_count":   len(urls),
			"failed_posts": failed,
			"is_thread":    len(urls) > 1,
		},
	}, nil
}

// postURLs returns the URL lines of a thread text, in order.
func postURLs(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			urls = append(urls, line)
		}
	}
	return urls
}

// platformFor guesses the platform from a post URL's domain.
func platformFor(postURL string) string {
	domain := strings.ToLower(Domain(postURL))
	switch {
	case strings.Contains(domain, "twitter.com"), strings.Contains(domain, "x.com"):
		return "twitter"
	case strings.Contains(domain, "bsky.app"):
		return "bluesky"
	case strings.Contains(domain, "mastodon"), strings.Contains(domain, "mstdn"):
		return "mastodon"
	case strings.Contains(domain, "linkedin.com"):
		return "linkedin"
	case strings.Contains(domain, "reddit.com"):
		return "reddit"
	default:
		return "web"
	}
}
