package gateway

import (
	"regexp"
	"strings"
)

// Target agent ids.
const (
	TargetContentMind = "contentmind"
	TargetResearcher  = "researcher"
)

// Content types emitted by classification.
const (
	ContentTypePDF    = "pdf"
	ContentTypeAudio  = "audio"
	ContentTypeURL    = "url"
	ContentTypeSocial = "social"
	ContentTypeQuery  = "query"
	ContentTypeText   = "text"
)

// Classification is the outcome of classifying one message.
type Classification struct {
	ContentType string         `json:"content_type"`
	Content     any            `json:"content"`
	Metadata    map[string]any `json:"metadata"`
	TargetAgent string         `json:"target"`
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

var researchKeywords = []string{"research", "query", "question", "investigate"}

// Classify decides content type and target agent for a message.
// Rules are evaluated in order: pdf attachment, audio attachment,
// URL in body (a multi-URL thread becomes social), research query,
// plain text.
func Classify(msg Message) Classification {
	meta := map[string]any{
		"from":    msg.From,
		"subject": msg.Subject,
	}

	if att := attachmentByMime(msg, "application/pdf", false); att != nil {
		meta["filename"] = att.Filename
		meta["mime_type"] = att.MimeType
		return Classification{
			ContentType: ContentTypePDF,
			Content:     att.Data,
			Metadata:    meta,
			TargetAgent: TargetContentMind,
		}
	}

	if att := attachmentByMime(msg, "audio/", true); att != nil {
		meta["filename"] = att.Filename
		meta["mime_type"] = att.MimeType
		return Classification{
			ContentType: ContentTypeAudio,
			Content:     att.Data,
			Metadata:    meta,
			TargetAgent: TargetContentMind,
		}
	}

	if urls := threadURLs(msg.Body); len(urls) > 1 {
		meta["is_thread"] = true
		meta["post_count"] = len(urls)
		return Classification{
			ContentType: ContentTypeSocial,
			Content:     msg.Body,
			Metadata:    meta,
			TargetAgent: TargetContentMind,
		}
	}

	if url := urlPattern.FindString(msg.Body); url != "" {
		return Classification{
			ContentType: ContentTypeURL,
			Content:     url,
			Metadata:    meta,
			TargetAgent: TargetContentMind,
		}
	}

	if isResearchQuery(msg.Subject, msg.Body) {
		return Classification{
			ContentType: ContentTypeQuery,
			Content:     msg.Body,
			Metadata:    meta,
			TargetAgent: TargetResearcher,
		}
	}

	return Classification{
		ContentType: ContentTypeText,
		Content:     msg.Body,
		Metadata:    meta,
		TargetAgent: TargetContentMind,
	}
}

// attachmentByMime finds the first attachment whose MIME type matches
// exactly, or by prefix.
func attachmentByMime(msg Message, mime string, prefix bool) *Attachment {
	for i := range msg.Attachments {
		att := &msg.Attachments[i]
		mt := strings.ToLower(att.MimeType)
		if (prefix && strings.HasPrefix(mt, mime)) || (!prefix && mt == mime) {
			return att
		}
	}
	return nil
}

// threadURLs returns the URL-only lines of a body. Multiple such lines
// indicate a social media thread whose posts the extractor will fuse.
func threadURLs(body string) []string {
	var urls []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if urlPattern.MatchString(line) && urlPattern.FindString(line) == line {
			urls = append(urls, line)
		} else {
			return nil // non-URL content mixed in, not a bare thread
		}
	}
	return urls
}

// isResearchQuery checks the subject and body for research intent.
func isResearchQuery(subject, body string) bool {
	lowerBody := strings.ToLower(strings.TrimSpace(body))
	if strings.HasPrefix(lowerBody, "research:") || strings.HasPrefix(lowerBody, "query:") {
		return true
	}

	combined := strings.ToLower(subject) + " " + lowerBody
	for _, kw := range researchKeywords {
		if strings.Contains(combined, kw) {
			return true
		}
	}

	return strings.Contains(body, "?")
}
