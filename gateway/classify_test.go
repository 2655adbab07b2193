package gateway

import (
	"testing"
)

func TestClassifyPDFAttachment(t *testing.T) {
	msg := Message{
		From:    "reader@example.com",
		Subject: "interesting paper",
		Body:    "see attached, also https://example.com/ignored",
		Attachments: []Attachment{
			{Filename: "paper.pdf", MimeType: "application/pdf", Data: []byte("%PDF-1.4")},
		},
	}

	c := Classify(msg)

	if c.ContentType != ContentTypePDF {
		t.Errorf("ContentType = %q, want pdf", c.ContentType)
	}
	if c.TargetAgent != TargetContentMind {
		t.Errorf("TargetAgent = %q", c.TargetAgent)
	}
	if c.Metadata["filename"] != "paper.pdf" {
		t.Errorf("filename = %v", c.Metadata["filename"])
	}
	if data, ok := c.Content.([]byte); !ok || string(data) != "%PDF-1.4" {
		t.Errorf("Content = %v", c.Content)
	}
}

func TestClassifyAudioAttachment(t *testing.T) {
	msg := Message{
		From: "reader@example.com",
		Body: "voice note",
		Attachments: []Attachment{
			{Filename: "note.ogg", MimeType: "audio/ogg", Data: []byte{1, 2}},
		},
	}

	c := Classify(msg)
	if c.ContentType != ContentTypeAudio {
		t.Errorf("ContentType = %q, want audio", c.ContentType)
	}
}

func TestClassifySocialThread(t *testing.T) {
	msg := Message{
		From: "reader@example.com",
		Body: "https://x.com/user/status/1\n\nhttps://x.com/user/status/2\nhttps://x.com/user/status/3\n",
	}

	c := Classify(msg)

	if c.ContentType != ContentTypeSocial {
		t.Fatalf("ContentType = %q, want social", c.ContentType)
	}
	if c.Metadata["is_thread"] != true {
		t.Error("is_thread not set")
	}
	if c.Metadata["post_count"] != 3 {
		t.Errorf("post_count = %v, want 3", c.Metadata["post_count"])
	}
}

func TestClassifySingleURL(t *testing.T) {
	msg := Message{
		From: "reader@example.com",
		Body: "worth a read: https://example.com/article today",
	}

	c := Classify(msg)

	if c.ContentType != ContentTypeURL {
		t.Fatalf("ContentType = %q, want url", c.ContentType)
	}
	if c.Content != "https://example.com/article" {
		t.Errorf("Content = %v", c.Content)
	}
}

func TestClassifyResearchQuery(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		body    string
	}{
		{"research prefix", "", "research: how do circuit breakers work"},
		{"query prefix", "", "Query: best practice for backoff"},
		{"keyword in subject", "please investigate this", "the thing from yesterday"},
		{"question mark", "", "is a half-open state worth the complexity?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(Message{From: "a@b.com", Subject: tt.subject, Body: tt.body})
			if c.ContentType != ContentTypeQuery {
				t.Errorf("ContentType = %q, want query", c.ContentType)
			}
			if c.TargetAgent != TargetResearcher {
				t.Errorf("TargetAgent = %q, want researcher", c.TargetAgent)
			}
		})
	}
}

func TestClassifyPlainText(t *testing.T) {
	c := Classify(Message{From: "a@b.com", Body: "some notes I took at the talk."})

	if c.ContentType != ContentTypeText {
		t.Errorf("ContentType = %q, want text", c.ContentType)
	}
	if c.TargetAgent != TargetContentMind {
		t.Errorf("TargetAgent = %q", c.TargetAgent)
	}
}

func TestThreadURLsRejectsMixedLines(t *testing.T) {
	body := "https://x.com/a/1\ncheck this out\nhttps://x.com/a/2"
	if urls := threadURLs(body); urls != nil {
		t.Errorf("threadURLs() = %v, want nil", urls)
	}
}

func TestThreadURLsSkipsBlankLines(t *testing.T) {
	body := "https://x.com/a/1\n\n\nhttps://x.com/a/2"
	if urls := threadURLs(body); len(urls) != 2 {
		t.Errorf("threadURLs() = %v, want 2 urls", urls)
	}
}
