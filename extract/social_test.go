package extract

import (
	"reflect"
	"testing"
)

func TestPostURLs(t *testing.T) {
	text := "https://x.com/a/status/1\n\n  https://x.com/a/status/2  \nnot a url\nhttps://x.com/a/status/3"

	got := postURLs(text)
	want := []string{
		"https://x.com/a/status/1",
		"https://x.com/a/status/2",
		"https://x.com/a/status/3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("postURLs() = %v, want %v", got, want)
	}

	if got := postURLs("no links here"); got != nil {
		t.Errorf("postURLs(no links) = %v, want nil", got)
	}
}

func TestPlatformFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://twitter.com/user/status/1", "twitter"},
		{"https://x.com/user/status/1", "twitter"},
		{"https://bsky.app/profile/user/post/1", "bluesky"},
		{"https://mastodon.social/@user/1", "mastodon"},
		{"https://www.linkedin.com/posts/user", "linkedin"},
		{"https://old.reddit.com/r/golang/comments/1", "reddit"},
		{"https://example.com/blog", "web"},
	}

	for _, tt := range tests {
		t.Run(tt.want+" "+tt.url, func(t *testing.T) {
			if got := platformFor(tt.url); got != tt.want {
				t.Errorf("platformFor(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
