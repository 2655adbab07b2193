// Package store provides artifact persistence behind the
// agent.ArtifactStore contract: an in-memory store for tests and a
// NATS JetStream key-value store for durable single-node deployments.
package store

import (
	"strings"

	"github.com/c360studio/contentmind/agent"
)

// matches applies an ArtifactFilter to one artifact.
func matches(a *agent.Artifact, filter agent.ArtifactFilter) bool {
	if !filter.Since.IsZero() && a.ExtractedAt.Before(filter.Since) {
		return false
	}

	if len(filter.ContentTypes) > 0 && !containsFold(filter.ContentTypes, a.ContentType) {
		return false
	}

	if len(filter.Tags) > 0 {
		found := false
		for _, want := range filter.Tags {
			if containsFold(a.Tags, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
