package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/contentmind/agent"
)

// ArtifactBucket is the JetStream key-value bucket holding artifacts.
const ArtifactBucket = "artifacts"

// NATS persists artifacts in a JetStream key-value bucket, keyed by
// artifact id.
type NATS struct {
	kv     jetstream.KeyValue
	logger *slog.Logger
}

// NewNATS creates (or binds to) the artifact bucket.
func NewNATS(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) (*NATS, error) {
	if logger == nil {
		logger = slog.Default()
	}

	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      ArtifactBucket,
		Description: "Enriched content artifacts",
		Storage:     jetstream.FileStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure artifact bucket: %w", err)
	}

	return &NATS{kv: kv, logger: logger}, nil
}

// Put stores an artifact, assigning an id when it has none.
func (s *NATS) Put(ctx context.Context, a *agent.Artifact) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}

	if _, err := s.kv.Put(ctx, a.ID, data); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	return a.ID, nil
}

// Get returns an artifact by id.
func (s *NATS) Get(ctx context.Context, id string) (*agent.Artifact, error) {
	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var a agent.Artifact
	if err := json.Unmarshal(entry.Value(), &a); err != nil {
		return nil, fmt.Errorf("parse artifact: %w", err)
	}
	return &a, nil
}

// List scans the bucket and returns artifacts matching the filter,
// newest first. Entries that fail to parse are skipped with a warning.
func (s *NATS) List(ctx context.Context, filter agent.ArtifactFilter) ([]*agent.Artifact, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list artifact keys: %w", err)
	}

	var out []*agent.Artifact
	for key := range lister.Keys() {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			continue
		}

		var a agent.Artifact
		if err := json.Unmarshal(entry.Value(), &a); err != nil {
			s.logger.Warn("Skipping unparsable artifact", "key", key, "error", err)
			continue
		}
		if matches(&a, filter) {
			out = append(out, &a)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].ExtractedAt.After(out[j].ExtractedAt)
	})
	return out, nil
}
