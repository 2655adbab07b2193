package researcher_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/contentmind/agent"
	"github.com/c360studio/contentmind/agent/researcher"
	"github.com/c360studio/contentmind/llm"
	"github.com/c360studio/contentmind/model"
	"github.com/c360studio/contentmind/router"
	"github.com/c360studio/contentmind/store"
)

func degradedRouter() *router.Router {
	registry := model.NewRegistry(nil, map[string]*model.EndpointConfig{}, nil)
	return router.New(registry, llm.NewCaller(registry))
}

func TestProcessStripsResearchPrefix(t *testing.T) {
	artifacts := store.NewMemory()
	a := researcher.New(degradedRouter(), artifacts, nil)

	result, err := a.Process(context.Background(), agent.Request{
		ContentType: "query",
		Content:     "research: why do leap seconds exist",
	})

	require.NoError(t, err)
	require.Equal(t, agent.StatusSuccess, result.Status)

	art := result.Artifact
	require.NotNil(t, art)
	assert.Equal(t, "query", art.ContentType)
	assert.Equal(t, "why do leap seconds exist", art.Title)
	assert.Equal(t, "why do leap seconds exist", art.Metadata["query"])
	assert.Equal(t, "research", art.Source)

	// No providers configured, so the answer is the degraded text.
	assert.NotEmpty(t, art.FullText)
	assert.Equal(t, router.ReasonNoProviders, art.FallbackReasons["research"])

	require.NotEmpty(t, art.ID)
	stored, err := artifacts.Get(context.Background(), art.ID)
	require.NoError(t, err)
	assert.Equal(t, art.Title, stored.Title)
}

func TestProcessRejectsEmptyQuery(t *testing.T) {
	a := researcher.New(degradedRouter(), nil, nil)

	result, err := a.Process(context.Background(), agent.Request{
		ContentType: "query",
		Content:     "   query:   ",
	})

	require.NoError(t, err)
	assert.Equal(t, agent.StatusError, result.Status)
}

func TestProcessRejectsNonTextContent(t *testing.T) {
	a := researcher.New(degradedRouter(), nil, nil)

	result, err := a.Process(context.Background(), agent.Request{
		ContentType: "query",
		Content:     42,
	})

	require.NoError(t, err)
	assert.Equal(t, agent.StatusError, result.Status)
}

func TestProcessTruncatesLongTitle(t *testing.T) {
	a := researcher.New(degradedRouter(), nil, nil)

	long := "is it worth modelling every domain concept explicitly even when the codebase is small and the team already shares context"
	result, err := a.Process(context.Background(), agent.Request{
		ContentType: "query",
		Content:     long,
	})

	require.NoError(t, err)
	require.Equal(t, agent.StatusSuccess, result.Status)
	assert.LessOrEqual(t, len([]rune(result.Artifact.Title)), 80)
	assert.Equal(t, long, result.Artifact.Metadata["query"])
}
