// Package llm provides the caption-ranking and caption-rewriting
// calls backed by an OpenAI-compatible model, with a mock client used
// when no API key is configured.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/okutsev/video-crosspost-bot/internal/config"
	"github.com/okutsev/video-crosspost-bot/internal/domain"
)

// ErrRankingUnavailable indicates no ranking backend is configured.
var ErrRankingUnavailable = errors.New("ranking unavailable")

// NoneSentinel is the answer a ranking call returns when no window
// entry describes the video.
const NoneSentinel = "none"

type Client interface {
	// RankContext picks the single most relevant window entry for a
	// video posted at candidateTime. It returns the entry's text
	// verbatim, or NoneSentinel.
	RankContext(ctx context.Context, candidateTime time.Time, window []domain.ContextMessage) (string, error)

	// RewriteCaption rewrites a caption for reposting, preserving its
	// language and meaning.
	RewriteCaption(ctx context.Context, text string) (string, error)
}

const mockAPIKey = "mock"

type mockClient struct{}

func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if cfg.LLMAPIKey == "" || cfg.LLMAPIKey == mockAPIKey {
		return &mockClient{}
	}

	return newOpenAI(cfg, logger)
}

// RankContext fails deliberately so the resolver's heuristic fallback
// takes over when no model is configured.
func (c *mockClient) RankContext(_ context.Context, _ time.Time, _ []domain.ContextMessage) (string, error) {
	return "", ErrRankingUnavailable
}

func (c *mockClient) RewriteCaption(_ context.Context, text string) (string, error) {
	return text, nil
}
