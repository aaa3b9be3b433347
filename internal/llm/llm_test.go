package llm

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okutsev/video-crosspost-bot/internal/config"
)

func TestNewSelectsMockWithoutAPIKey(t *testing.T) {
	logger := zerolog.Nop()

	for _, key := range []string{"", "mock"} {
		client := New(&config.Config{LLMAPIKey: key}, &logger)

		_, ok := client.(*mockClient)
		assert.True(t, ok, key)
	}

	client := New(&config.Config{LLMAPIKey: "sk-real"}, &logger)

	_, ok := client.(*mockClient)
	assert.False(t, ok)
}

func TestMockRankContextIsUnavailable(t *testing.T) {
	client := &mockClient{}

	_, err := client.RankContext(context.Background(), time.Now(), nil)

	assert.ErrorIs(t, err, ErrRankingUnavailable)
}

func TestMockRewriteCaptionPassesThrough(t *testing.T) {
	client := &mockClient{}

	got, err := client.RewriteCaption(context.Background(), "original caption")
	require.NoError(t, err)
	assert.Equal(t, "original caption", got)
}
