package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/okutsev/video-crosspost-bot/internal/config"
	"github.com/okutsev/video-crosspost-bot/internal/domain"
	"github.com/okutsev/video-crosspost-bot/internal/observability"
)

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute

	taskRank    = "rank"
	taskRewrite = "rewrite"
)

type openaiClient struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

func newOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	return &openaiClient{
		cfg:         cfg,
		client:      openai.NewClient(cfg.LLMAPIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPS)), 5), // User-defined RPS, burst 5
	}
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("circuit breaker is open until %v", c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures++

	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}

func (c *openaiClient) complete(ctx context.Context, task, prompt string) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model(),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0,
	})

	observability.LLMRequestDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()
		return "", fmt.Errorf("openai chat completion error: %w", err)
	}

	c.recordSuccess()

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *openaiClient) model() string {
	if c.cfg.LLMModel != "" {
		return c.cfg.LLMModel
	}

	return openai.GPT4oMini
}

func (c *openaiClient) RankContext(ctx context.Context, candidateTime time.Time, window []domain.ContextMessage) (string, error) {
	answer, err := c.complete(ctx, taskRank, rankPrompt(candidateTime, window))
	if err != nil {
		return "", err
	}

	c.logger.Debug().Str("answer", answer).Msg("LLM ranked context window")

	return answer, nil
}

func (c *openaiClient) RewriteCaption(ctx context.Context, text string) (string, error) {
	rewritten, err := c.complete(ctx, taskRewrite, rewritePrompt(text))
	if err != nil {
		return "", err
	}

	if rewritten == "" {
		return text, nil
	}

	return rewritten, nil
}
