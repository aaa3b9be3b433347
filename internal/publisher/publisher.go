// Package publisher posts videos to the target chat through the Bot
// API.
package publisher

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/okutsev/video-crosspost-bot/internal/config"
)

// Publisher posts a local video file with a caption and returns the
// published message id.
type Publisher interface {
	PublishVideo(ctx context.Context, path, caption string) (string, error)
}

type botPublisher struct {
	cfg    *config.Config
	api    *tgbotapi.BotAPI
	logger *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) (Publisher, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating bot API: %w", err)
	}

	return &botPublisher{
		cfg:    cfg,
		api:    api,
		logger: logger,
	}, nil
}

func (p *botPublisher) PublishVideo(_ context.Context, path, caption string) (string, error) {
	video := tgbotapi.NewVideo(p.cfg.TargetChatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true

	sent, err := p.api.Send(video)
	if err != nil {
		return "", fmt.Errorf("failed to send video to chat %d: %w", p.cfg.TargetChatID, err)
	}

	p.logger.Info().
		Int64("chat_id", p.cfg.TargetChatID).
		Int("message_id", sent.MessageID).
		Msg("Published video")

	return strconv.Itoa(sent.MessageID), nil
}
