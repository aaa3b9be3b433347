package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"

	"github.com/okutsev/video-crosspost-bot/internal/observability"
)

// ErrNoVideoDocument indicates the message carries no downloadable video.
var ErrNoVideoDocument = errors.New("message has no video document")

// DownloadVideo fetches the video document of the given message into a
// temporary file and returns its path. The caller owns the file and
// removes it when done.
func (c *Client) DownloadVideo(ctx context.Context, msgID int) (string, error) {
	if c.api == nil {
		return "", ErrNotConnected
	}

	result, err := c.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: c.channel,
		ID:      []tg.InputMessageClass{&tg.InputMessageID{ID: msgID}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get message %d: %w", msgID, err)
	}

	doc := videoDocument(historyMessages(result))
	if doc == nil {
		return "", fmt.Errorf("%w: %d", ErrNoVideoDocument, msgID)
	}

	tmp, err := os.CreateTemp("", "crosspost-*.mp4")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	path := tmp.Name()

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	loc := &tg.InputDocumentFileLocation{
		ID:            doc.ID,
		AccessHash:    doc.AccessHash,
		FileReference: doc.FileReference,
	}

	start := time.Now()

	if _, err := downloader.NewDownloader().Download(c.api, loc).ToPath(ctx, path); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to download video: %w", err)
	}

	observability.VideoDownloadDuration.Observe(time.Since(start).Seconds())

	c.logger.Info().
		Int("msg_id", msgID).
		Int64("size", doc.Size).
		Dur("duration", time.Since(start)).
		Str("path", path).
		Msg("Downloaded video")

	return path, nil
}

func videoDocument(messages []tg.MessageClass) *tg.Document {
	for _, m := range messages {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		media, ok := msg.Media.(*tg.MessageMediaDocument)
		if !ok {
			continue
		}

		doc, ok := media.Document.(*tg.Document)
		if !ok {
			continue
		}

		for _, attr := range doc.Attributes {
			if _, ok := attr.(*tg.DocumentAttributeVideo); ok {
				return doc
			}
		}
	}

	return nil
}
