// Package telegram reads the source channel over MTProto as a regular
// user account: video pagination, context message lookup, and media
// download.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
	"github.com/rs/zerolog"

	"github.com/okutsev/video-crosspost-bot/internal/config"
	"github.com/okutsev/video-crosspost-bot/internal/domain"
)

// ErrChannelNotFound indicates the channel was not found.
var ErrChannelNotFound = errors.New("channel not found")

// ErrNotAChannel indicates the peer is not a channel.
var ErrNotAChannel = errors.New("peer is not a channel")

// ErrNotConnected indicates a call was made outside Run.
var ErrNotConnected = errors.New("client is not connected")

type Client struct {
	cfg    *config.Config
	logger *zerolog.Logger

	api     *tg.Client
	channel *tg.InputChannel
}

func New(cfg *config.Config, logger *zerolog.Logger) *Client {
	return &Client{
		cfg:    cfg,
		logger: logger,
	}
}

// Run connects to Telegram, authenticates if necessary, resolves the
// source channel and invokes fn. The connection lives for the duration
// of fn.
func (c *Client) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	client := telegram.NewClient(c.cfg.TGAPIID, c.cfg.TGAPIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{
			Path: c.cfg.TGSessionPath,
		},
	})

	return client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, c.authFlow()); err != nil {
			return fmt.Errorf("auth: %w", err)
		}

		c.logger.Info().Msg("Successfully authenticated as user")

		c.api = tg.NewClient(client)

		if err := c.resolveChannel(ctx); err != nil {
			return err
		}

		defer func() {
			c.api = nil
			c.channel = nil
		}()

		return fn(ctx)
	})
}

func (c *Client) resolveChannel(ctx context.Context) error {
	resolved, err := c.api.ContactsResolveUsername(ctx, c.cfg.SourceChannel)
	if err != nil {
		return fmt.Errorf("failed to resolve username: %w", err)
	}

	if len(resolved.Chats) == 0 {
		return fmt.Errorf("%w: %s", ErrChannelNotFound, c.cfg.SourceChannel)
	}

	channel, ok := resolved.Chats[0].(*tg.Channel)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAChannel, c.cfg.SourceChannel)
	}

	c.channel = &tg.InputChannel{
		ChannelID:  channel.ID,
		AccessHash: channel.AccessHash,
	}

	c.logger.Info().
		Str("username", c.cfg.SourceChannel).
		Int64("peer_id", channel.ID).
		Str("title", channel.Title).
		Msg("Resolved source channel")

	return nil
}

// VideoPage returns up to limit video messages, ordered oldest-first,
// starting offset videos from the beginning of the channel history.
//
// MessagesSearch with a video filter pages newest-first; anchoring at
// OffsetID 1 with a negative AddOffset flips it to count from the
// start of the history, the same trick clients use for reverse
// iteration.
func (c *Client) VideoPage(ctx context.Context, offset, limit int) ([]domain.VideoCandidate, error) {
	if c.api == nil {
		return nil, ErrNotConnected
	}

	history, err := c.api.MessagesSearch(ctx, &tg.MessagesSearchRequest{
		Peer: &tg.InputPeerChannel{
			ChannelID:  c.channel.ChannelID,
			AccessHash: c.channel.AccessHash,
		},
		Filter:    &tg.InputMessagesFilterVideo{},
		OffsetID:  1,
		AddOffset: -(offset + limit),
		Limit:     limit,
	})
	if err != nil {
		if waited, werr := c.waitFlood(ctx, err); waited {
			return nil, werr
		}

		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	messages := historyMessages(history)

	candidates := make([]domain.VideoCandidate, 0, len(messages))

	for _, m := range messages {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		candidate, ok := c.videoCandidate(msg)
		if !ok {
			continue
		}

		candidates = append(candidates, candidate)
	}

	// The API hands pages back newest-first.
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].MessageID < candidates[j].MessageID
	})

	return candidates, nil
}

// MessagesByIDs fetches the given messages from the source channel.
// Ids that point at deleted or otherwise missing messages are silently
// absent from the result.
func (c *Client) MessagesByIDs(ctx context.Context, ids []int) ([]domain.ContextMessage, error) {
	if c.api == nil {
		return nil, ErrNotConnected
	}

	inputIDs := make([]tg.InputMessageClass, 0, len(ids))
	for _, id := range ids {
		inputIDs = append(inputIDs, &tg.InputMessageID{ID: id})
	}

	result, err := c.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
		Channel: c.channel,
		ID:      inputIDs,
	})
	if err != nil {
		if waited, werr := c.waitFlood(ctx, err); waited {
			return nil, werr
		}

		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	out := make([]domain.ContextMessage, 0, len(ids))

	for _, m := range historyMessages(result) {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}

		out = append(out, domain.ContextMessage{
			MessageID: msg.ID,
			Text:      msg.Message,
			SenderID:  senderID(msg),
			Timestamp: time.Unix(int64(msg.Date), 0),
		})
	}

	return out, nil
}

func (c *Client) videoCandidate(msg *tg.Message) (domain.VideoCandidate, bool) {
	media, ok := msg.Media.(*tg.MessageMediaDocument)
	if !ok {
		return domain.VideoCandidate{}, false
	}

	doc, ok := media.Document.(*tg.Document)
	if !ok {
		return domain.VideoCandidate{}, false
	}

	duration := 0
	isVideo := false

	for _, attr := range doc.Attributes {
		if video, ok := attr.(*tg.DocumentAttributeVideo); ok {
			isVideo = true
			duration = int(video.Duration)

			break
		}
	}

	if !isVideo {
		return domain.VideoCandidate{}, false
	}

	return domain.VideoCandidate{
		PeerID:          c.cfg.SourceChannel,
		MessageID:       msg.ID,
		SenderID:        senderID(msg),
		Timestamp:       time.Unix(int64(msg.Date), 0),
		SizeBytes:       doc.Size,
		DurationSeconds: duration,
		Text:            msg.Message,
	}, true
}

// waitFlood sleeps out a FLOOD_WAIT and reports whether it handled the
// error. The caller returns an empty result so the run retries later.
func (c *Client) waitFlood(ctx context.Context, err error) (bool, error) {
	floodErr, ok := tgerr.As(err)
	if !ok || floodErr.Type != "FLOOD_WAIT" {
		return false, nil
	}

	c.logger.Warn().Int("seconds", floodErr.Argument).Msg("flood wait")

	select {
	case <-ctx.Done():
		return true, ctx.Err()
	case <-time.After(time.Duration(floodErr.Argument) * time.Second):
	}

	return true, nil
}

func historyMessages(history tg.MessagesMessagesClass) []tg.MessageClass {
	switch h := history.(type) {
	case *tg.MessagesMessages:
		return h.Messages
	case *tg.MessagesMessagesSlice:
		return h.Messages
	case *tg.MessagesChannelMessages:
		return h.Messages
	}

	return nil
}

func senderID(msg *tg.Message) int64 {
	switch from := msg.FromID.(type) {
	case *tg.PeerUser:
		return from.UserID
	case *tg.PeerChannel:
		return from.ChannelID
	case *tg.PeerChat:
		return from.ChatID
	}

	return 0
}
