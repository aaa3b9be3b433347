// Package caption locates the display caption for a video candidate,
// first from the candidate's own text and otherwise from a bounded
// window of neighboring messages.
package caption

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/okutsev/video-crosspost-bot/internal/domain"
)

// ContextSource fetches raw neighbor messages by id. Implemented by
// the telegram client.
type ContextSource interface {
	MessagesByIDs(ctx context.Context, ids []int) ([]domain.ContextMessage, error)
}

type WindowBuilder struct {
	source ContextSource
	logger *zerolog.Logger
}

func NewWindowBuilder(source ContextSource, logger *zerolog.Logger) *WindowBuilder {
	return &WindowBuilder{
		source: source,
		logger: logger,
	}
}

// BuildWindow returns up to 2*radius+1 context messages centered on
// the candidate's message id, excluding the candidate itself and any
// empty-text neighbors, ordered by id ascending. Message ids are not
// contiguous, so holes in the requested range simply shrink the
// window. A fetch failure is non-fatal and yields an empty window.
func (b *WindowBuilder) BuildWindow(ctx context.Context, c domain.VideoCandidate, radius int) []domain.ContextMessage {
	if radius <= 0 {
		return nil
	}

	ids := make([]int, 0, 2*radius)
	for id := c.MessageID - radius; id <= c.MessageID+radius; id++ {
		if id <= 0 || id == c.MessageID {
			continue
		}

		ids = append(ids, id)
	}

	neighbors, err := b.source.MessagesByIDs(ctx, ids)
	if err != nil {
		b.logger.Warn().Err(err).Int("msg_id", c.MessageID).Msg("failed to fetch context window")
		return nil
	}

	window := make([]domain.ContextMessage, 0, len(neighbors))

	for _, m := range neighbors {
		if m.MessageID == c.MessageID || m.Text == "" {
			continue
		}

		m.Position = domain.PositionBefore
		if m.MessageID > c.MessageID {
			m.Position = domain.PositionAfter
		}

		m.Delta = c.Timestamp.Sub(m.Timestamp)
		if m.Delta < 0 {
			m.Delta = -m.Delta
		}

		window = append(window, m)
	}

	sort.Slice(window, func(i, j int) bool {
		return window[i].MessageID < window[j].MessageID
	})

	return window
}
