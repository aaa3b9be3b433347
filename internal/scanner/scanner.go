// Package scanner walks the source stream oldest-first in fixed-size
// pages and finds the next video that still needs publishing.
package scanner

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/okutsev/video-crosspost-bot/internal/domain"
	"github.com/okutsev/video-crosspost-bot/internal/fingerprint"
	"github.com/okutsev/video-crosspost-bot/internal/observability"
	"github.com/okutsev/video-crosspost-bot/internal/state"
)

const (
	skipReasonProcessed = "processed"
	skipReasonFailed    = "failed"
)

// Source fetches one page of video-bearing messages, ordered
// oldest-first, starting at the given offset from the beginning of
// the stream.
type Source interface {
	VideoPage(ctx context.Context, offset, limit int) ([]domain.VideoCandidate, error)
}

// StateStore answers dedup lookups and owns the scan cursor.
type StateStore interface {
	IsProcessed(fp string) bool
	IsFailed(fp string) bool
	LoadCursor() state.Cursor
	SaveCursor(offset int) error
}

type Scanner struct {
	source    Source
	store     StateStore
	batchSize int
	logger    *zerolog.Logger
}

func New(source Source, store StateStore, batchSize int, logger *zerolog.Logger) *Scanner {
	return &Scanner{
		source:    source,
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// FindOldestUnresolved returns the oldest video that is neither
// processed nor failed, or nil when the current batch holds none.
//
// A nil result means "nothing to do this run", not "stream
// exhausted": when a full batch comes back entirely resolved the
// cursor advances by the batch size and persists, so the next run
// continues past it. A short page is the stream's current tail and
// leaves the cursor in place, since future messages will land at
// those offsets.
func (s *Scanner) FindOldestUnresolved(ctx context.Context) (*domain.VideoCandidate, error) {
	cursor := s.store.LoadCursor()

	page, err := s.source.VideoPage(ctx, cursor.Offset, s.batchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch video page at offset %d: %w", cursor.Offset, err)
	}

	s.logger.Debug().Int("offset", cursor.Offset).Int("count", len(page)).Msg("Scanning batch")

	for i := range page {
		candidate := page[i]
		observability.CandidatesScanned.Inc()

		fp := fingerprint.Key(candidate)

		if s.store.IsProcessed(fp) {
			observability.CandidatesSkipped.WithLabelValues(skipReasonProcessed).Inc()
			continue
		}

		if s.store.IsFailed(fp) {
			observability.CandidatesSkipped.WithLabelValues(skipReasonFailed).Inc()
			continue
		}

		s.logger.Info().
			Int("msg_id", candidate.MessageID).
			Str("fingerprint", fp).
			Time("posted", candidate.Timestamp).
			Msg("Found unresolved video")

		return &candidate, nil
	}

	if len(page) == s.batchSize {
		next := cursor.Offset + s.batchSize

		if err := s.store.SaveCursor(next); err != nil {
			return nil, fmt.Errorf("advance cursor to %d: %w", next, err)
		}

		observability.BatchesExhausted.Inc()
		s.logger.Info().Int("offset", next).Msg("Batch fully resolved, cursor advanced")
	}

	return nil, nil
}
