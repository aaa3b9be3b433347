package caption

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/okutsev/video-crosspost-bot/internal/domain"
	"github.com/okutsev/video-crosspost-bot/internal/observability"
)

// Strategy names, recorded with the resolution outcome.
const (
	StrategyDirect    = "direct"
	StrategyRanked    = "ranked"
	StrategyHeuristic = "heuristic"
	StrategyNone      = "none"
)

// noneSentinel is the ranker's explicit "no relevant message" answer.
const noneSentinel = "none"

// Ranker asks an external model to pick the most relevant window entry
// for a candidate. It returns the selected text verbatim, or the
// "none" sentinel when nothing in the window fits.
type Ranker interface {
	RankContext(ctx context.Context, candidateTime time.Time, window []domain.ContextMessage) (string, error)
}

type Resolver struct {
	ranker       Ranker
	heuristicGap time.Duration
	logger       *zerolog.Logger
}

func NewResolver(ranker Ranker, heuristicGap time.Duration, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		ranker:       ranker,
		heuristicGap: heuristicGap,
		logger:       logger,
	}
}

// Resolve runs the strategy chain and returns the caption, possibly
// empty. It never invents content: every non-empty result is the
// candidate's own text or the verbatim text of a window entry. The
// caller substitutes a default caption for an empty result.
//
// Chain, first success wins:
//  1. the candidate's own non-empty text, window untouched;
//  2. ranked selection over the window, validated against it;
//  3. on ranking error or validation failure, the first window entry
//     from the candidate's sender within the heuristic gap;
//  4. empty string.
func (r *Resolver) Resolve(ctx context.Context, c domain.VideoCandidate, window []domain.ContextMessage) string {
	if own := strings.TrimSpace(c.Text); own != "" {
		observability.CaptionsResolved.WithLabelValues(StrategyDirect).Inc()
		return own
	}

	if len(window) == 0 {
		observability.CaptionsResolved.WithLabelValues(StrategyNone).Inc()
		return ""
	}

	text, ok := r.rankWindow(ctx, c, window)
	if ok {
		if text != "" {
			observability.CaptionsResolved.WithLabelValues(StrategyRanked).Inc()
		} else {
			observability.CaptionsResolved.WithLabelValues(StrategyNone).Inc()
		}

		return text
	}

	if text := r.heuristic(c, window); text != "" {
		observability.CaptionsResolved.WithLabelValues(StrategyHeuristic).Inc()
		return text
	}

	observability.CaptionsResolved.WithLabelValues(StrategyNone).Inc()

	return ""
}

// rankWindow returns (caption, true) when the ranker produced a usable
// answer: either a validated window text or an explicit "none". A call
// error or a selection that matches nothing in the window returns
// false and hands over to the heuristic.
func (r *Resolver) rankWindow(ctx context.Context, c domain.VideoCandidate, window []domain.ContextMessage) (string, bool) {
	selected, err := r.ranker.RankContext(ctx, c.Timestamp, window)
	if err != nil {
		r.logger.Warn().Err(err).Int("msg_id", c.MessageID).Msg("context ranking failed, falling back to heuristic")
		return "", false
	}

	selected = stripQuotes(strings.TrimSpace(selected))
	if selected == "" || strings.EqualFold(selected, noneSentinel) {
		return "", true
	}

	for _, m := range window {
		if matches(selected, m.Text) {
			return m.Text, true
		}
	}

	r.logger.Warn().Int("msg_id", c.MessageID).Msg("ranked selection matched no window entry, falling back to heuristic")

	return "", false
}

func (r *Resolver) heuristic(c domain.VideoCandidate, window []domain.ContextMessage) string {
	for _, m := range window {
		if m.SenderID == c.SenderID && m.Delta < r.heuristicGap {
			return m.Text
		}
	}

	return ""
}

// matches accepts an exact match or a substring containment in either
// direction, tolerating models that quote partially or append framing.
func matches(selected, entry string) bool {
	if selected == entry {
		return true
	}

	return strings.Contains(entry, selected) || strings.Contains(selected, entry)
}

var quotePairs = [][2]string{
	{`"`, `"`},
	{"'", "'"},
	{"«", "»"},
	{"“", "”"},
	{"`", "`"},
}

// stripQuotes removes one layer of symmetric quoting that ranking
// models tend to add around the selected text.
func stripQuotes(s string) string {
	for _, pair := range quotePairs {
		if len(s) > len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, pair[0]), pair[1]))
		}
	}

	return s
}
