// Package app wires the scan-resolve-publish pipeline and owns the run
// loop.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/okutsev/video-crosspost-bot/internal/caption"
	"github.com/okutsev/video-crosspost-bot/internal/config"
	"github.com/okutsev/video-crosspost-bot/internal/failure"
	"github.com/okutsev/video-crosspost-bot/internal/fingerprint"
	"github.com/okutsev/video-crosspost-bot/internal/llm"
	"github.com/okutsev/video-crosspost-bot/internal/observability"
	"github.com/okutsev/video-crosspost-bot/internal/publisher"
	"github.com/okutsev/video-crosspost-bot/internal/scanner"
	"github.com/okutsev/video-crosspost-bot/internal/state"
	"github.com/okutsev/video-crosspost-bot/internal/telegram"
)

const (
	outcomePublished = "published"
	outcomeFailed    = "failed"
	outcomeIdle      = "idle"
)

type App struct {
	cfg    *config.Config
	logger *zerolog.Logger
}

func New(cfg *config.Config, logger *zerolog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.cfg.HealthPort, a.logger).Start(ctx)
}

// RunOnce performs a single scan-resolve-publish pass: at most one
// video is published per call.
func (a *App) RunOnce(ctx context.Context) error {
	runLogger := a.logger.With().Str("run_id", uuid.NewString()).Logger()

	store, err := state.Open(a.cfg.StateDir, &runLogger)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}

	pub, err := publisher.New(a.cfg, &runLogger)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}

	source := telegram.New(a.cfg, &runLogger)

	start := time.Now()
	defer func() {
		observability.RunDuration.Observe(time.Since(start).Seconds())
	}()

	return source.Run(ctx, func(ctx context.Context) error {
		return a.runPass(ctx, &runLogger, store, source, pub)
	})
}

// RunLoop repeats RunOnce on the configured interval until the context
// is canceled. A failed pass is logged and the loop keeps going.
func (a *App) RunLoop(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.ScanInterval)
	defer ticker.Stop()

	if err := a.RunOnce(ctx); err != nil {
		a.logger.Error().Err(err).Msg("run failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				a.logger.Error().Err(err).Msg("run failed")
			}
		}
	}
}

func (a *App) runPass(ctx context.Context, logger *zerolog.Logger, store *state.Store, source *telegram.Client, pub publisher.Publisher) error {
	scanLogger := logger.With().Str("component", "scanner").Logger()
	scan := scanner.New(source, store, a.cfg.BatchSize, &scanLogger)

	candidate, err := scan.FindOldestUnresolved(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if candidate == nil {
		observability.PublishOutcomes.WithLabelValues(outcomeIdle).Inc()
		logger.Info().Msg("No unresolved videos this run")

		return nil
	}

	captionLogger := logger.With().Str("component", "caption").Logger()

	window := caption.NewWindowBuilder(source, &captionLogger).BuildWindow(ctx, *candidate, a.cfg.ContextRadius)

	ranker := llm.New(a.cfg, &captionLogger)
	text := caption.NewResolver(ranker, a.cfg.HeuristicMaxGap, &captionLogger).Resolve(ctx, *candidate, window)

	if text != "" && a.cfg.CaptionRewriting {
		rewritten, err := ranker.RewriteCaption(ctx, text)
		if err != nil {
			logger.Warn().Err(err).Msg("caption rewriting failed, keeping original")
		} else {
			text = rewritten
		}
	}

	if text == "" {
		text = a.cfg.DefaultCaption
	}

	text = publisher.TruncateCaption(text, a.cfg.CaptionLimit)

	fp := fingerprint.Key(*candidate)

	path, err := source.DownloadVideo(ctx, candidate.MessageID)
	if err != nil {
		return a.recordFailure(logger, store, fp, err)
	}

	defer func() {
		if err := os.Remove(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to remove downloaded video")
		}
	}()

	publishedID, err := pub.PublishVideo(ctx, path, text)
	if err != nil {
		return a.recordFailure(logger, store, fp, err)
	}

	if err := store.MarkProcessed(fp); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}

	observability.PublishOutcomes.WithLabelValues(outcomePublished).Inc()

	logger.Info().
		Int("msg_id", candidate.MessageID).
		Str("fingerprint", fp).
		Str("published_id", publishedID).
		Str("caption", text).
		Msg("Video published")

	return nil
}

// recordFailure classifies the error, records it permanently so the
// video is never retried, and keeps the run alive.
func (a *App) recordFailure(logger *zerolog.Logger, store *state.Store, fp string, cause error) error {
	reason := failure.Classify(cause)

	observability.PublishOutcomes.WithLabelValues(outcomeFailed).Inc()
	observability.PublishFailures.WithLabelValues(string(reason)).Inc()

	logger.Error().
		Err(cause).
		Str("fingerprint", fp).
		Str("reason", string(reason)).
		Msg("Publish failed permanently")

	if err := store.MarkFailed(fp, string(reason), cause.Error()); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}

	return nil
}
