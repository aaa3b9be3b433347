package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CandidatesScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crosspost_candidates_scanned_total",
		Help: "The total number of video candidates examined by the scanner",
	})

	CandidatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosspost_candidates_skipped_total",
		Help: "The total number of candidates skipped during scanning",
	}, []string{"reason"})

	BatchesExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crosspost_batches_exhausted_total",
		Help: "The total number of fully resolved batches that advanced the cursor",
	})

	CaptionsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosspost_captions_resolved_total",
		Help: "The total number of caption resolutions by strategy",
	}, []string{"strategy"})

	PublishOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosspost_publish_outcomes_total",
		Help: "The total number of publish attempts by outcome",
	}, []string{"outcome"})

	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosspost_publish_failures_total",
		Help: "The total number of terminal publish failures by classified reason",
	}, []string{"reason"})

	StateLoadWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crosspost_state_load_warnings_total",
		Help: "The total number of state files that failed to load and fell back to empty",
	}, []string{"file"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crosspost_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	VideoDownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crosspost_video_download_duration_seconds",
		Help:    "Duration of video downloads from the source",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300},
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "crosspost_run_duration_seconds",
		Help:    "Duration of a full scan-and-publish run",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
	})
)
