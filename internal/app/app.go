// Package app runs the report pipeline: fetch, extract, render, publish.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/wanikani-report/internal/extract"
	"github.com/JakeFAU/wanikani-report/internal/metrics"
	"github.com/JakeFAU/wanikani-report/internal/profile"
	"github.com/JakeFAU/wanikani-report/internal/report"
)

// Pipeline stage names used in logs and metrics.
const (
	StageFetch   = "fetch"
	StageExtract = "extract"
	StageRender  = "render"
	StagePublish = "publish"
)

// Config controls a Runner.
type Config struct {
	Username       string
	PushgatewayURL string
	MetricsJob     string
}

// Result describes a completed run.
type Result struct {
	RunID   string
	Digest  string
	Stats   profile.Stats
	Message string
}

// Runner executes one report run. It holds no state between runs.
type Runner struct {
	fetcher   profile.Fetcher
	publisher profile.Publisher
	hasher    profile.Hasher
	clock     profile.Clock
	ids       profile.IDGenerator
	recorder  *metrics.Recorder
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Runner. A nil recorder disables metrics; a nil logger is a no-op logger.
func New(
	fetcher profile.Fetcher,
	publisher profile.Publisher,
	hasher profile.Hasher,
	clock profile.Clock,
	ids profile.IDGenerator,
	recorder *metrics.Recorder,
	cfg Config,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		fetcher:   fetcher,
		publisher: publisher,
		hasher:    hasher,
		clock:     clock,
		ids:       ids,
		recorder:  recorder,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run fetches the profile, renders the report, and publishes it. Any failure
// aborts the run before publishing, so a partial report is never sent.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	runID, err := r.ids.NewID()
	if err != nil {
		return Result{}, fmt.Errorf("start run: %w", err)
	}
	logger := r.logger.With(zap.String("run_id", runID), zap.String("username", r.cfg.Username))
	logger.Info("report run started")

	res, err := r.run(ctx, logger)
	res.RunID = runID

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		logger.Error("report run failed", zap.Error(err))
	} else {
		logger.Info("report run finished",
			zap.Int("known_kanji", res.Stats.Progress.Kanji.Known),
			zap.Int("known_vocabulary", res.Stats.Progress.Vocabulary.Known),
		)
	}
	r.finishMetrics(ctx, logger, status)
	return res, err
}

func (r *Runner) run(ctx context.Context, logger *zap.Logger) (Result, error) {
	var res Result

	start := r.clock.Now()
	doc, err := r.fetcher.Fetch(ctx, r.cfg.Username)
	r.observeStage(StageFetch, start)
	if err != nil {
		return res, fmt.Errorf("fetch profile: %w", err)
	}
	if res.Digest, err = r.hasher.Hash([]byte(doc)); err != nil {
		return res, fmt.Errorf("digest profile: %w", err)
	}
	logger.Debug("profile fetched", zap.Int("bytes", len(doc)), zap.String("digest", res.Digest))

	start = r.clock.Now()
	stats, err := extract.Extract(doc)
	r.observeStage(StageExtract, start)
	if err != nil {
		return res, fmt.Errorf("extract profile (digest %s): %w", res.Digest, err)
	}
	res.Stats = stats
	if r.recorder != nil {
		r.recorder.ObserveStats(stats)
	}
	logger.Debug("profile extracted",
		zap.String("level", stats.Level),
		zap.String("stage", stats.Stage),
		zap.Int("srs_stages", len(stats.SRSStages)),
	)

	start = r.clock.Now()
	res.Message = report.Render(stats)
	r.observeStage(StageRender, start)

	start = r.clock.Now()
	err = r.publisher.Publish(ctx, res.Message)
	r.observeStage(StagePublish, start)
	if err != nil {
		return res, fmt.Errorf("publish report: %w", err)
	}
	return res, nil
}

func (r *Runner) observeStage(stage string, start time.Time) {
	if r.recorder == nil {
		return
	}
	r.recorder.ObserveStage(stage, r.clock.Now().Sub(start))
}

func (r *Runner) finishMetrics(ctx context.Context, logger *zap.Logger, status string) {
	if r.recorder == nil {
		return
	}
	r.recorder.ObserveRun(status, r.clock.Now())
	if r.cfg.PushgatewayURL == "" {
		return
	}
	// Push failures never change the run outcome.
	if err := r.recorder.Push(ctx, r.cfg.PushgatewayURL, r.cfg.MetricsJob, r.cfg.Username); err != nil {
		logger.Warn("metrics push failed", zap.Error(err))
	}
}
