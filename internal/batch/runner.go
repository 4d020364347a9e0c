// Package batch runs one experiment over the samples of one input document and
// enforces the all-or-nothing save policy.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ggpbench/internal/experiment"
	"ggpbench/internal/harness"
	"ggpbench/internal/logger"
	"ggpbench/internal/metrics"
	"ggpbench/pkg/ggptypes"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// DefaultPause is the minimum spacing between consecutive samples.
const DefaultPause = 100 * time.Millisecond

// Failure reasons counted in Summary.Failures.
const (
	ReasonShapeMismatch      = "shape_mismatch"
	ReasonMissingGroundTruth = "missing_ground_truth"
	ReasonGenerationFailed   = "generation_failed"
	ReasonOther              = "error"
)

// Options configure a Runner.
type Options struct {
	// MaxSamples is the number of successful records a run must collect. Fewer
	// successes discard the whole run.
	MaxSamples int
	// Pause is the minimum spacing between samples. Zero means DefaultPause;
	// negative disables it.
	Pause time.Duration

	Recorder *metrics.Recorder
}

// Summary counts what happened during a run. It is returned even when no result is.
type Summary struct {
	Total     int
	Attempted int
	Succeeded int
	Skipped   int
	Warnings  int
	Failures  map[string]int
	Complete  bool
}

// String renders the summary on one line.
func (s Summary) String() string {
	return fmt.Sprintf("%d/%d samples succeeded (%d attempted, %d skipped, %d warnings)",
		s.Succeeded, s.Total, s.Attempted, s.Skipped, s.Warnings)
}

// Runner processes samples strictly in order with one dispatcher and one client.
type Runner struct {
	dispatcher *experiment.Dispatcher
	client     *harness.Client
	opts       Options
	limiter    *rate.Limiter
	logger     *log.Logger
}

// New creates a Runner. MaxSamples must be positive.
func New(dispatcher *experiment.Dispatcher, client *harness.Client, opts Options) (*Runner, error) {
	if dispatcher == nil || client == nil {
		return nil, errors.New("batch runner needs a dispatcher and a client")
	}
	if opts.MaxSamples < 1 {
		return nil, &experiment.ConfigurationError{Kind: dispatcher.Kind(), Reason: "max samples must be positive"}
	}
	if opts.Pause == 0 {
		opts.Pause = DefaultPause
	}

	return &Runner{
		dispatcher: dispatcher,
		client:     client,
		opts:       opts,
		limiter:    rate.NewLimiter(rate.Every(opts.Pause), 1),
		logger:     logger.NewStyledLogger("batch"),
	}, nil
}

// Run processes doc until MaxSamples records are collected or the samples run out.
// Per-sample failures are logged, counted and skipped. The result is nil unless
// exactly MaxSamples records were collected. The only error comes from ctx, checked
// while waiting for the next sample's turn.
func (r *Runner) Run(ctx context.Context, doc *ggptypes.InputDocument) (*ggptypes.RunResult, Summary, error) {
	kind := r.dispatcher.Kind()
	summary := Summary{Total: len(doc.Samples), Failures: map[string]int{}}
	records := make([]ggptypes.OutputRecord, 0, r.opts.MaxSamples)

	r.logger.Info("starting batch", "game", doc.GameName, "experiment", kind,
		"samples", len(doc.Samples), "max_samples", r.opts.MaxSamples)

	for i, sample := range doc.Samples {
		if len(records) >= r.opts.MaxSamples {
			break
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, summary, err
		}

		summary.Attempted++
		r.logger.Debug("processing sample", "sample", i+1, "of", len(doc.Samples))

		outcome, err := r.dispatcher.Process(ctx, r.client, sample)
		if err != nil {
			reason := failureReason(err)
			summary.Skipped++
			summary.Failures[reason]++
			r.opts.Recorder.SampleFinished(kind.String(), reason)

			if reason == ReasonShapeMismatch {
				r.logger.Debug("skipping sample", "sample", i+1, "error", err)
			} else {
				r.logger.Warn("skipping sample", "sample", i+1, "reason", reason, "error", err)
			}
			continue
		}

		for _, warning := range outcome.Warnings {
			summary.Warnings++
			r.logger.Warn(warning, "sample", i+1)
		}
		records = append(records, outcome.Record)
		summary.Succeeded++
		r.opts.Recorder.SampleFinished(kind.String(), "success")
	}

	summary.Complete = len(records) >= r.opts.MaxSamples
	r.opts.Recorder.BatchFinished(kind.String(), summary.Complete)

	if !summary.Complete {
		r.logger.Warn("not enough successful samples, discarding run",
			"game", doc.GameName, "succeeded", summary.Succeeded, "required", r.opts.MaxSamples)
		return nil, summary, nil
	}

	r.logger.Info("batch complete", "game", doc.GameName, "summary", summary.String())
	return &ggptypes.RunResult{
		GameName:       doc.GameName,
		ModelName:      r.client.Model(),
		ExperimentKind: kind,
		Samples:        records,
	}, summary, nil
}

func failureReason(err error) string {
	var mismatch *experiment.SampleShapeMismatchError
	var missing *experiment.MissingGroundTruthError
	var failure *harness.GenerationFailure

	switch {
	case errors.As(err, &mismatch):
		return ReasonShapeMismatch
	case errors.As(err, &missing):
		return ReasonMissingGroundTruth
	case errors.As(err, &failure):
		return ReasonGenerationFailed
	default:
		return ReasonOther
	}
}
