// Package campaign runs one experiment across a directory of sample files, one
// batch per game, and writes each complete result next to the others of the
// same experiment and model.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"ggpbench/internal/batch"
	"ggpbench/internal/experiment"
	"ggpbench/internal/harness"
	"ggpbench/internal/logger"
	"ggpbench/internal/metrics"
	"ggpbench/pkg/ggptypes"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// GameStatus is what happened to one sample file.
type GameStatus string

// Game statuses.
const (
	StatusSaved             GameStatus = "saved"
	StatusDiscarded         GameStatus = "discarded"
	StatusExisting          GameStatus = "skipped_existing"
	StatusNotTargeted       GameStatus = "skipped_not_targeted"
	StatusMissingDefinition GameStatus = "missing_definition"
	StatusUnreadable        GameStatus = "unreadable"
	StatusInvalidName       GameStatus = "invalid_game_name"
	StatusWriteFailed       GameStatus = "write_failed"
)

// Options configure a campaign.
type Options struct {
	Experiment ggptypes.ExperimentKind
	Steps      int
	MaxSamples int

	SamplesDir string
	GDLDir     string
	// OutputRoot defaults to the parent of SamplesDir.
	OutputRoot string
	Reverse    bool
	// TargetGames restricts the games processed. Nil processes every game.
	TargetGames []string

	// SamplePause and GamePause are the minimum spacing between samples and
	// between games that reach a provider. Zero or negative GamePause disables it.
	SamplePause time.Duration
	GamePause   time.Duration

	Recorder *metrics.Recorder

	// Now and NewRunID default to time.Now and uuid.NewString.
	Now      func() time.Time
	NewRunID func() string
}

// GameReport describes the handling of one sample file.
type GameReport struct {
	File       string
	Game       string
	Status     GameStatus
	OutputPath string
	Summary    batch.Summary
	Err        error
}

// Report describes a whole campaign.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Games    []GameReport
}

// Count returns the number of games with status.
func (r *Report) Count(status GameStatus) int {
	n := 0
	for _, g := range r.Games {
		if g.Status == status {
			n++
		}
	}
	return n
}

// Campaign runs one experiment with one client over every selected game.
type Campaign struct {
	client  *harness.Client
	opts    Options
	limiter *rate.Limiter
	logger  *log.Logger
}

// New validates opts and creates a Campaign.
func New(client *harness.Client, opts Options) (*Campaign, error) {
	if client == nil {
		return nil, errors.New("campaign needs a client")
	}
	if !opts.Experiment.Valid() {
		return nil, &experiment.ConfigurationError{Kind: opts.Experiment, Reason: "unknown experiment kind"}
	}
	if opts.Experiment.RequiresSteps() && opts.Steps < 1 {
		return nil, &experiment.ConfigurationError{Kind: opts.Experiment, Reason: "a positive number of moves (N) is required"}
	}
	if opts.MaxSamples < 1 {
		return nil, &experiment.ConfigurationError{Kind: opts.Experiment, Reason: "max samples must be positive"}
	}
	if opts.SamplesDir == "" || opts.GDLDir == "" {
		return nil, errors.New("samples and GDL directories are required")
	}
	if opts.OutputRoot == "" {
		opts.OutputRoot = filepath.Dir(filepath.Clean(opts.SamplesDir))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}

	return &Campaign{
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.GamePause), 1),
		logger:  logger.NewStyledLogger("campaign"),
	}, nil
}

// OutputDir is where this campaign writes its results.
func (c *Campaign) OutputDir() string {
	return OutputDir(c.opts.OutputRoot, c.opts.Experiment, c.opts.Steps, c.client.Model())
}

// Run processes every sample file in order. Per-game problems are recorded in the
// report and never stop the campaign; only context cancellation and an unreadable
// samples directory are returned as errors.
func (c *Campaign) Run(ctx context.Context) (*Report, error) {
	report := &Report{RunID: c.opts.NewRunID(), Started: c.opts.Now()}
	defer func() { report.Finished = c.opts.Now() }()

	files, err := ScanSamples(c.opts.SamplesDir, c.opts.Reverse)
	if err != nil {
		return report, err
	}

	c.logger.Info("starting campaign", "run_id", report.RunID, "provider", c.client.Provider(),
		"model", c.client.Model(), "experiment", ExperimentDir(c.opts.Experiment, c.opts.Steps),
		"files", len(files), "output", c.OutputDir())

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		game, doc, status, err := c.prepare(file)
		if status != "" {
			report.Games = append(report.Games, GameReport{File: file, Game: game, Status: status, Err: err})
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return report, err
		}

		gameReport, err := c.runGame(ctx, file, doc)
		report.Games = append(report.Games, gameReport)
		if err != nil {
			return report, err
		}
	}

	c.logger.Info("campaign finished", "run_id", report.RunID,
		"saved", report.Count(StatusSaved), "discarded", report.Count(StatusDiscarded),
		"skipped", len(report.Games)-report.Count(StatusSaved)-report.Count(StatusDiscarded))
	return report, nil
}

// prepare loads file and decides whether its game should run. A non-empty status
// means the game is skipped.
func (c *Campaign) prepare(file string) (string, *gameInput, GameStatus, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		c.logger.Warn("cannot read samples file", "file", file, "error", err)
		return "", nil, StatusUnreadable, err
	}
	doc, err := ggptypes.DecodeInputDocument(data)
	if err != nil {
		c.logger.Warn("cannot parse samples file", "file", file, "error", err)
		return "", nil, StatusUnreadable, err
	}
	game := doc.GameName
	if err := CheckGameName(game); err != nil {
		c.logger.Warn("skipping samples file", "file", file, "error", err)
		return game, nil, StatusInvalidName, err
	}

	if c.opts.TargetGames != nil && !slices.Contains(c.opts.TargetGames, game) {
		c.logger.Debug("game not targeted", "game", game)
		return game, nil, StatusNotTargeted, nil
	}

	exists, err := HasOutput(c.OutputDir(), game)
	if err != nil {
		c.logger.Warn("cannot inspect output directory", "game", game, "error", err)
		return game, nil, StatusWriteFailed, err
	}
	if exists {
		c.logger.Info("output already exists, skipping", "game", game)
		return game, nil, StatusExisting, nil
	}

	_, definition, err := FindDefinition(c.opts.GDLDir, game)
	if err != nil {
		c.logger.Warn("skipping game", "game", game, "error", err)
		return game, nil, StatusMissingDefinition, err
	}

	return game, &gameInput{doc: doc, definition: definition}, "", nil
}

type gameInput struct {
	doc        *ggptypes.InputDocument
	definition string
}

func (c *Campaign) runGame(ctx context.Context, file string, in *gameInput) (GameReport, error) {
	game := in.doc.GameName
	gameReport := GameReport{File: file, Game: game}

	dispatcher, err := experiment.New(c.opts.Experiment, in.definition, c.opts.Steps)
	if err != nil {
		// Only an empty definition file gets here; options were validated in New.
		c.logger.Warn("skipping game", "game", game, "error", err)
		gameReport.Status = StatusMissingDefinition
		gameReport.Err = err
		return gameReport, nil
	}

	runner, err := batch.New(dispatcher, c.client, batch.Options{
		MaxSamples: c.opts.MaxSamples,
		Pause:      c.opts.SamplePause,
		Recorder:   c.opts.Recorder,
	})
	if err != nil {
		return gameReport, err
	}

	c.logger.Info("processing game", "game", game, "samples", len(in.doc.Samples))
	result, summary, err := runner.Run(ctx, in.doc)
	gameReport.Summary = summary
	if err != nil {
		gameReport.Status = StatusDiscarded
		gameReport.Err = err
		return gameReport, err
	}
	if result == nil {
		gameReport.Status = StatusDiscarded
		return gameReport, nil
	}

	path := filepath.Join(c.OutputDir(), OutputFile(game, c.opts.Now()))
	if err := batch.WriteResult(path, result); err != nil {
		c.logger.Error("failed to write result", "game", game, "path", path, "error", err)
		gameReport.Status = StatusWriteFailed
		gameReport.Err = fmt.Errorf("write %s: %w", path, err)
		return gameReport, nil
	}

	c.logger.Info("saved result", "game", game, "path", path, "records", len(result.Samples))
	gameReport.Status = StatusSaved
	gameReport.OutputPath = path
	return gameReport, nil
}
