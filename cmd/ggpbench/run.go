package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ggpbench/internal/campaign"
	"ggpbench/internal/config"
	"ggpbench/internal/logger"
	"ggpbench/internal/metrics"
	"ggpbench/internal/providers"
	"ggpbench/internal/version"

	"github.com/spf13/cobra"
)

// runCmd runs one experiment over every selected game
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment over a directory of sample files",
	Long: `Run one experiment with one provider and model over every sample file in
--samples-dir. A game's result is written only when --max-samples samples succeed.
Games that already have a result for the experiment and model are skipped.`,
	Example: `  ggpbench run --provider cerebras --model llama-3.3-70b \
    --experiment multi_step_prediction --n-moves 5 \
    --samples-dir data/samples --gdl-dir data/gdl`,
	Args: cobra.NoArgs,
	RunE: runCampaign,
}

func init() {
	config.RegisterFlags(runCmd.Flags())
}

func runCampaign(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(cmd.Flags(), configFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	env, err := config.LoadDotEnv(envFile)
	if err != nil {
		return err
	}

	catalog, err := providers.LoadCatalog()
	if err != nil {
		return err
	}
	entry, err := catalog.Lookup(cfg.Provider)
	if err != nil {
		return err
	}
	entry = cfg.ApplyTo(entry)

	recorder := metrics.NewRecorder()
	client, err := providers.NewClient(entry, cfg.Model, cfg.Credentials(entry, env), recorder)
	if err != nil {
		return err
	}

	c, err := campaign.New(client, campaign.Options{
		Experiment:  cfg.Experiment,
		Steps:       cfg.Steps(),
		MaxSamples:  cfg.MaxSamples,
		SamplesDir:  cfg.SamplesDir,
		GDLDir:      cfg.GDLDir,
		OutputRoot:  cfg.ResolvedOutputRoot(),
		Reverse:     cfg.Reverse,
		TargetGames: cfg.TargetGames(),
		SamplePause: cfg.SamplePause,
		GamePause:   cfg.GamePause,
		Recorder:    recorder,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting ggpbench", "version", version.Short(), "dev", version.IsDevelopment(), "provider", entry.ID,
		"keys", client.Rotator().Size(), "credential", client.Rotator().Current())

	report, runErr := c.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("Failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
	if report != nil {
		printReport(cmd, report)
	}
	return runErr
}

func printReport(cmd *cobra.Command, report *campaign.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s finished in %s\n", report.RunID, report.Finished.Sub(report.Started).Round(time.Millisecond))
	for _, g := range report.Games {
		switch g.Status {
		case campaign.StatusSaved:
			fmt.Fprintf(out, "  %-28s saved     %s\n", g.Game, g.OutputPath)
		case campaign.StatusDiscarded:
			fmt.Fprintf(out, "  %-28s discarded %s\n", g.Game, g.Summary)
		case campaign.StatusNotTargeted:
		default:
			fmt.Fprintf(out, "  %-28s %s\n", g.Game, g.Status)
		}
	}
	fmt.Fprintf(out, "%d saved, %d discarded\n", report.Count(campaign.StatusSaved), report.Count(campaign.StatusDiscarded))
}
