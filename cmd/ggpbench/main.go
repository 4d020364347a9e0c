// Package main provides the ggpbench CLI, which benchmarks LLMs on General Game
// Playing tasks: predicting next states, legal moves and the outcome of move sequences.
package main

import (
	"fmt"
	"os"

	"ggpbench/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	logLevel   string
	logFile    string
	configFile string
	envFile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ggpbench",
	Short: "LLM benchmark for General Game Playing descriptions",
	Long: `ggpbench asks large language models to reason about games written in the
Game Description Language and records their answers next to the ground truth.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file with run settings")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Additional .env file with API keys")

	for _, name := range []string{"log-level", "log-file"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(viper.GetString("log-level"), viper.GetString("log-file")); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}
