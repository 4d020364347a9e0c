// Package config resolves ggpbench run settings from command line flags, GGPBENCH_*
// environment variables, an optional YAML config file and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ggpbench/internal/experiment"
	"ggpbench/internal/providers"
	"ggpbench/pkg/ggptypes"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. GGPBENCH_MAX_SAMPLES.
const EnvPrefix = "GGPBENCH"

// Setting keys. Flag names and config file keys are the same.
const (
	KeyProvider    = "provider"
	KeyModel       = "model"
	KeyAPIKey      = "api-key"
	KeyExperiment  = "experiment"
	KeyNMoves      = "n-moves"
	KeyMaxSamples  = "max-samples"
	KeyMaxAttempts = "max-attempts"
	KeySamplesDir  = "samples-dir"
	KeyGDLDir      = "gdl-dir"
	KeyOutputRoot  = "output-root"
	KeyReverse     = "reverse"
	KeyAllGames    = "all-games"
	KeyGames       = "games"
	KeySamplePause = "sample-pause"
	KeyGamePause   = "game-pause"
	KeyMetricsFile = "metrics-file"
)

// Defaults.
const (
	DefaultProvider    = "cerebras"
	DefaultMaxSamples  = 25
	DefaultSamplePause = 100 * time.Millisecond
	DefaultGamePause   = 2 * time.Second
)

// DefaultTargetGames is the benchmark's game list. Samples for other games are
// ignored unless --all-games or --games is given.
var DefaultTargetGames = []string{
	"mummymaze2p", "wallmaze", "platformJumpers", "pacman3p", "snake_2009_big",
	"bomberman2p_InvertedRoles", "bomberman2p", "battlebrushes", "checkers",
	"checkers-mustjump", "cittaceot", "rubikscube", "god", "beatMania", "farmers",
	"qyshinsu", "snakeAssemblit", "rendezvous_asteroids", "ticTacToeLargeSuicide",
	"ticTacToeLarge", "dotsAndBoxesSuicide", "buttons", "dotsAndBoxes",
	"chineseCheckers3", "pawnWhopping", "connectfour", "connectFourSuicide",
	"checkersTiny", "othello-comp2007", "othellosuicide", "chess", "checkersSmall",
	"fighter", "1reversi2", "checkers-newgoals",
}

// Config is the resolved configuration of one `ggpbench run`.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	Experiment  ggptypes.ExperimentKind
	NMoves      int
	MaxSamples  int
	MaxAttempts int
	SamplesDir  string
	GDLDir      string
	OutputRoot  string
	Reverse     bool
	AllGames    bool
	Games       []string
	SamplePause time.Duration
	GamePause   time.Duration
	MetricsFile string
}

// RegisterFlags adds the run flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyProvider, DefaultProvider, "LLM provider (see: ggpbench providers)")
	fs.String(KeyModel, "", "Model name (required)")
	fs.String(KeyAPIKey, "", "API key (optional if set in the environment)")
	fs.String(KeyExperiment, "", "Experiment: "+kindList())
	fs.Int(KeyNMoves, 0, "Number of moves to predict or generate (multi-step experiments)")
	fs.Int(KeyMaxSamples, DefaultMaxSamples, "Successful samples required per game")
	fs.Int(KeyMaxAttempts, 0, "Attempts per sample [default: provider setting]")
	fs.String(KeySamplesDir, "", "Directory containing input JSON samples")
	fs.String(KeyGDLDir, "", "Directory containing GDL (.kif/.gdl) files")
	fs.String(KeyOutputRoot, "", "Output root [default: parent of samples dir]")
	fs.Bool(KeyReverse, false, "Process sample files in reverse alphabetical order")
	fs.Bool(KeyAllGames, false, "Process every game, not only the target list")
	fs.StringSlice(KeyGames, nil, "Comma separated games to process instead of the target list")
	fs.Duration(KeySamplePause, DefaultSamplePause, "Pause between samples")
	fs.Duration(KeyGamePause, DefaultGamePause, "Pause between games")
	fs.String(KeyMetricsFile, "", "Write Prometheus metrics to this file after the run")
}

// NewViper returns a viper instance bound to fs, the GGPBENCH_* environment and,
// when configFile is set, a YAML config file.
func NewViper(fs *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load builds a Config from v. It does not validate.
func Load(v *viper.Viper) (*Config, error) {
	kind := ggptypes.ExperimentKind("")
	if name := v.GetString(KeyExperiment); name != "" {
		parsed, err := ggptypes.ParseExperimentKind(name)
		if err != nil {
			return nil, err
		}
		kind = parsed
	}

	return &Config{
		Provider:    strings.ToLower(strings.TrimSpace(v.GetString(KeyProvider))),
		Model:       strings.TrimSpace(v.GetString(KeyModel)),
		APIKey:      strings.TrimSpace(v.GetString(KeyAPIKey)),
		Experiment:  kind,
		NMoves:      v.GetInt(KeyNMoves),
		MaxSamples:  v.GetInt(KeyMaxSamples),
		MaxAttempts: v.GetInt(KeyMaxAttempts),
		SamplesDir:  v.GetString(KeySamplesDir),
		GDLDir:      v.GetString(KeyGDLDir),
		OutputRoot:  v.GetString(KeyOutputRoot),
		Reverse:     v.GetBool(KeyReverse),
		AllGames:    v.GetBool(KeyAllGames),
		Games:       v.GetStringSlice(KeyGames),
		SamplePause: v.GetDuration(KeySamplePause),
		GamePause:   v.GetDuration(KeyGamePause),
		MetricsFile: v.GetString(KeyMetricsFile),
	}, nil
}

// Validate checks the settings a run cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("--model is required"))
	}
	if c.SamplesDir == "" {
		errs = append(errs, errors.New("--samples-dir is required"))
	}
	if c.GDLDir == "" {
		errs = append(errs, errors.New("--gdl-dir is required"))
	}
	if c.MaxSamples < 1 {
		errs = append(errs, fmt.Errorf("--max-samples must be positive, got %d", c.MaxSamples))
	}
	if c.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("--max-attempts must not be negative, got %d", c.MaxAttempts))
	}

	switch {
	case c.Experiment == "":
		errs = append(errs, fmt.Errorf("--experiment is required (%s)", kindList()))
	case c.Experiment.RequiresSteps() && c.NMoves < 1:
		errs = append(errs, &experiment.ConfigurationError{
			Kind:   c.Experiment,
			Reason: "--n-moves must be a positive integer",
		})
	}
	return errors.Join(errs...)
}

// Steps returns N for multi-step experiments and 0 otherwise.
func (c *Config) Steps() int {
	if c.Experiment.RequiresSteps() {
		return c.NMoves
	}
	return 0
}

// TargetGames returns the games to process, or nil when every game is processed.
func (c *Config) TargetGames() []string {
	if c.AllGames {
		return nil
	}
	if len(c.Games) > 0 {
		return c.Games
	}
	return DefaultTargetGames
}

// ResolvedOutputRoot returns OutputRoot, defaulting to the parent of SamplesDir.
func (c *Config) ResolvedOutputRoot() string {
	if c.OutputRoot != "" {
		return c.OutputRoot
	}
	return filepath.Dir(filepath.Clean(c.SamplesDir))
}

// Credentials resolves the key pool for entry: the provider's key list variable,
// then --api-key, then the provider's single key variables.
func (c *Config) Credentials(entry providers.Entry, env Env) []string {
	return entry.ResolveKeys(c.APIKey, env.Getenv)
}

// ApplyTo returns entry with the run's overrides applied.
func (c *Config) ApplyTo(entry providers.Entry) providers.Entry {
	if c.MaxAttempts > 0 {
		entry.Retry.MaxAttempts = c.MaxAttempts
	}
	return entry
}

// Env is a variable lookup over the process environment with .env file values
// as a fallback. The process environment always wins.
type Env map[string]string

// Getenv returns the process value of key, or the .env value when unset.
func (e Env) Getenv(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return e[key]
}

// LoadDotEnv reads .env from the working directory, when present, followed by
// extra files. Later files override earlier ones. A missing extra file is an error.
func LoadDotEnv(extra ...string) (Env, error) {
	env := Env{}

	if _, err := os.Stat(".env"); err == nil {
		if err := env.load(".env"); err != nil {
			return nil, err
		}
	}
	for _, path := range extra {
		if path == "" {
			continue
		}
		if err := env.load(path); err != nil {
			return nil, err
		}
	}
	return env, nil
}

func (e Env) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read .env file %s: %w", path, err)
	}
	values, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse .env file %s: %w", path, err)
	}
	for key, value := range values {
		e[key] = value
	}
	return nil
}

func kindList() string {
	kinds := ggptypes.AllExperimentKinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}
