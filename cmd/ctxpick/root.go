package main

import (
	"os"

	"github.com/spf13/cobra"

	"ctxpick/internal/config"
	"ctxpick/internal/logging"
	"ctxpick/internal/version"
)

var (
	// repoFlag is the CLI --repo flag value
	repoFlag string
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
	// logFormatFlag is the CLI --log-format flag value
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ctxpick",
	Short: "ctxpick - relevance-ranked context selection",
	Long: `ctxpick answers "which files should an LLM read to answer this question?"
It extracts keywords from a natural-language question, discovers candidates in a
git repository, scores them on filename, content, recency and size signals, and
selects a budget-bounded set. Installed coding-agent CLIs can be delegated to,
with the ranked pipeline as deterministic fallback.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("ctxpick version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "",
		"Repository root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "",
		"Log format: json, human")
}

// resolveRepoRoot determines the repository root from the CLI flag or cwd.
func resolveRepoRoot() (string, error) {
	if repoFlag != "" {
		return repoFlag, nil
	}
	return os.Getwd()
}

// loadConfig loads the repo's .ctxpick.json overlaid on defaults, then
// applies CLI logging overrides. Precedence: CLI flag > config file > default.
func loadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		cfg = config.DefaultConfig()
		cfg.RepoRoot = repoRoot
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}
	return cfg
}

// newLogger builds the process logger from the resolved configuration.
func newLogger(cfg *config.Config) *logging.Logger {
	format := logging.Format(cfg.Logging.Format)
	if format != logging.JSONFormat {
		format = logging.HumanFormat
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}
