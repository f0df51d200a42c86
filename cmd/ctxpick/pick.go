package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ctxpick/internal/gitsource"
	"ctxpick/internal/packer"
	"ctxpick/internal/pick"
	"ctxpick/internal/runner"
	"ctxpick/internal/storage"
)

var (
	pickBudget   int
	pickAgent    string
	pickFloor    int
	pickOut      string
	pickManifest string
	pickCompress bool
	pickFormat   string
	pickDryRun   bool
)

var pickCmd = &cobra.Command{
	Use:   "pick <question>",
	Short: "Select the files most relevant to a question",
	Long: `Select the repository files most relevant to a natural-language question,
within a token budget.

By default the deterministic ranked pipeline runs. With --agent, selection is
delegated to a coding-agent CLI first; every agent failure advances a fallback
chain, and exhaustion falls back to the ranked pipeline:

  ctxpick pick "how does login work"
  ctxpick pick --agent auto --budget 30000 "where are websocket errors handled"
  ctxpick pick --agent claude --out context.md "explain the billing retries"

With --dry-run the selection is reported without packing file contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runPick,
}

func init() {
	pickCmd.Flags().IntVar(&pickBudget, "budget", -1, "Token budget (default: from config)")
	pickCmd.Flags().StringVar(&pickAgent, "agent", "", "Delegate selection: agent name, 'auto' for the priority chain, 'none'")
	pickCmd.Flags().IntVar(&pickFloor, "floor", -1, "Minimum number of files selected regardless of budget")
	pickCmd.Flags().StringVarP(&pickOut, "out", "o", "-", "Pack output path ('-' for stdout)")
	pickCmd.Flags().StringVar(&pickManifest, "manifest", "", "Write a YAML selection manifest to this path")
	pickCmd.Flags().BoolVar(&pickCompress, "compress", false, "zstd-compress the pack output")
	pickCmd.Flags().StringVar(&pickFormat, "format", "human", "Selection report format (json, human)")
	pickCmd.Flags().BoolVar(&pickDryRun, "dry-run", false, "Report the selection without packing file contents")
	rootCmd.AddCommand(pickCmd)
}

func runPick(cmd *cobra.Command, args []string) error {
	question := args[0]
	start := time.Now()

	repoRoot, err := resolveRepoRoot()
	if err != nil {
		return err
	}
	cfg := loadConfig(repoRoot)
	if pickFloor >= 0 {
		cfg.Selection.FloorFiles = pickFloor
	}
	logger := newLogger(cfg)
	ctx := context.Background()

	run := runner.NewRealRunner(time.Duration(cfg.Source.GitTimeoutMs) * time.Millisecond)
	git := gitsource.NewGitSource(cfg, run, logger)
	if err := git.RequireAvailable(ctx); err != nil {
		return err
	}

	// The content index, when enabled and fresh, answers content search
	// locally instead of spawning git grep.
	var source gitsource.Source = git
	if cfg.Index.Enabled {
		idx, idxErr := storage.Open(filepath.Join(repoRoot, cfg.Index.Path), logger)
		if idxErr != nil {
			logger.Warn("Content index unavailable, using git grep", map[string]interface{}{
				"error": idxErr.Error(),
			})
		} else {
			defer idx.Close()
			source = storage.NewIndexedSource(git, idx, logger)
		}
	}

	engine := pick.NewEngine(cfg, source, git.Exists, run, logger)
	result, err := engine.Pick(ctx, pick.Request{
		Question:     question,
		BudgetTokens: pickBudget,
		Agent:        pickAgent,
	})
	if err != nil {
		return err
	}

	if pickManifest != "" {
		if err := writeSelectionManifest(result, pickManifest); err != nil {
			return err
		}
	}

	if pickDryRun {
		output, err := FormatResponse(result, OutputFormat(pickFormat))
		if err != nil {
			return err
		}
		fmt.Println(output)
		return nil
	}

	// Selection report goes to stderr when the pack itself goes to stdout.
	reportOut := os.Stdout
	if pickOut == "" || pickOut == "-" {
		reportOut = os.Stderr
	}
	output, err := FormatResponse(result, OutputFormat(pickFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(reportOut, output)

	p := packer.NewPacker(source, logger)
	if err := p.Pack(result.Paths(), question, packer.Options{
		OutPath:  pickOut,
		Compress: pickCompress,
	}); err != nil {
		return err
	}

	logger.Info("Pick complete", map[string]interface{}{
		"runId":      result.RunID,
		"files":      len(result.Files),
		"tokens":     result.EstimatedTokens,
		"source":     result.Source,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return nil
}

func writeSelectionManifest(result *pick.Result, path string) error {
	m := packer.Manifest{
		RunID:           result.RunID,
		Question:        result.Question,
		Source:          result.Source,
		BudgetTokens:    result.BudgetTokens,
		EstimatedTokens: result.EstimatedTokens,
	}
	for _, f := range result.Files {
		m.Files = append(m.Files, packer.ManifestFile{
			Path:            f.Path,
			Score:           f.Score,
			EstimatedTokens: f.EstimatedTokens,
		})
	}
	return packer.WriteManifest(m, path)
}
