package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ctxpick/internal/gitsource"
	"ctxpick/internal/runner"
	"ctxpick/internal/storage"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the local content index",
	Long: `Index tracked file contents into a local SQLite database so content
search runs without spawning git grep. The index records the HEAD commit it
was built at; 'pick' falls back to git grep whenever the index is stale.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()
	repoRoot, err := resolveRepoRoot()
	if err != nil {
		return err
	}
	cfg := loadConfig(repoRoot)
	logger := newLogger(cfg)
	ctx := context.Background()

	run := runner.NewRealRunner(time.Duration(cfg.Source.GitTimeoutMs) * time.Millisecond)
	git := gitsource.NewGitSource(cfg, run, logger)
	if err := git.RequireAvailable(ctx); err != nil {
		return err
	}

	paths, err := git.ListPaths(ctx)
	if err != nil {
		return err
	}

	records := make([]storage.FileRecord, 0, len(paths))
	for _, path := range paths {
		records = append(records, storage.FileRecord{
			Path:    path,
			Content: git.FileContent(path),
		})
	}

	dbPath := filepath.Join(repoRoot, cfg.Index.Path)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return err
	}
	idx, err := storage.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	head := git.Head(ctx)
	if err := idx.Rebuild(ctx, head, records); err != nil {
		return err
	}

	// Persist index.enabled so the next pick uses it without extra flags.
	if !cfg.Index.Enabled {
		cfg.Index.Enabled = true
		if saveErr := cfg.Save(repoRoot); saveErr != nil {
			logger.Warn("Index built but config not updated", map[string]interface{}{
				"error": saveErr.Error(),
			})
		}
	}

	fmt.Printf("Indexed %d files at %s (%dms)\n",
		len(records), dbPath, time.Since(start).Milliseconds())
	if head != "" {
		fmt.Printf("HEAD: %s\n", head)
	}
	return nil
}
