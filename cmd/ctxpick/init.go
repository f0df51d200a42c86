package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ctxpick/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .ctxpick.json",
	Long:  "Creates a .ctxpick.json with the default configuration in the repository root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing .ctxpick.json")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	repoRoot, err := resolveRepoRoot()
	if err != nil {
		return err
	}

	configPath := filepath.Join(repoRoot, ".ctxpick.json")
	if _, statErr := os.Stat(configPath); statErr == nil && !initForce {
		// Idempotent: already initialized is success (CI-friendly).
		fmt.Println("ctxpick already initialized.")
		fmt.Printf("Configuration at: %s\n", configPath)
		fmt.Println("\nRun 'ctxpick init --force' to overwrite.")
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.RepoRoot = "."
	if err := cfg.Save(repoRoot); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", configPath)
	return nil
}
