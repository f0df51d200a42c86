package main

import (
	"os"

	"github.com/joho/godotenv"

	"ctxpick/internal/errors"
	"ctxpick/internal/logging"
)

func main() {
	// Agent CLIs inherit our environment; a repo-local .env lets users keep
	// their credentials out of the shell profile. Missing file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		logger := logging.NewLogger(logging.Config{
			Format: "human",
			Level:  "error",
		})
		logger.Error("Command execution failed", map[string]interface{}{
			"error": err.Error(),
			"code":  string(errors.CodeOf(err)),
		})
		for _, fix := range errors.FixesOf(err) {
			if fix.Command != "" {
				logger.Error("Suggested fix", map[string]interface{}{
					"description": fix.Description,
					"command":     fix.Command,
				})
			}
		}
		os.Exit(int(errors.ExitCodeFor(err)))
	}
}
