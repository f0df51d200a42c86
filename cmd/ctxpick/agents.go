package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ctxpick/internal/agent"
	"ctxpick/internal/errors"
	"ctxpick/internal/runner"
)

var agentsFormat string

// AgentStatus is one row of the availability report.
type AgentStatus struct {
	Name      string `json:"name"`
	Binary    string `json:"binary"`
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Install   string `json:"install,omitempty"`
}

// AgentsResponse is the full availability report.
type AgentsResponse struct {
	Agents       []AgentStatus `json:"agents"`
	AnyAvailable bool          `json:"anyAvailable"`
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Report availability of the agent fallback chain",
	Long: `Check which coding-agent CLIs are installed, in the priority order
'pick --agent auto' would try them. Exits non-zero when none are available.`,
	RunE: runAgents,
}

func init() {
	agentsCmd.Flags().StringVar(&agentsFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	repoRoot, err := resolveRepoRoot()
	if err != nil {
		return err
	}
	cfg := loadConfig(repoRoot)

	run := runner.NewRealRunner(5 * time.Second)
	defs := agent.Known()

	resp := &AgentsResponse{}
	for _, name := range cfg.Agents.Priority {
		def, ok := defs[name]
		if !ok {
			continue
		}
		status := AgentStatus{Name: name, Binary: def.Binary}
		if path, lookErr := run.LookPath(def.Binary); lookErr == nil {
			status.Available = true
			status.Path = path
			resp.AnyAvailable = true
		} else {
			status.Install = errors.InstallAgentFix(name).Command
		}
		resp.Agents = append(resp.Agents, status)
	}

	output, err := FormatResponse(resp, OutputFormat(agentsFormat))
	if err != nil {
		return err
	}
	fmt.Println(output)

	if !resp.AnyAvailable {
		os.Exit(1)
	}
	return nil
}
