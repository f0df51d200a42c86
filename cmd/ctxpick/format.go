package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"ctxpick/internal/pick"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

var (
	headline  = color.New(color.FgCyan, color.Bold).SprintFunc()
	pathStyle = color.New(color.FgGreen).SprintFunc()
	dimStyle  = color.New(color.Faint).SprintFunc()
	okStyle   = color.New(color.FgGreen).SprintFunc()
	badStyle  = color.New(color.FgRed).SprintFunc()
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *pick.Result:
		return formatResultHuman(v), nil
	case *AgentsResponse:
		return formatAgentsHuman(v), nil
	default:
		// For unknown types, fall back to JSON.
		return formatJSON(resp)
	}
}

func formatResultHuman(r *pick.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", headline("Selection"), dimStyle("("+r.Source+")"))
	fmt.Fprintf(&b, "%s\n\n", dimStyle("run "+r.RunID))

	for _, f := range r.Files {
		if f.Score > 0 {
			fmt.Fprintf(&b, "  %s  %s\n", pathStyle(f.Path),
				dimStyle(fmt.Sprintf("score %.2f, ~%d tokens", f.Score, f.EstimatedTokens)))
		} else {
			fmt.Fprintf(&b, "  %s  %s\n", pathStyle(f.Path),
				dimStyle(fmt.Sprintf("~%d tokens", f.EstimatedTokens)))
		}
	}

	fmt.Fprintf(&b, "\n%d files, ~%d of %d budget tokens\n",
		len(r.Files), r.EstimatedTokens, r.BudgetTokens)

	if r.Reasoning != "" {
		fmt.Fprintf(&b, "\n%s %s\n", headline("Reasoning:"), r.Reasoning)
	}
	if r.Confidence > 0 {
		fmt.Fprintf(&b, "Confidence: %.2f\n", r.Confidence)
	}
	for _, a := range r.AgentAttempts {
		fmt.Fprintf(&b, "%s\n", dimStyle(fmt.Sprintf("agent %s failed: %s", a.Agent, a.Error)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatAgentsHuman(r *AgentsResponse) string {
	var b strings.Builder

	b.WriteString(headline("Agent chain") + "\n\n")
	for _, a := range r.Agents {
		if a.Available {
			fmt.Fprintf(&b, "  %s %-10s %s\n", okStyle("✓"), a.Name, dimStyle(a.Path))
		} else {
			fmt.Fprintf(&b, "  %s %-10s %s\n", badStyle("✗"), a.Name,
				dimStyle("install: "+a.Install))
		}
	}

	if r.AnyAvailable {
		fmt.Fprintf(&b, "\n%s\n", okStyle("At least one agent is available."))
	} else {
		fmt.Fprintf(&b, "\n%s\n", badStyle("No agents available; 'pick --agent auto' will use the ranked pipeline."))
	}

	return strings.TrimRight(b.String(), "\n")
}
