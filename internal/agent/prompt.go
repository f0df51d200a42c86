package agent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// projectInfo is the manifest metadata embedded into agent prompts.
type projectInfo struct {
	Name        string
	Description string
}

// BuildPrompt assembles the selection request sent to an agent: the
// question, the token budget, selection criteria, and the required response
// shape. Project metadata from the repository's manifest, when present,
// gives the agent orientation without extra tool calls.
func BuildPrompt(question string, budgetTokens int, repoRoot string) string {
	var b strings.Builder

	b.WriteString("You are selecting files from a code repository to answer a question.\n\n")

	if info := readProjectInfo(repoRoot); info.Name != "" {
		fmt.Fprintf(&b, "Project: %s\n", info.Name)
		if info.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", info.Description)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\n", question)
	fmt.Fprintf(&b, "Token budget: approximately %d tokens of file content.\n\n", budgetTokens)

	b.WriteString("Selection criteria:\n")
	b.WriteString("- Prefer files directly relevant to the question (implementation over tests).\n")
	b.WriteString("- Include key documentation and manifests that give context.\n")
	b.WriteString("- Stay within the token budget; prefer fewer, more relevant files.\n")
	b.WriteString("- Use repository-relative paths of files that exist.\n\n")

	b.WriteString("Respond with a single JSON object and nothing else:\n")
	b.WriteString(`{"files": ["path/one", "path/two"], "reasoning": "why these files", "confidence": 0.0}`)
	b.WriteString("\n")

	return b.String()
}

// readProjectInfo reads name/description from the first manifest it finds.
func readProjectInfo(repoRoot string) projectInfo {
	if info, ok := readPackageJSON(filepath.Join(repoRoot, "package.json")); ok {
		return info
	}
	if info, ok := readCargoToml(filepath.Join(repoRoot, "Cargo.toml")); ok {
		return info
	}
	if info, ok := readPyprojectToml(filepath.Join(repoRoot, "pyproject.toml")); ok {
		return info
	}
	return projectInfo{}
}

func readPackageJSON(path string) (projectInfo, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return projectInfo{}, false
	}
	var manifest struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil || manifest.Name == "" {
		return projectInfo{}, false
	}
	return projectInfo{Name: manifest.Name, Description: manifest.Description}, true
}

func readCargoToml(path string) (projectInfo, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return projectInfo{}, false
	}
	var manifest struct {
		Package struct {
			Name        string `toml:"name"`
			Description string `toml:"description"`
		} `toml:"package"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil || manifest.Package.Name == "" {
		return projectInfo{}, false
	}
	return projectInfo{Name: manifest.Package.Name, Description: manifest.Package.Description}, true
}

func readPyprojectToml(path string) (projectInfo, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return projectInfo{}, false
	}
	var manifest struct {
		Project struct {
			Name        string `toml:"name"`
			Description string `toml:"description"`
		} `toml:"project"`
	}
	if err := toml.Unmarshal(data, &manifest); err != nil || manifest.Project.Name == "" {
		return projectInfo{}, false
	}
	return projectInfo{Name: manifest.Project.Name, Description: manifest.Project.Description}, true
}
