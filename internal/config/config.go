// Package config holds the ctxpick configuration schema.
//
// All tuning knobs of the pipeline — stopwords, ignore patterns,
// always-include patterns, scoring weights, the selection floor — live in
// one immutable Config that is passed into each component's constructor.
// Tests swap in alternate configurations without touching shared state.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete ctxpick configuration (v1 schema)
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Keywords  KeywordsConfig  `json:"keywords" mapstructure:"keywords"`
	Source    SourceConfig    `json:"source" mapstructure:"source"`
	Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
	Scoring   ScoringConfig   `json:"scoring" mapstructure:"scoring"`
	Selection SelectionConfig `json:"selection" mapstructure:"selection"`
	Agents    AgentsConfig    `json:"agents" mapstructure:"agents"`
	Index     IndexConfig     `json:"index" mapstructure:"index"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// KeywordsConfig controls keyword extraction from the question.
type KeywordsConfig struct {
	MinLength int      `json:"minLength" mapstructure:"minLength"`
	Stopwords []string `json:"stopwords" mapstructure:"stopwords"`
}

// SourceConfig controls the git candidate source.
type SourceConfig struct {
	// IgnoreDirs are path segments excluded from the in-scope list.
	IgnoreDirs []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`
	// GeneratedSuffixes exclude known-generated files (minified, maps, declarations).
	GeneratedSuffixes []string `json:"generatedSuffixes" mapstructure:"generatedSuffixes"`
	// GitTimeoutMs bounds each git subprocess call.
	GitTimeoutMs int `json:"gitTimeoutMs" mapstructure:"gitTimeoutMs"`
}

// DiscoveryConfig controls candidate discovery.
type DiscoveryConfig struct {
	// AlwaysInclude patterns select docs/manifests/config regardless of keywords.
	AlwaysInclude []string `json:"alwaysInclude" mapstructure:"alwaysInclude"`
}

// Weights are the signal weights of the composite relevance score.
type Weights struct {
	Filename    float64 `json:"filename" mapstructure:"filename"`
	Content     float64 `json:"content" mapstructure:"content"`
	Recency     float64 `json:"recency" mapstructure:"recency"`
	SizePenalty float64 `json:"sizePenalty" mapstructure:"sizePenalty"`
	TypeBonus   float64 `json:"typeBonus" mapstructure:"typeBonus"`
}

// ScoringConfig controls the relevance scorer.
type ScoringConfig struct {
	Weights Weights `json:"weights" mapstructure:"weights"`
	// TokensPerChar is the heuristic characters-per-token ratio for estimates.
	TokensPerChar float64 `json:"tokensPerChar" mapstructure:"tokensPerChar"`
	// BonusExtensions get the type bonus applied.
	BonusExtensions []string `json:"bonusExtensions" mapstructure:"bonusExtensions"`
}

// SelectionConfig controls the budget selector.
type SelectionConfig struct {
	// FloorFiles is the minimum number of files admitted regardless of budget.
	FloorFiles int `json:"floorFiles" mapstructure:"floorFiles"`
	// DefaultBudgetTokens is used when the caller passes no budget.
	DefaultBudgetTokens int `json:"defaultBudgetTokens" mapstructure:"defaultBudgetTokens"`
}

// AgentsConfig controls agent delegation.
type AgentsConfig struct {
	// Priority is the fallback chain tried in order for auto-selection.
	Priority []string `json:"priority" mapstructure:"priority"`
	// TimeoutMs bounds each agent CLI invocation.
	TimeoutMs int `json:"timeoutMs" mapstructure:"timeoutMs"`
}

// IndexConfig controls the optional SQLite content index.
type IndexConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Keywords: KeywordsConfig{
			MinLength: 3,
			Stopwords: defaultStopwords(),
		},
		Source: SourceConfig{
			IgnoreDirs: []string{
				"node_modules", "vendor", ".git", "dist", "build", "target",
				"out", ".next", "__pycache__", ".venv", "coverage", ".dart_tool",
			},
			GeneratedSuffixes: []string{".min.js", ".min.css", ".map", ".d.ts"},
			GitTimeoutMs:      5000,
		},
		Discovery: DiscoveryConfig{
			AlwaysInclude: defaultAlwaysInclude(),
		},
		Scoring: ScoringConfig{
			Weights: Weights{
				Filename:    3.0,
				Content:     2.0,
				Recency:     1.0,
				SizePenalty: 0.5,
				TypeBonus:   0.2,
			},
			TokensPerChar:   3.7,
			BonusExtensions: defaultBonusExtensions(),
		},
		Selection: SelectionConfig{
			FloorFiles:          8,
			DefaultBudgetTokens: 50000,
		},
		Agents: AgentsConfig{
			Priority:  []string{"claude", "codex", "gemini", "opencode", "factory"},
			TimeoutMs: 120000,
		},
		Index: IndexConfig{
			Enabled: false,
			Path:    ".ctxpick/index.db",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

func defaultStopwords() []string {
	return []string{
		"the", "and", "for", "are", "but", "not", "you", "all", "can",
		"had", "her", "was", "one", "our", "out", "has", "have", "what",
		"where", "when", "which", "with", "this", "that", "these", "those",
		"how", "why", "who", "does", "did", "will", "would", "could",
		"should", "about", "into", "from", "they", "them", "then", "than",
		"there", "here", "been", "being", "some", "such", "its", "also",
		"any", "may", "use", "used", "using", "show", "find", "give",
		"please", "need", "want", "like", "make", "just", "get", "way",
		"work", "works", "working", "explain", "tell", "know",
	}
}

func defaultAlwaysInclude() []string {
	return []string{
		"README*", "CHANGELOG*", "LICENSE*", "CONTRIBUTING*",
		"docs/*", "doc/*", "*/docs/*",
		"package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
		"go.mod", "go.sum",
		"Cargo.toml", "Cargo.lock",
		"pyproject.toml", "requirements.txt", "setup.py", "Pipfile",
		"Gemfile", "Gemfile.lock",
		"composer.json", "composer.lock",
		"pom.xml", "build.gradle", "build.gradle.kts",
		"tsconfig.json", "jsconfig.json",
		".eslintrc*", ".prettierrc*", ".editorconfig", ".babelrc*",
		"Dockerfile", "docker-compose.yml", "docker-compose.yaml",
		"Makefile", "Justfile",
		".env.example", ".gitignore", ".env",
	}
}

func defaultBonusExtensions() []string {
	return []string{
		".go", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs",
		".py", ".rb", ".rs", ".java", ".kt", ".swift", ".scala",
		".c", ".h", ".cpp", ".hpp", ".cs", ".php",
		".sh", ".bash", ".sql",
		".md", ".rst", ".txt",
		".json", ".yaml", ".yml", ".toml", ".ini",
		".html", ".css", ".scss", ".vue", ".svelte",
	}
}

// Load reads configuration from .ctxpick.json under repoRoot, overlaying
// the defaults. A missing config file yields the defaults unchanged.
func Load(repoRoot string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.RepoRoot = repoRoot

	v := viper.New()
	v.SetConfigName(".ctxpick")
	v.SetConfigType("json")
	v.AddConfigPath(repoRoot)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if cfg.RepoRoot == "" || cfg.RepoRoot == "." {
		cfg.RepoRoot = repoRoot
	}
	return cfg, nil
}

// Save writes the configuration to .ctxpick.json under repoRoot.
func (c *Config) Save(repoRoot string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(repoRoot, ".ctxpick.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Scoring.TokensPerChar <= 0 {
		return &ConfigError{Field: "scoring.tokensPerChar", Message: "must be positive"}
	}
	if c.Selection.FloorFiles < 0 {
		return &ConfigError{Field: "selection.floorFiles", Message: "must be non-negative"}
	}
	if c.Keywords.MinLength < 1 {
		return &ConfigError{Field: "keywords.minLength", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
