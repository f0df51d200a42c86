// Package packer renders a final selection into an LLM-ready context file.
package packer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"ctxpick/internal/errors"
	"ctxpick/internal/gitsource"
	"ctxpick/internal/logging"
)

// Options controls where and how the pack is written.
type Options struct {
	// OutPath is the output file; "" or "-" writes to stdout.
	OutPath string
	// Compress writes zstd-compressed output (and appends .zst to OutPath).
	Compress bool
}

// Packer renders selected files with their content into one document.
type Packer struct {
	source gitsource.Source
	logger *logging.Logger
}

// NewPacker creates a packer reading file contents from source.
func NewPacker(source gitsource.Source, logger *logging.Logger) *Packer {
	return &Packer{source: source, logger: logger}
}

// Pack writes the ordered selection as a markdown document: a preamble with
// the original question, then one fenced section per file. Files that became
// unreadable since selection are rendered as an explicit omission note
// rather than failing the whole pack.
func (p *Packer) Pack(paths []string, question string, opts Options) error {
	if len(paths) == 0 {
		return errors.New(errors.InternalError, "refusing to pack an empty selection", nil)
	}

	out, closeOut, err := p.openOutput(opts)
	if err != nil {
		return err
	}

	if err := p.render(out, paths, question); err != nil {
		_ = closeOut()
		return errors.New(errors.PackerFailure, "failed to write pack output", err)
	}
	if err := closeOut(); err != nil {
		return errors.New(errors.PackerFailure, "failed to finalize pack output", err)
	}

	p.logger.Info("pack written", map[string]interface{}{
		"files":      len(paths),
		"out":        displayPath(opts),
		"compressed": opts.Compress,
	})
	return nil
}

func (p *Packer) openOutput(opts Options) (io.Writer, func() error, error) {
	var base io.WriteCloser
	if opts.OutPath == "" || opts.OutPath == "-" {
		base = os.Stdout
	} else {
		path := opts.OutPath
		if opts.Compress && !strings.HasSuffix(path, ".zst") {
			path += ".zst"
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, errors.New(errors.PackerFailure, "failed to create output file", err)
		}
		base = f
	}

	if !opts.Compress {
		return base, func() error {
			if base == os.Stdout {
				return nil
			}
			return base.Close()
		}, nil
	}

	zw, err := zstd.NewWriter(base)
	if err != nil {
		if base != os.Stdout {
			_ = base.Close()
		}
		return nil, nil, errors.New(errors.PackerFailure, "failed to initialize zstd writer", err)
	}
	return zw, func() error {
		if err := zw.Close(); err != nil {
			return err
		}
		if base == os.Stdout {
			return nil
		}
		return base.Close()
	}, nil
}

func (p *Packer) render(w io.Writer, paths []string, question string) error {
	if _, err := fmt.Fprintf(w, "# Repository context\n\nQuestion: %s\n\nSelected files: %d\n\n", question, len(paths)); err != nil {
		return err
	}
	for _, path := range paths {
		content := p.source.FileContent(path)
		if content == "" {
			if _, err := fmt.Fprintf(w, "## %s\n\n_(unreadable, omitted)_\n\n", path); err != nil {
				return err
			}
			continue
		}
		fence := fenceFor(content)
		body := strings.TrimRight(content, "\n")
		if _, err := fmt.Fprintf(w, "## %s\n\n%s%s\n%s\n%s\n\n",
			path, fence, languageHint(path), body, fence); err != nil {
			return err
		}
	}
	return nil
}

// fenceFor picks a fence longer than any backtick run in the content.
func fenceFor(content string) string {
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	return fence
}

func languageHint(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".py":
		return "python"
	case ".rb":
		return "ruby"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	case ".sh", ".bash":
		return "bash"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	case ".md":
		return "markdown"
	case ".sql":
		return "sql"
	case ".html":
		return "html"
	case ".css", ".scss":
		return "css"
	default:
		return ""
	}
}

func displayPath(opts Options) string {
	if opts.OutPath == "" || opts.OutPath == "-" {
		return "stdout"
	}
	if opts.Compress && !strings.HasSuffix(opts.OutPath, ".zst") {
		return opts.OutPath + ".zst"
	}
	return opts.OutPath
}

// ManifestFile is one selection entry in the manifest.
type ManifestFile struct {
	Path            string  `yaml:"path"`
	Score           float64 `yaml:"score,omitempty"`
	EstimatedTokens int     `yaml:"estimatedTokens"`
}

// Manifest records what was selected and why, for audit and tooling.
type Manifest struct {
	RunID           string         `yaml:"runId"`
	Question        string         `yaml:"question"`
	Source          string         `yaml:"source"`
	GeneratedAt     string         `yaml:"generatedAt"`
	BudgetTokens    int            `yaml:"budgetTokens"`
	EstimatedTokens int            `yaml:"estimatedTokens"`
	Files           []ManifestFile `yaml:"files"`
}

// WriteManifest writes the selection manifest as YAML.
func WriteManifest(m Manifest, path string) error {
	if m.GeneratedAt == "" {
		m.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.New(errors.PackerFailure, "failed to marshal manifest", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.PackerFailure, "failed to write manifest", err)
	}
	return nil
}
