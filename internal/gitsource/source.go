// Package gitsource implements the candidate source over a git work tree.
//
// It supplies the in-scope path list (pre-filtered of vendor, build, and
// generated files), keyword content search, and per-file size, content, and
// last-modification reads. Git query failures degrade to empty results
// rather than aborting: a missing commit history should not block selection.
package gitsource

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ctxpick/internal/config"
	"ctxpick/internal/errors"
	"ctxpick/internal/logging"
	"ctxpick/internal/runner"
)

// Source is the narrow collaborator interface the pipeline consumes.
type Source interface {
	// ListPaths returns all in-scope repository-relative paths,
	// already filtered of ignored directories and generated suffixes.
	ListPaths(ctx context.Context) ([]string, error)

	// SearchContent returns the set of paths whose content matches any
	// keyword, case-insensitively. One call covers the whole keyword set.
	SearchContent(ctx context.Context, keywords []string) (map[string]struct{}, error)

	// FileSize returns the file's size in bytes, 0 when unreadable.
	FileSize(path string) int64

	// FileContent returns the file's content, "" on read error.
	FileContent(path string) string

	// LastModified returns the file's last-modification unix timestamp,
	// 0 when unknown.
	LastModified(ctx context.Context, path string) int64
}

// GitSource implements Source using the git CLI through an ExecRunner.
type GitSource struct {
	repoRoot   string
	ignoreDirs []string
	suffixes   []string
	timeout    time.Duration
	run        runner.ExecRunner
	logger     *logging.Logger
}

// NewGitSource creates a git-backed candidate source rooted at cfg.RepoRoot.
func NewGitSource(cfg *config.Config, run runner.ExecRunner, logger *logging.Logger) *GitSource {
	timeout := time.Duration(cfg.Source.GitTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GitSource{
		repoRoot:   cfg.RepoRoot,
		ignoreDirs: cfg.Source.IgnoreDirs,
		suffixes:   cfg.Source.GeneratedSuffixes,
		timeout:    timeout,
		run:        run,
		logger:     logger,
	}
}

// IsAvailable reports whether repoRoot is inside a git work tree.
func (s *GitSource) IsAvailable(ctx context.Context) bool {
	if _, err := s.run.LookPath("git"); err != nil {
		return false
	}
	stdout, _, err := s.run.Run(ctx, s.repoRoot, s.timeout, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil && stdout == "true"
}

// RequireAvailable returns a coded error when the repository is not usable.
func (s *GitSource) RequireAvailable(ctx context.Context) error {
	if s.IsAvailable(ctx) {
		return nil
	}
	return errors.New(errors.GitUnavailable,
		"not a git repository (or git is not installed)", nil,
		errors.FixAction{
			Type:        errors.RunCommand,
			Command:     "git status",
			Safe:        true,
			Description: "Verify you're inside a git repository",
		})
}

// ListPaths lists tracked paths via git ls-files and applies the
// ignore-directory and generated-suffix filters.
func (s *GitSource) ListPaths(ctx context.Context) ([]string, error) {
	stdout, stderr, err := s.run.Run(ctx, s.repoRoot, s.timeout, "git", "ls-files", "-z")
	if err != nil {
		s.logger.Warn("git ls-files failed, treating repository as empty", map[string]interface{}{
			"error":  err.Error(),
			"stderr": stderr,
		})
		return nil, nil
	}

	var out []string
	for _, p := range strings.Split(stdout, "\x00") {
		if p == "" {
			continue
		}
		if s.excluded(p) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *GitSource) excluded(path string) bool {
	for _, suffix := range s.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	for _, seg := range strings.Split(path, "/") {
		for _, dir := range s.ignoreDirs {
			if seg == dir {
				return true
			}
		}
	}
	return false
}

// SearchContent runs a single case-insensitive git grep over all keywords.
// Keywords carry no regex metacharacters, so fixed-string matching is exact.
func (s *GitSource) SearchContent(ctx context.Context, kws []string) (map[string]struct{}, error) {
	matches := make(map[string]struct{})
	if len(kws) == 0 {
		return matches, nil
	}

	args := []string{"grep", "-I", "-i", "-l", "-F"}
	for _, kw := range kws {
		args = append(args, "-e", kw)
	}
	stdout, _, err := s.run.Run(ctx, s.repoRoot, s.timeout, "git", args...)
	if err != nil {
		// git grep exits 1 when nothing matches; either way the
		// degraded answer is the empty set.
		if stdout == "" {
			return matches, nil
		}
	}

	for _, p := range strings.Split(stdout, "\n") {
		p = strings.TrimSpace(p)
		if p == "" || s.excluded(p) {
			continue
		}
		matches[p] = struct{}{}
	}
	return matches, nil
}

// FileSize returns the size of path in bytes, 0 when unreadable.
func (s *GitSource) FileSize(path string) int64 {
	info, err := os.Stat(filepath.Join(s.repoRoot, path))
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// FileContent returns the content of path, "" on read error.
func (s *GitSource) FileContent(path string) string {
	data, err := os.ReadFile(filepath.Join(s.repoRoot, path))
	if err != nil {
		return ""
	}
	return string(data)
}

// LastModified returns the unix timestamp of the last commit touching path.
// Falls back to the filesystem mtime for uncommitted files, then to 0.
func (s *GitSource) LastModified(ctx context.Context, path string) int64 {
	stdout, _, err := s.run.Run(ctx, s.repoRoot, s.timeout, "git", "log", "-1", "--format=%ct", "--", path)
	if err == nil && stdout != "" {
		if ts, perr := strconv.ParseInt(strings.TrimSpace(stdout), 10, 64); perr == nil {
			return ts
		}
	}
	if info, err := os.Stat(filepath.Join(s.repoRoot, path)); err == nil {
		return info.ModTime().Unix()
	}
	return 0
}

// Head returns the current HEAD commit hash, "" when unknown.
func (s *GitSource) Head(ctx context.Context) string {
	stdout, _, err := s.run.Run(ctx, s.repoRoot, s.timeout, "git", "rev-parse", "HEAD")
	if err != nil {
		return ""
	}
	return stdout
}

// Exists reports whether path refers to a regular file under the repo root.
// Used to validate agent-returned paths before trusting them: a path that
// escapes the root (absolute, or traversing up via "..") is rejected before
// the filesystem is consulted, so files outside the repository never pass.
func (s *GitSource) Exists(path string) bool {
	if !filepath.IsLocal(path) {
		return false
	}
	info, err := os.Stat(filepath.Join(s.repoRoot, path))
	return err == nil && !info.IsDir()
}
