// Package discovery builds the candidate pool for a question: the union of
// filename keyword matches, content keyword matches, and the always-include
// documentation/manifest/config set.
package discovery

import (
	"context"
	"path/filepath"
	"strings"

	"ctxpick/internal/config"
	"ctxpick/internal/gitsource"
	"ctxpick/internal/logging"
)

// Discoverer assembles candidate pools from a source and keyword set.
type Discoverer struct {
	alwaysInclude []string
	source        gitsource.Source
	logger        *logging.Logger
}

// NewDiscoverer creates a discoverer with the given always-include patterns.
func NewDiscoverer(cfg config.DiscoveryConfig, source gitsource.Source, logger *logging.Logger) *Discoverer {
	return &Discoverer{
		alwaysInclude: cfg.AlwaysInclude,
		source:        source,
		logger:        logger,
	}
}

// Discover returns the deduplicated candidate pool. The pool is a set; the
// returned order follows the in-scope path list so repeated runs on an
// unchanged repository are deterministic.
//
// Keywords contain no regex metacharacters after extraction, so plain
// case-insensitive substring matching on paths is exactly equivalent to
// matching each escaped keyword as a case-insensitive regex.
func (d *Discoverer) Discover(ctx context.Context, paths []string, kws []string) ([]string, error) {
	contentMatches, err := d.source.SearchContent(ctx, kws)
	if err != nil {
		return nil, err
	}

	var pool []string
	for _, path := range paths {
		if d.matchesFilename(path, kws) || d.isAlwaysIncluded(path) {
			pool = append(pool, path)
			continue
		}
		if _, ok := contentMatches[path]; ok {
			pool = append(pool, path)
		}
	}

	d.logger.Debug("candidate discovery complete", map[string]interface{}{
		"inScope":        len(paths),
		"contentMatches": len(contentMatches),
		"pool":           len(pool),
	})
	return pool, nil
}

func (d *Discoverer) matchesFilename(path string, kws []string) bool {
	lowered := strings.ToLower(path)
	for _, kw := range kws {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func (d *Discoverer) isAlwaysIncluded(path string) bool {
	for _, pattern := range d.alwaysInclude {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern supports two pattern forms: directory patterns ending in "/*"
// (the named directory appearing as a path segment, e.g. "docs/*" or
// "*/docs/*"), and basename globs (e.g. "README*", ".eslintrc*").
// Matching is case-insensitive.
func matchPattern(pattern, path string) bool {
	pattern = strings.ToLower(pattern)
	path = strings.ToLower(path)

	if strings.HasSuffix(pattern, "/*") {
		dir := strings.TrimSuffix(pattern, "/*")
		dir = strings.TrimPrefix(dir, "*/")
		for _, seg := range strings.Split(filepath.Dir(path), "/") {
			if seg == dir {
				return true
			}
		}
		return false
	}

	ok, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && ok
}
