package storage

import (
	"context"

	"ctxpick/internal/gitsource"
	"ctxpick/internal/logging"
)

// IndexedSource decorates a git source, answering content searches from the
// local index when it matches the repository's current HEAD. Stale or
// failing index lookups fall back to the underlying git grep.
type IndexedSource struct {
	*gitsource.GitSource
	index  *ContentIndex
	logger *logging.Logger
}

// NewIndexedSource wraps src with the content index.
func NewIndexedSource(src *gitsource.GitSource, index *ContentIndex, logger *logging.Logger) *IndexedSource {
	return &IndexedSource{GitSource: src, index: index, logger: logger}
}

// SearchContent implements gitsource.Source.
func (s *IndexedSource) SearchContent(ctx context.Context, kws []string) (map[string]struct{}, error) {
	head := s.GitSource.Head(ctx)
	if head == "" || s.index.Head(ctx) != head {
		s.logger.Debug("content index stale, falling back to git grep", map[string]interface{}{
			"head": head,
		})
		return s.GitSource.SearchContent(ctx, kws)
	}

	matches, err := s.index.Search(ctx, kws)
	if err != nil {
		s.logger.Warn("content index search failed, falling back to git grep", map[string]interface{}{
			"error": err.Error(),
		})
		return s.GitSource.SearchContent(ctx, kws)
	}
	return matches, nil
}
