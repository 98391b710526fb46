package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/mindweave/pkg/cache"
	"github.com/matzehuels/mindweave/pkg/errors"
	"github.com/matzehuels/mindweave/pkg/mindmap"
	"github.com/matzehuels/mindweave/pkg/observability"
	"github.com/matzehuels/mindweave/pkg/snapshot"
)

// Exporter turns a document into an external representation such as DOT
// or PNG.
type Exporter interface {
	// Format names the output, for example "dot" or "png". It is part of
	// the export cache key.
	Format() string
	Export(ctx context.Context, doc snapshot.Document) ([]byte, error)
}

// Theme restyles nodes. Only the returned style is written back.
type Theme interface {
	Restyle(node mindmap.Node, level int) mindmap.Style
}

// Suggester proposes child topics for a node, for example from a language
// model or an outline import.
type Suggester interface {
	Suggest(ctx context.Context, doc snapshot.Document, nodeID string) ([]string, error)
}

// Export renders a snapshot of the map with exp. Results are cached by
// document content and format.
func (e *Engine) Export(ctx context.Context, exp Exporter) ([]byte, error) {
	doc := e.Snapshot()
	format := exp.Format()
	key := e.keyer.ExportKey(doc.Hash(), cache.ExportKeyOpts{Format: format})

	if data, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "export")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "export")

	start := time.Now()
	data, err := exp.Export(ctx, doc)
	observability.Engine().OnExport(ctx, format, len(data), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	if err := e.cache.Set(ctx, key, data, e.cacheTTL); err != nil {
		e.logger.Warn("export cache write failed", "format", format, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "export", len(data))
	}
	return data, nil
}

// ApplyTheme restyles every node whose style the theme changes, one
// style_update per node, and returns how many changed. It stops at the first
// edit the session rejects.
func (e *Engine) ApplyTheme(userID string, theme Theme) (int, error) {
	type restyle struct {
		id    string
		style mindmap.Style
	}
	var todo []restyle
	e.mu.RLock()
	e.store.Walk(func(n *mindmap.Node, depth int) bool {
		if s := theme.Restyle(*n.Clone(), depth); s != n.Style {
			todo = append(todo, restyle{n.ID, s})
		}
		return true
	})
	e.mu.RUnlock()

	for i, r := range todo {
		if err := e.SetStyle(userID, r.id, r.style); err != nil {
			return i, err
		}
	}
	return len(todo), nil
}

// AcceptSuggestions asks s for child topics of nodeID and creates one child
// per non-empty suggestion. It returns the new node IDs.
func (e *Engine) AcceptSuggestions(ctx context.Context, userID, nodeID string, s Suggester) ([]string, error) {
	if _, ok := e.Node(nodeID); !ok {
		return nil, errors.NotFound("node", nodeID)
	}
	topics, err := s.Suggest(ctx, e.Snapshot(), nodeID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		id, err := e.CreateNode(userID, topic, nodeID, nil)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
