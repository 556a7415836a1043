package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"layertree/core-go/internal/metrics"
	"layertree/core-go/internal/tree"
)

// Entry is a normalized catalog tree. Callers must treat it as read-only.
type Entry struct {
	Name     string
	Tree     tree.Tree
	Warnings []tree.Warning
	// Unreachable lists nodes that no path from the root leads to.
	Unreachable []string
}

// Catalog serves the normalized trees of the most recent successful load.
type Catalog struct {
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	entries map[string]Entry
	names   []string
	loaded  bool
}

func New(log zerolog.Logger, m *metrics.Metrics) *Catalog {
	return &Catalog{
		log:     log,
		metrics: m,
		entries: map[string]Entry{},
	}
}

// Load parses and normalizes data and replaces the served trees. On any error
// the previously served trees stay in place.
func (c *Catalog) Load(data []byte) error {
	defs, err := Parse(data)
	if err != nil {
		c.metrics.ObserveCatalogLoad(false, 0)
		return err
	}

	entries := make(map[string]Entry, len(defs))
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		res, err := c.normalize(d.Name, d.Raw)
		if err != nil {
			c.metrics.ObserveCatalogLoad(false, 0)
			return fmt.Errorf("tree %q: %w", d.Name, err)
		}
		unreachable := res.Tree.Unreachable()
		if len(unreachable) > 0 {
			c.log.Info().
				Str("tree", d.Name).
				Strs("node_ids", unreachable).
				Msg("nodes not reachable from root")
		}
		entries[d.Name] = Entry{Name: d.Name, Tree: res.Tree, Warnings: res.Warnings, Unreachable: unreachable}
		names = append(names, d.Name)
	}

	c.mu.Lock()
	c.entries = entries
	c.names = names
	c.loaded = true
	c.mu.Unlock()

	c.metrics.ObserveCatalogLoad(true, len(names))
	c.log.Info().Int("trees", len(names)).Msg("catalog loaded")
	return nil
}

func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		c.metrics.ObserveCatalogLoad(false, 0)
		return fmt.Errorf("read catalog %q: %w", path, err)
	}
	if err := c.Load(data); err != nil {
		return fmt.Errorf("load catalog %q: %w", path, err)
	}
	return nil
}

func (c *Catalog) Get(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// Names returns tree names in document order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Catalog) Loaded() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Watch reloads the catalog whenever path is written or recreated, until ctx
// is done. The parent directory is watched so editors that replace the file
// by rename are picked up too.
func (c *Catalog) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}
	c.log.Info().Str("path", absPath).Msg("watching catalog")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := c.LoadFile(absPath); err != nil {
				c.log.Error().Err(err).Str("path", absPath).Msg("catalog reload failed, keeping previous trees")
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Warn().Err(err).Msg("catalog watcher error")
		}
	}
}

func (c *Catalog) normalize(name string, raw tree.RawTree) (tree.Result, error) {
	res, err := tree.Normalize(raw)
	if err != nil {
		c.metrics.ObserveNormalization(normalizeFailure(err), nil)
		return tree.Result{}, err
	}

	codes := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		codes = append(codes, string(w.Code))
		c.log.Warn().
			Str("tree", name).
			Str("code", string(w.Code)).
			Str("node_id", w.NodeID).
			Str("ref", w.Ref).
			Msg(w.Message)
	}
	c.metrics.ObserveNormalization("ok", codes)
	return res, nil
}

func normalizeFailure(err error) string {
	if errors.Is(err, tree.ErrMissingRoot) {
		return "missing_root"
	}
	return "error"
}
