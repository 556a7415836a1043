package catalog

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"layertree/core-go/internal/metrics"
	"layertree/core-go/internal/tree"
)

const sample = `
trees:
  zoning:
    root: top
    items:
      top:
        children: [residential, commercial, ghost]
      residential:
        kind: radio
      commercial:
        title: Commercial
  base:
    root: base
    items:
      base: {}
`

func newTestCatalog() *Catalog {
	return New(zerolog.New(io.Discard), metrics.New())
}

func TestParse_PreservesDocumentOrder(t *testing.T) {
	defs, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 || defs[0].Name != "zoning" || defs[1].Name != "base" {
		t.Fatalf("expected zoning then base, got %+v", defs)
	}
	got := strings.Join(defs[0].Raw.Order, ",")
	if got != "top,residential,commercial" {
		t.Fatalf("expected item order from document, got %q", got)
	}
	if defs[0].Raw.RootID != "top" {
		t.Fatalf("expected root top, got %q", defs[0].Raw.RootID)
	}
	if k := defs[0].Raw.Items["residential"].Kind; k == nil || *k != tree.KindRadio {
		t.Fatalf("expected residential kind radio, got %v", k)
	}
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"no trees":       "other: 1\n",
		"trees not map":  "trees: [a, b]\n",
		"missing root":   "trees:\n  t:\n    items:\n      a: {}\n",
		"bad kind":       "trees:\n  t:\n    root: a\n    items:\n      a: {kind: toggle}\n",
		"items not map":  "trees:\n  t:\n    root: a\n    items: [a]\n",
		"duplicate item": "trees:\n  t:\n    root: a\n    items:\n      a: {}\n      a: {}\n",
		"duplicate tree": "trees:\n  t:\n    root: a\n  t:\n    root: a\n",
		"not yaml":       "trees: [\n",
	}
	for name, doc := range cases {
		if _, err := Parse([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestCatalog_LoadNormalizesTrees(t *testing.T) {
	c := newTestCatalog()
	if c.Loaded() {
		t.Fatalf("expected fresh catalog to be unloaded")
	}
	if err := c.Load([]byte(sample)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Loaded() {
		t.Fatalf("expected catalog to be loaded")
	}
	if got := strings.Join(c.Names(), ","); got != "zoning,base" {
		t.Fatalf("unexpected names %q", got)
	}

	e, ok := c.Get("zoning")
	if !ok {
		t.Fatalf("expected zoning entry")
	}
	top := e.Tree.Items["top"]
	if strings.Join(top.Children, ",") != "residential,commercial" {
		t.Fatalf("expected dangling ghost dropped, got %v", top.Children)
	}
	if e.Tree.Items["commercial"].ParentID != "top" {
		t.Fatalf("expected commercial parented by top")
	}
	if len(e.Warnings) != 1 || e.Warnings[0].Code != tree.WarnDanglingChild {
		t.Fatalf("expected one dangling warning, got %v", e.Warnings)
	}
}

func TestCatalog_LoadRecordsUnreachableNodes(t *testing.T) {
	c := newTestCatalog()
	doc := "trees:\n  t:\n    root: r\n    items:\n      r:\n        children: [a]\n      a: {}\n      stray:\n        children: [leaf]\n      leaf: {}\n"
	if err := c.Load([]byte(doc)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, ok := c.Get("t")
	if !ok {
		t.Fatalf("expected tree t")
	}
	if got := strings.Join(e.Unreachable, ","); got != "leaf,stray" {
		t.Fatalf("unexpected unreachable nodes %q", got)
	}
	if e.Tree.Items["leaf"].ParentID != "stray" {
		t.Fatalf("expected unreachable nodes to keep their linkage")
	}

	if err := c.Load([]byte(sample)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e, _ := c.Get("zoning"); len(e.Unreachable) != 0 {
		t.Fatalf("expected zoning fully reachable, got %v", e.Unreachable)
	}
}

func TestCatalog_FailedLoadKeepsPreviousTrees(t *testing.T) {
	c := newTestCatalog()
	if err := c.Load([]byte(sample)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := c.Load([]byte("trees:\n  broken:\n    root: nope\n    items:\n      a: {}\n"))
	if !errors.Is(err, tree.ErrMissingRoot) {
		t.Fatalf("expected missing root error, got %v", err)
	}
	if _, ok := c.Get("zoning"); !ok {
		t.Fatalf("expected previous trees to survive failed load")
	}
	if _, ok := c.Get("broken"); ok {
		t.Fatalf("expected broken tree not to be served")
	}
}

func TestCatalog_LoadFileShippedConfig(t *testing.T) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "config", "trees.yaml")

	c := newTestCatalog()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("load shipped catalog: %v", err)
	}
	e, ok := c.Get("layers")
	if !ok {
		t.Fatalf("expected layers tree")
	}
	if len(e.Warnings) != 0 {
		t.Fatalf("expected shipped catalog to be clean, got %v", e.Warnings)
	}
	if e.Tree.Items["streets"].ParentID != "base" || e.Tree.Items["streets"].Kind != tree.KindRadio {
		t.Fatalf("unexpected streets node %+v", e.Tree.Items["streets"])
	}
}

func TestCatalog_LoadFileMissing(t *testing.T) {
	c := newTestCatalog()
	if err := c.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestCatalog_WatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trees.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c := newTestCatalog()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Watch(ctx, path) }()
	defer func() {
		cancel()
		<-done
	}()

	updated := []byte("trees:\n  fresh:\n    root: r\n    items:\n      r: {}\n")
	deadline := time.Now().Add(5 * time.Second)
	for {
		// Rewrite until the watcher is registered and picks up a change.
		if err := os.WriteFile(path, updated, 0o644); err != nil {
			t.Fatalf("rewrite catalog: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
		if _, ok := c.Get("fresh"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected catalog reload after write, names=%v", c.Names())
		}
	}
	if _, ok := c.Get("zoning"); ok {
		t.Fatalf("expected old trees to be replaced")
	}
}
