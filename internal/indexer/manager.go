package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Manager ties the walker, index, and watcher together and exposes the
// context lookup the generator consumes.
type Manager struct {
	repoRoot string
	walker   *Walker
	index    *Index
	watcher  *Watcher
}

// NewManager creates a manager and performs the initial full index.
func NewManager(repoRoot string) (*Manager, error) {
	walker := NewWalker(repoRoot)
	index, err := NewMemIndex(repoRoot)
	if err != nil {
		return nil, err
	}

	m := &Manager{repoRoot: repoRoot, walker: walker, index: index}
	if err := m.reindexAll(); err != nil {
		index.Close()
		return nil, err
	}
	return m, nil
}

func (m *Manager) reindexAll() error {
	files, err := m.walker.Walk()
	if err != nil {
		return fmt.Errorf("failed to walk repository: %w", err)
	}
	for _, f := range files {
		if err := m.index.IndexFile(f.Path, f.Lang); err != nil {
			log.Printf("WARNING: failed to index %s: %v", f.Path, err)
		}
	}
	return nil
}

// Watch starts incremental reindexing on filesystem changes.
func (m *Manager) Watch() error {
	watcher, err := NewWatcher(m.repoRoot, m.walker, m.refresh)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	m.watcher = watcher
	return nil
}

// refresh reindexes changed paths and drops deleted ones.
func (m *Manager) refresh(paths []string) {
	for _, relPath := range paths {
		if _, err := os.Stat(filepath.Join(m.repoRoot, relPath)); os.IsNotExist(err) {
			if err := m.index.Remove(relPath); err != nil {
				log.Printf("WARNING: failed to remove %s from index: %v", relPath, err)
			}
			continue
		}
		if err := m.index.IndexFile(relPath, DetectLanguage(relPath)); err != nil {
			log.Printf("WARNING: failed to reindex %s: %v", relPath, err)
		}
	}
}

// snippetLines caps how much of a file one context snippet carries.
const snippetLines = 40

// Context returns a prompt-ready digest of the files most relevant to
// query: up to limit files, each headed by its path and truncated.
func (m *Manager) Context(ctx context.Context, query string, limit int) (string, error) {
	hits, err := m.index.Search(ctx, query, limit)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, hit := range hits {
		fmt.Fprintf(&b, "--- %s ---\n", hit.Path)
		b.WriteString(truncateLines(hit.Text, snippetLines))
		b.WriteString("\n")
	}
	return b.String(), nil
}

// Close stops the watcher and releases the index.
func (m *Manager) Close() error {
	if m.watcher != nil {
		if err := m.watcher.Stop(); err != nil {
			log.Printf("WARNING: failed to stop watcher: %v", err)
		}
	}
	return m.index.Close()
}

func truncateLines(text string, max int) string {
	lines := strings.Split(text, "\n")
	if len(lines) <= max {
		return text
	}
	return strings.Join(lines[:max], "\n") + "\n[truncated]"
}
