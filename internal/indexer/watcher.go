package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 500 * time.Millisecond

// Watcher observes filesystem changes under the repository root and
// reports changed repo-relative paths, debounced, through a callback.
type Watcher struct {
	repoRoot string
	walker   *Walker
	watcher  *fsnotify.Watcher
	onChange func(paths []string)

	mu      sync.Mutex
	pending map[string]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for the repository at repoRoot. walker
// supplies the ignore rules so watch events match index contents.
func NewWatcher(repoRoot string, walker *Walker, onChange func(paths []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		repoRoot: repoRoot,
		walker:   walker,
		watcher:  fsw,
		onChange: onChange,
		pending:  make(map[string]struct{}),
	}, nil
}

// Start registers all non-ignored directories and begins dispatching
// debounced change notifications.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.repoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(w.repoRoot, path)
		if err != nil {
			return nil
		}
		if relPath != "." && w.walker.Ignored(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				log.Printf("WARNING: failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk repo: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	w.wg.Add(2)
	go w.eventLoop(ctx)
	go w.flushLoop(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutines.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("WARNING: watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.repoRoot, event.Name)
	if err != nil || w.walker.Ignored(relPath) {
		return
	}

	// Newly created directories need their own watch.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				log.Printf("WARNING: failed to watch %s: %v", event.Name, err)
			}
			return
		}
	}

	if DetectLanguage(relPath) == "" {
		return
	}

	w.mu.Lock()
	w.pending[relPath] = struct{}{}
	w.mu.Unlock()
}

// flushLoop delivers pending changes in batches so editor save storms
// produce one reindex, not one per write.
func (w *Watcher) flushLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(debounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.Lock()
			if len(w.pending) == 0 {
				w.mu.Unlock()
				continue
			}
			paths := make([]string, 0, len(w.pending))
			for p := range w.pending {
				paths = append(paths, p)
			}
			w.pending = make(map[string]struct{})
			w.mu.Unlock()

			if w.onChange != nil {
				w.onChange(paths)
			}
		}
	}
}
