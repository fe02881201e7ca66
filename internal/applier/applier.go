// Package applier materializes proposal operations on the project tree.
// It is the only component that writes to the repository, and it refuses
// any path that resolves outside the repository root.
package applier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/1amageek/Wisdom/internal/proposal"
)

// Applier applies file operations relative to a repository root.
type Applier struct {
	root string
	fs   FileSystem
}

// New creates an applier for the repository at root.
func New(root string) *Applier {
	return &Applier{root: root, fs: NewOSFileSystem()}
}

// NewWithFS creates an applier with a custom filesystem, for tests.
func NewWithFS(root string, fs FileSystem) *Applier {
	return &Applier{root: root, fs: fs}
}

// Apply executes one operation. Create and update both write the full
// content (creating parent directories as needed); delete removes the
// file and tolerates it already being gone, since a prior cycle or the
// build itself may have removed it.
func (a *Applier) Apply(ctx context.Context, op proposal.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := op.Validate(); err != nil {
		return err
	}

	absPath, err := a.resolve(op.Path)
	if err != nil {
		return err
	}

	switch op.Kind {
	case proposal.OpCreate, proposal.OpUpdate:
		return a.write(absPath, op.Content)
	case proposal.OpDelete:
		return a.delete(absPath, op.Path)
	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// resolve joins the operation path to the root and validates that the
// cleaned result stays inside it.
func (a *Applier) resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("operation path is empty")
	}

	absPath := filepath.Clean(filepath.Join(a.root, relPath))
	rootClean := filepath.Clean(a.root)
	if absPath != rootClean && !strings.HasPrefix(absPath, rootClean+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside repository root", relPath)
	}
	if absPath == rootClean {
		return "", fmt.Errorf("path %s resolves to the repository root", relPath)
	}
	return absPath, nil
}

func (a *Applier) write(absPath, content string) error {
	dir := filepath.Dir(absPath)
	if err := a.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := a.fs.WriteFile(absPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (a *Applier) delete(absPath, relPath string) error {
	info, err := a.fs.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Already gone; deleting again is a no-op, not a failure.
			return nil
		}
		return fmt.Errorf("failed to check file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("cannot delete directory %s", relPath)
	}
	if err := a.fs.Remove(absPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
