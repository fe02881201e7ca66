package applier

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/1amageek/Wisdom/internal/proposal"
)

func TestApplyCreateWritesFileAndParents(t *testing.T) {
	root := t.TempDir()
	a := New(root)

	op := proposal.Operation{
		ID:      "1",
		Kind:    proposal.OpCreate,
		Path:    "internal/deep/new.go",
		Content: "package deep\n",
	}
	if err := a.Apply(context.Background(), op); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "internal/deep/new.go"))
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	if string(data) != "package deep\n" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestApplyUpdateOverwrites(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "main.go")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	a := New(root)
	op := proposal.Operation{ID: "1", Kind: proposal.OpUpdate, Path: "main.go", Content: "new"}
	if err := a.Apply(context.Background(), op); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("expected overwrite, got %q", data)
	}
}

func TestApplyDelete(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.go")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	a := New(root)
	op := proposal.Operation{ID: "1", Kind: proposal.OpDelete, Path: "gone.go"}
	if err := a.Apply(context.Background(), op); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists")
	}
}

func TestApplyDeleteMissingFileIsNoOp(t *testing.T) {
	a := New(t.TempDir())
	op := proposal.Operation{ID: "1", Kind: proposal.OpDelete, Path: "never-existed.go"}
	if err := a.Apply(context.Background(), op); err != nil {
		t.Errorf("deleting a missing file should not fail: %v", err)
	}
}

func TestApplyDeleteDirectoryRefused(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "pkg"), 0755); err != nil {
		t.Fatal(err)
	}

	a := New(root)
	op := proposal.Operation{ID: "1", Kind: proposal.OpDelete, Path: "pkg"}
	if err := a.Apply(context.Background(), op); err == nil {
		t.Error("expected an error deleting a directory")
	}
}

func TestApplyRejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	a := New(root)

	tests := []string{
		"../outside.go",
		"../../etc/passwd",
		"ok/../../outside.go",
	}
	for _, path := range tests {
		t.Run(path, func(t *testing.T) {
			op := proposal.Operation{ID: "1", Kind: proposal.OpCreate, Path: path, Content: "x"}
			err := a.Apply(context.Background(), op)
			if err == nil {
				t.Fatal("expected an error for an escaping path")
			}
			if !strings.Contains(err.Error(), "outside repository root") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestApplyRejectsInvalidOperation(t *testing.T) {
	a := New(t.TempDir())

	op := proposal.Operation{ID: "1", Kind: proposal.OpCreate, Path: "a.go"} // no content
	if err := a.Apply(context.Background(), op); err == nil {
		t.Error("expected a validation error")
	}
}

func TestApplyHonorsCancelledContext(t *testing.T) {
	a := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op := proposal.Operation{ID: "1", Kind: proposal.OpCreate, Path: "a.go", Content: "x"}
	if err := a.Apply(ctx, op); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}
