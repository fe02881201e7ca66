package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/1amageek/Wisdom/internal/sandbox"
	"github.com/1amageek/Wisdom/internal/workspace"
)

type fakeRunner struct {
	result  sandbox.Result
	err     error
	lastCmd string
}

func (f *fakeRunner) RunCmd(ctx context.Context, projectDir, name string, args []string, timeout time.Duration) (sandbox.Result, error) {
	f.lastCmd = name
	return f.result, f.err
}

func goProjectDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/p\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestBuildSuccess(t *testing.T) {
	runner := &fakeRunner{result: sandbox.Result{Code: 0}}
	b := New(goProjectDir(t), WithRunner(runner))

	outcome, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Successful || outcome.ErrorCount != 0 {
		t.Errorf("expected clean outcome, got %+v", outcome)
	}
	if runner.lastCmd != "go" {
		t.Errorf("expected go build command, got %s", runner.lastCmd)
	}
}

func TestBuildCountsCompilerErrors(t *testing.T) {
	stderr := "pkg/a.go:10:2: undefined: foo\npkg/b.go:3:1: syntax error: unexpected }\n"
	runner := &fakeRunner{
		result: sandbox.Result{Code: 1, Stderr: stderr},
		err:    fmt.Errorf("exit status 1"),
	}
	b := New(goProjectDir(t), WithRunner(runner))

	outcome, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Successful {
		t.Error("expected failure")
	}
	if outcome.ErrorCount != 2 {
		t.Errorf("expected 2 errors, got %d", outcome.ErrorCount)
	}
}

func TestBuildFailureWithUnparseableOutputFloorsAtOne(t *testing.T) {
	runner := &fakeRunner{
		result: sandbox.Result{Code: 2, Stderr: "something exploded"},
		err:    fmt.Errorf("exit status 2"),
	}
	b := New(goProjectDir(t), WithRunner(runner))

	outcome, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Successful {
		t.Error("expected failure")
	}
	if outcome.ErrorCount != 1 {
		t.Errorf("expected floor of 1 error, got %d", outcome.ErrorCount)
	}
}

func TestBuildSuccessfulExitWithDiagnostics(t *testing.T) {
	// A wrapper script can exit zero while the output still reports
	// errors; both facts must flow through unreconciled.
	runner := &fakeRunner{
		result: sandbox.Result{Code: 0, Stdout: "pkg/a.go:1:1: deprecated API\n"},
	}
	b := New(goProjectDir(t), WithRunner(runner))

	outcome, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Successful {
		t.Error("expected success by exit code")
	}
	if outcome.ErrorCount != 1 {
		t.Errorf("expected 1 counted diagnostic, got %d", outcome.ErrorCount)
	}
}

func TestBuildTimeout(t *testing.T) {
	runner := &fakeRunner{result: sandbox.Result{Code: 1, TimedOut: true}}
	b := New(goProjectDir(t), WithRunner(runner))

	if _, err := b.Build(context.Background()); err == nil {
		t.Error("expected an error on timeout")
	}
}

func TestBuildUnknownProjectType(t *testing.T) {
	runner := &fakeRunner{}
	b := New(t.TempDir(), WithRunner(runner))

	if _, err := b.Build(context.Background()); err == nil {
		t.Error("expected an error for an undetectable project")
	}
}

func TestCountDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		typ    workspace.ProjectType
		output string
		want   int
	}{
		{"go errors", workspace.ProjectTypeGo, "a.go:1:1: x\nb.go:2:2: y\n", 2},
		{"go duplicate lines collapse", workspace.ProjectTypeGo, "a.go:1:1: x\na.go:1:1: x\n", 1},
		{"rust errors", workspace.ProjectTypeRust, "error[E0425]: cannot find value\nwarning: unused\n", 1},
		{"swift errors", workspace.ProjectTypeSwift, "/src/A.swift:4:10: error: bad\n/src/A.swift:9:1: warning: meh\n", 1},
		{"typescript errors", workspace.ProjectTypeNode, "src/app.ts(4,10): error TS2304: x\n", 1},
		{"empty output", workspace.ProjectTypeGo, "", 0},
		{"unknown type", workspace.ProjectTypeUnknown, "error: whatever", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountDiagnostics(tt.typ, tt.output); got != tt.want {
				t.Errorf("CountDiagnostics() = %d, want %d", got, tt.want)
			}
		})
	}
}
