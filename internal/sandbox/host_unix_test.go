//go:build !windows

package sandbox

import (
	"context"
	"testing"
	"time"
)

func TestHostRunnerCapturesOutputAndExitCode(t *testing.T) {
	r := NewHostRunner(Config{})

	res, err := r.RunCmd(context.Background(), t.TempDir(), "sh",
		[]string{"-c", "echo out; echo err >&2; exit 3"}, time.Minute)
	if err == nil {
		t.Fatal("expected an error for a nonzero exit")
	}
	if res.Code != 3 {
		t.Errorf("expected exit code 3, got %d", res.Code)
	}
	if res.Stdout != "out\n" || res.Stderr != "err\n" {
		t.Errorf("unexpected output: stdout=%q stderr=%q", res.Stdout, res.Stderr)
	}
	if res.TimedOut {
		t.Error("a plain failure must not be reported as a timeout")
	}
}

func TestHostRunnerTimeout(t *testing.T) {
	r := NewHostRunner(Config{})

	res, err := r.RunCmd(context.Background(), t.TempDir(), "sleep", []string{"5"}, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected an error for a killed command")
	}
	if !res.TimedOut {
		t.Error("expected TimedOut for an exceeded command deadline")
	}
}

func TestHostRunnerParentCancelIsNotTimeout(t *testing.T) {
	r := NewHostRunner(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	res, err := r.RunCmd(ctx, t.TempDir(), "sleep", []string{"5"}, time.Minute)
	if err == nil {
		t.Fatal("expected an error for a cancelled command")
	}
	if res.TimedOut {
		t.Error("parent cancellation must not be reported as a timeout")
	}
}
