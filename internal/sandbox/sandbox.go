// Package sandbox runs project build commands, either directly on the
// host or inside an isolated Docker container.
package sandbox

import (
	"context"
	"time"
)

// Result captures the output of a command.
type Result struct {
	Stdout   string
	Stderr   string
	Code     int
	TimedOut bool
}

// Runner executes commands against a project directory.
type Runner interface {
	// RunCmd runs a command in the given project directory with a timeout.
	// A timeout <= 0 uses the configured default.
	RunCmd(ctx context.Context, projectDir, name string, args []string, timeout time.Duration) (Result, error)
}
