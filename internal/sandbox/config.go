package sandbox

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Mode selects the execution backend.
type Mode string

const (
	// ModeDocker runs commands in Docker containers.
	ModeDocker Mode = "docker"
	// ModeHost runs commands directly on the host (no isolation).
	ModeHost Mode = "host"
	// ModeAuto uses Docker when available and falls back to the host.
	ModeAuto Mode = "auto"
)

const defaultCmdTimeout = 2 * time.Minute

// Config holds sandbox execution settings.
type Config struct {
	Mode        Mode
	DockerImage string        // custom image override
	CPU         string        // CPU limit, e.g. "2"
	Memory      string        // memory limit, e.g. "1g"
	CmdTimeout  time.Duration // default command timeout (0 = built-in default)
}

// ConfigFromEnv builds a Config from WISDOM_* environment variables.
func ConfigFromEnv() Config {
	mode := Mode(strings.ToLower(os.Getenv("WISDOM_SANDBOX_MODE")))
	switch mode {
	case ModeDocker, ModeHost, ModeAuto:
	case "":
		mode = ModeAuto
	default:
		log.Printf("WARNING: unknown WISDOM_SANDBOX_MODE %q, defaulting to auto", mode)
		mode = ModeAuto
	}

	cmdTimeout := defaultCmdTimeout
	if raw := os.Getenv("WISDOM_CMD_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cmdTimeout = d
		} else {
			log.Printf("WARNING: invalid WISDOM_CMD_TIMEOUT %q, using default %s", raw, defaultCmdTimeout)
		}
	}

	return Config{
		Mode:        mode,
		DockerImage: os.Getenv("WISDOM_DOCKER_IMAGE"),
		CPU:         envOrDefault("WISDOM_DOCKER_CPU", "2"),
		Memory:      envOrDefault("WISDOM_DOCKER_MEMORY", "1g"),
		CmdTimeout:  cmdTimeout,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// IsDockerAvailable checks whether the Docker daemon is reachable.
func IsDockerAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "docker", "ps")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

// NewDefaultRunner creates a runner from environment configuration,
// preferring Docker in auto mode and falling back to the host.
func NewDefaultRunner() Runner {
	config := ConfigFromEnv()
	ctx := context.Background()

	switch config.Mode {
	case ModeDocker:
		if !IsDockerAvailable(ctx) {
			log.Printf("WARNING: Docker mode requested but Docker is not available, falling back to host execution")
			return &HostRunner{config: config}
		}
		runner, err := NewDockerRunner(config)
		if err != nil {
			log.Printf("WARNING: failed to create Docker runner: %v, falling back to host execution", err)
			return &HostRunner{config: config}
		}
		return runner

	case ModeAuto:
		if IsDockerAvailable(ctx) {
			if runner, err := NewDockerRunner(config); err == nil {
				return runner
			}
		}
		return &HostRunner{config: config}

	default:
		return &HostRunner{config: config}
	}
}

// NewRunner creates a specific runner implementation.
func NewRunner(mode Mode, config Config) (Runner, error) {
	switch mode {
	case ModeDocker:
		return NewDockerRunner(config)
	case ModeHost:
		return &HostRunner{config: config}, nil
	default:
		return nil, fmt.Errorf("unknown runner mode: %s", mode)
	}
}
