package sandbox

import (
	"github.com/1amageek/Wisdom/internal/workspace"
)

// ImageFor returns the Docker image to use for a project type. A custom
// image from the config takes precedence.
func ImageFor(typ workspace.ProjectType, config Config) string {
	if config.DockerImage != "" {
		return config.DockerImage
	}

	switch typ {
	case workspace.ProjectTypeGo:
		return "golang:alpine"
	case workspace.ProjectTypeNode:
		return "node:alpine"
	case workspace.ProjectTypePython:
		return "python:alpine"
	case workspace.ProjectTypeRust:
		return "rust:alpine"
	case workspace.ProjectTypeSwift:
		return "swift:latest"
	default:
		return "alpine:latest"
	}
}
