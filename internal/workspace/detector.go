// Package workspace detects the project type of a source tree and owns
// the build-tool command tables. All build-tool-specific argument
// construction lives here, keeping the engine tool-agnostic.
package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

// ProjectType represents the kind of project rooted at a directory.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeRust    ProjectType = "rust"
	ProjectTypeSwift   ProjectType = "swift"
	ProjectTypeUnknown ProjectType = "unknown"
)

// manifests maps marker files to project types, checked in order so the
// most specific manifest wins when a tree carries several.
var manifests = []struct {
	file string
	typ  ProjectType
}{
	{"go.mod", ProjectTypeGo},
	{"Package.swift", ProjectTypeSwift},
	{"Cargo.toml", ProjectTypeRust},
	{"package.json", ProjectTypeNode},
	{"pyproject.toml", ProjectTypePython},
	{"requirements.txt", ProjectTypePython},
}

// extTypes maps source extensions to project types for the fallback scan.
var extTypes = map[string]ProjectType{
	".go":    ProjectTypeGo,
	".swift": ProjectTypeSwift,
	".rs":    ProjectTypeRust,
	".ts":    ProjectTypeNode,
	".tsx":   ProjectTypeNode,
	".js":    ProjectTypeNode,
	".jsx":   ProjectTypeNode,
	".py":    ProjectTypePython,
}

// minFallbackFiles is the minimum number of same-type source files the
// extension fallback needs before it trusts its guess.
const minFallbackFiles = 3

// Detect determines the project type using manifest-first detection with
// an extension-count fallback over the root directory.
func Detect(root string) ProjectType {
	for _, m := range manifests {
		if _, err := os.Stat(filepath.Join(root, m.file)); err == nil {
			return m.typ
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return ProjectTypeUnknown
	}

	counts := make(map[ProjectType]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if typ, ok := extTypes[ext]; ok {
			counts[typ]++
		}
	}

	best := ProjectTypeUnknown
	bestCount := 0
	for typ, n := range counts {
		if n > bestCount {
			best, bestCount = typ, n
		}
	}
	if bestCount >= minFallbackFiles {
		return best
	}
	return ProjectTypeUnknown
}

// BuildCommand returns the build command for a project type. An empty
// name means the project type has no build step.
func BuildCommand(typ ProjectType) (string, []string) {
	switch typ {
	case ProjectTypeGo:
		return "go", []string{"build", "./..."}
	case ProjectTypeSwift:
		return "swift", []string{"build"}
	case ProjectTypeRust:
		return "cargo", []string{"build"}
	case ProjectTypeNode:
		return "npm", []string{"run", "build"}
	case ProjectTypePython:
		// Python has no build step; compileall at least surfaces syntax errors.
		return "python3", []string{"-m", "compileall", "-q", "."}
	default:
		return "", nil
	}
}

// TestCommand returns the test command for a project type.
func TestCommand(typ ProjectType) (string, []string) {
	switch typ {
	case ProjectTypeGo:
		return "go", []string{"test", "./..."}
	case ProjectTypeSwift:
		return "swift", []string{"test"}
	case ProjectTypeRust:
		return "cargo", []string{"test"}
	case ProjectTypeNode:
		return "npm", []string{"test"}
	case ProjectTypePython:
		return "pytest", nil
	default:
		return "", nil
	}
}
