// Package indexer maintains a full-text index of the project's source so
// the generator can be prompted with relevant code context.
package indexer

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Language represents a programming language.
type Language string

const (
	LangGo         Language = "go"
	LangSwift      Language = "swift"
	LangTypeScript Language = "ts"
	LangJavaScript Language = "js"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangMarkdown   Language = "markdown"
	LangJSON       Language = "json"
	LangYAML       Language = "yaml"
)

var extLangs = map[string]Language{
	".go":    LangGo,
	".swift": LangSwift,
	".ts":    LangTypeScript,
	".tsx":   LangTypeScript,
	".js":    LangJavaScript,
	".jsx":   LangJavaScript,
	".py":    LangPython,
	".rs":    LangRust,
	".md":    LangMarkdown,
	".json":  LangJSON,
	".yaml":  LangYAML,
	".yml":   LangYAML,
}

// DetectLanguage detects a file's language from its extension. Empty
// means the file is not indexable.
func DetectLanguage(path string) Language {
	return extLangs[strings.ToLower(filepath.Ext(path))]
}

// DefaultIgnorePatterns are common directories and files to skip.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	"dist",
	"build",
	"vendor",
	"__pycache__",
	"coverage",
	".next",
	".cache",
	"target",
	".idea",
	".vscode",
	".DS_Store",
}

// maxFileSize guards the index against generated or binary-ish files.
const maxFileSize = 512 * 1024

// FileInfo describes one indexable source file.
type FileInfo struct {
	Path string // relative to the repository root
	Lang Language
}

// Walker walks a repository and discovers indexable source files,
// honoring the root .gitignore plus the default ignore patterns.
type Walker struct {
	repoRoot string
	ignore   gitignore.IgnoreParser
}

// NewWalker creates a walker for the repository at repoRoot.
func NewWalker(repoRoot string) *Walker {
	patterns := make([]string, 0, len(DefaultIgnorePatterns)+16)
	patterns = append(patterns, DefaultIgnorePatterns...)
	patterns = append(patterns, loadGitignoreLines(filepath.Join(repoRoot, ".gitignore"))...)

	return &Walker{
		repoRoot: repoRoot,
		ignore:   gitignore.CompileIgnoreLines(patterns...),
	}
}

// Ignored reports whether a repo-relative path is excluded from indexing.
func (w *Walker) Ignored(relPath string) bool {
	return w.ignore.MatchesPath(relPath)
}

// Walk returns the indexable files under the repository root.
func (w *Walker) Walk() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(w.repoRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		relPath, err := filepath.Rel(w.repoRoot, path)
		if err != nil || relPath == "." {
			return nil
		}

		if w.ignore.MatchesPath(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		lang := DetectLanguage(relPath)
		if lang == "" {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxFileSize {
			return nil
		}

		files = append(files, FileInfo{Path: relPath, Lang: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func loadGitignoreLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
