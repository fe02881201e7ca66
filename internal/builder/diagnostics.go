package builder

import (
	"regexp"
	"strings"

	"github.com/1amageek/Wisdom/internal/workspace"
)

// errorPatterns matches one compiler error line per project type. The
// count is a monotonicity signal for the engine, not an exact tally, so
// each pattern aims for lines a developer would also call errors.
var errorPatterns = map[workspace.ProjectType][]*regexp.Regexp{
	workspace.ProjectTypeGo: {
		// pkg/file.go:12:3: undefined: foo
		regexp.MustCompile(`(?m)^\S+\.go:\d+:\d+: `),
	},
	workspace.ProjectTypeSwift: {
		// /path/File.swift:4:10: error: cannot find 'bar' in scope
		regexp.MustCompile(`(?m):\d+:\d+: error: `),
	},
	workspace.ProjectTypeRust: {
		// error[E0425]: cannot find value `x`
		regexp.MustCompile(`(?m)^error(\[E\d+\])?: `),
	},
	workspace.ProjectTypeNode: {
		// src/app.ts(4,10): error TS2304: Cannot find name 'bar'.
		regexp.MustCompile(`(?m)error TS\d+: `),
		regexp.MustCompile(`(?m)^\s*Error: `),
	},
	workspace.ProjectTypePython: {
		regexp.MustCompile(`(?m)^\s*SyntaxError: `),
		regexp.MustCompile(`(?m)^\s*\S*Error: `),
	},
}

// CountDiagnostics counts error diagnostics in build output for the given
// project type. Unknown types count nothing; callers floor failed builds
// at one error themselves.
func CountDiagnostics(typ workspace.ProjectType, output string) int {
	patterns, ok := errorPatterns[typ]
	if !ok || strings.TrimSpace(output) == "" {
		return 0
	}

	seen := make(map[string]struct{})
	total := 0
	for _, line := range strings.Split(output, "\n") {
		for _, pat := range patterns {
			if pat.MatchString(line) {
				// Docker log demuxing can duplicate lines across streams.
				if _, dup := seen[line]; !dup {
					seen[line] = struct{}{}
					total++
				}
				break
			}
		}
	}
	return total
}
