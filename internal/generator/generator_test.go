package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/1amageek/Wisdom/internal/proposal"
)

type fakeClient struct {
	response string
	err      error
	lastUser string
}

func (f *fakeClient) Complete(ctx context.Context, system, user string) (string, error) {
	f.lastUser = user
	return f.response, f.err
}

type fakeContext struct {
	snippets string
}

func (f *fakeContext) Context(ctx context.Context, query string, limit int) (string, error) {
	return f.snippets, nil
}

func wireResponse(wrap string) string {
	content := base64.StdEncoding.EncodeToString([]byte("package main\n"))
	payload := fmt.Sprintf(`{"operations": [{"kind": "update", "path": "main.go", "content": "%s"}]}`, content)
	return fmt.Sprintf(wrap, payload)
}

func TestGenerateDecodesProposal(t *testing.T) {
	tests := []struct {
		name string
		wrap string
	}{
		{"bare json", "%s"},
		{"fenced json", "```json\n%s\n```"},
		{"fenced without language", "```\n%s\n```"},
		{"prose around json", "Here is my proposal:\n\n%s\n\nLet me know."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{response: wireResponse(tt.wrap)}
			svc := New(client)

			p, err := svc.Generate(context.Background(), "fix the build", "Build failed with 1 error.")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(p.Operations) != 1 {
				t.Fatalf("expected 1 operation, got %d", len(p.Operations))
			}
			op := p.Operations[0]
			if op.Kind != proposal.OpUpdate || op.Path != "main.go" || op.Content != "package main\n" {
				t.Errorf("unexpected operation: %+v", op)
			}
		})
	}
}

func TestGeneratePromptCarriesGoalAndSummary(t *testing.T) {
	client := &fakeClient{response: wireResponse("%s")}
	svc := New(client)

	if _, err := svc.Generate(context.Background(), "add logging", "Build succeeded."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(client.lastUser, "add logging") {
		t.Error("prompt is missing the operator goal")
	}
	if !strings.Contains(client.lastUser, "Build succeeded.") {
		t.Error("prompt is missing the build summary")
	}
}

func TestGeneratePromptIncludesContext(t *testing.T) {
	client := &fakeClient{response: wireResponse("%s")}
	svc := New(client).WithContextProvider(&fakeContext{snippets: "--- main.go ---\npackage main"})

	if _, err := svc.Generate(context.Background(), "fix it", "Build failed with 1 error."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(client.lastUser, "--- main.go ---") {
		t.Error("prompt is missing the repository context")
	}
}

func TestGenerateNoJSONIsDecodeError(t *testing.T) {
	client := &fakeClient{response: "I cannot produce a proposal for that."}
	svc := New(client)

	_, err := svc.Generate(context.Background(), "fix it", "Build failed with 1 error.")
	var decodeErr *proposal.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *proposal.DecodeError, got %v", err)
	}
}

func TestGenerateClientErrorPropagates(t *testing.T) {
	cause := errors.New("connection refused")
	client := &fakeClient{err: cause}
	svc := New(client)

	_, err := svc.Generate(context.Background(), "fix it", "Build failed with 1 error.")
	if !errors.Is(err, cause) {
		t.Fatalf("expected the transport error to propagate, got %v", err)
	}
}

func TestGenerateEmptyOperationsPassesThrough(t *testing.T) {
	// The service hands empty proposals to the engine untouched; the
	// engine decides they are failures.
	client := &fakeClient{response: `{"operations": []}`}
	svc := New(client)

	p, err := svc.Generate(context.Background(), "fix it", "Build succeeded.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Operations) != 0 {
		t.Errorf("expected no operations, got %d", len(p.Operations))
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"braces in strings", `{"a": "}{"}`, `{"a": "}{"}`},
		{"escaped quotes", `{"a": "say \"hi\""}`, `{"a": "say \"hi\""}`},
		{"no object", "nothing here", ""},
		{"unbalanced", `{"a": 1`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.raw); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
