// Package generator turns an operator goal plus a build status summary
// into a file-edit proposal by prompting an LLM provider.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/1amageek/Wisdom/internal/proposal"
)

// Client is the minimal provider surface the generator needs: one
// system+user completion per request. Implementations must honor ctx
// cancellation so abandoned requests are torn down.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ContextProvider supplies repository context snippets relevant to the
// goal. Optional; a nil provider means prompts carry no code context.
type ContextProvider interface {
	Context(ctx context.Context, query string, limit int) (string, error)
}

const systemPrompt = `You are a coding agent that fixes and improves software projects.
You receive the operator's goal and the latest build status, and you respond
with a JSON proposal of file operations.

Respond with ONLY a JSON object, optionally inside a json code fence:
{
  "operations": [
    {"kind": "create|update|delete", "path": "relative/path", "language": "go", "content": "<base64 of full file content>"}
  ]
}

Rules:
- "content" is the complete new file content, base64-encoded. Required for
  create and update, omitted for delete.
- Paths are relative to the project root. Never reference paths outside it.
- Operations are applied in order.
- If you cannot improve the project, return {"operations": []}.`

const contextSnippetLimit = 5

// Service builds prompts, calls the provider, and decodes the response.
type Service struct {
	client  Client
	context ContextProvider
}

// New creates a generation service around a provider client.
func New(client Client) *Service {
	return &Service{client: client}
}

// WithContextProvider attaches a repository context source.
func (s *Service) WithContextProvider(p ContextProvider) *Service {
	s.context = p
	return s
}

// Generate requests a proposal for the given goal and build summary.
// Decode failures propagate as the proposal package's typed errors so the
// engine can classify them.
func (s *Service) Generate(ctx context.Context, message, buildSummary string) (*proposal.Proposal, error) {
	user := s.buildPrompt(ctx, message, buildSummary)

	raw, err := s.client.Complete(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}

	payload := extractJSON(raw)
	if payload == "" {
		return nil, &proposal.DecodeError{Field: "response", Err: fmt.Errorf("no JSON object in provider response")}
	}

	return proposal.Decode([]byte(payload))
}

func (s *Service) buildPrompt(ctx context.Context, message, buildSummary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n\n", message)
	fmt.Fprintf(&b, "Build status: %s\n", buildSummary)

	if s.context != nil {
		if snippets, err := s.context.Context(ctx, message, contextSnippetLimit); err == nil && snippets != "" {
			b.WriteString("\nRelevant project context:\n")
			b.WriteString(snippets)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nProduce the proposal now.")
	return b.String()
}

// extractJSON pulls the first JSON object out of a provider response,
// handling fenced blocks and surrounding prose.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if idx := strings.Index(raw, "```"); idx >= 0 {
		rest := raw[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			raw = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(raw, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1]
				}
			}
		}
	}
	return ""
}
