package proposal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// DecodeError indicates that a wire field was present but could not be
// decoded (malformed JSON, invalid base64). Distinct from MissingFieldError
// so transport corruption and generator omissions log differently.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MissingFieldError indicates a required wire field was absent.
type MissingFieldError struct {
	Field       string
	OperationID string
}

func (e *MissingFieldError) Error() string {
	if e.OperationID != "" {
		return fmt.Sprintf("operation %s is missing required field %q", e.OperationID, e.Field)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

// wireOperation is the transport form of an Operation. Content travels as
// a base64-encoded string so arbitrary file bytes survive JSON transport.
type wireOperation struct {
	ID       string  `json:"id"`
	Language string  `json:"language,omitempty"`
	Kind     string  `json:"kind"`
	Path     string  `json:"path"`
	Content  *string `json:"content,omitempty"`
}

type wireProposal struct {
	ID         string          `json:"id,omitempty"`
	Operations []wireOperation `json:"operations"`
	Timestamp  string          `json:"timestamp,omitempty"`
}

// proposalSchema validates the structural shape of an incoming proposal
// before field-level decoding. Conditional rules (content required for
// create/update) are enforced in code since they depend on kind.
const proposalSchema = `{
	"type": "object",
	"required": ["operations"],
	"properties": {
		"id": {"type": "string"},
		"timestamp": {"type": "string"},
		"operations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["kind", "path"],
				"properties": {
					"id": {"type": "string"},
					"language": {"type": "string"},
					"kind": {"type": "string", "enum": ["create", "update", "delete"]},
					"path": {"type": "string", "minLength": 1},
					"content": {"type": "string"}
				}
			}
		}
	}
}`

var compiledSchema = gojsonschema.NewStringLoader(proposalSchema)

// Decode parses a wire-encoded proposal. Schema violations and malformed
// base64 surface as *DecodeError; absent required content surfaces as
// *MissingFieldError. Decode does not reject empty operation lists; that
// policy belongs to the engine (an empty proposal is a generation failure,
// not a decode failure).
func Decode(data []byte) (*Proposal, error) {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &DecodeError{Field: "proposal", Err: err}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, &DecodeError{Field: "proposal", Err: fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))}
	}

	var wire wireProposal
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &DecodeError{Field: "proposal", Err: err}
	}

	p := &Proposal{
		ID:        wire.ID,
		Timestamp: time.Now(),
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if wire.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, wire.Timestamp); err == nil {
			p.Timestamp = ts
		}
	}

	for _, wop := range wire.Operations {
		op := Operation{
			ID:       wop.ID,
			Language: wop.Language,
			Kind:     OperationKind(wop.Kind),
			Path:     wop.Path,
		}
		if op.ID == "" {
			op.ID = uuid.NewString()
		}
		switch op.Kind {
		case OpCreate, OpUpdate:
			if wop.Content == nil {
				return nil, &MissingFieldError{Field: "content", OperationID: op.ID}
			}
			raw, err := base64.StdEncoding.DecodeString(*wop.Content)
			if err != nil {
				return nil, &DecodeError{Field: "content", Err: err}
			}
			op.Content = string(raw)
		case OpDelete:
			// Content is ignored for deletes even if supplied.
		}
		p.Operations = append(p.Operations, op)
	}

	return p, nil
}

// Encode serializes a proposal to its wire form, base64-encoding content
// for create/update operations and omitting it for deletes.
func Encode(p *Proposal) ([]byte, error) {
	wire := wireProposal{
		ID:        p.ID,
		Timestamp: p.Timestamp.Format(time.RFC3339),
	}
	for _, op := range p.Operations {
		wop := wireOperation{
			ID:       op.ID,
			Language: op.Language,
			Kind:     string(op.Kind),
			Path:     op.Path,
		}
		if op.Kind == OpCreate || op.Kind == OpUpdate {
			encoded := base64.StdEncoding.EncodeToString([]byte(op.Content))
			wop.Content = &encoded
		}
		wire.Operations = append(wire.Operations, wop)
	}
	return json.Marshal(wire)
}
