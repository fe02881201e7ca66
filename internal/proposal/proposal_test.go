package proposal

import (
	"encoding/base64"
	"errors"
	"testing"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestOperationValidate(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		wantErr bool
	}{
		{"valid create", Operation{ID: "1", Kind: OpCreate, Path: "a.go", Content: "x"}, false},
		{"valid update", Operation{ID: "2", Kind: OpUpdate, Path: "a.go", Content: "x"}, false},
		{"valid delete without content", Operation{ID: "3", Kind: OpDelete, Path: "a.go"}, false},
		{"create without content", Operation{ID: "4", Kind: OpCreate, Path: "a.go"}, true},
		{"update without content", Operation{ID: "5", Kind: OpUpdate, Path: "a.go"}, true},
		{"empty path", Operation{ID: "6", Kind: OpDelete}, true},
		{"bad kind", Operation{ID: "7", Kind: "move", Path: "a.go"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOperationValidateMissingContentType(t *testing.T) {
	op := Operation{ID: "1", Kind: OpCreate, Path: "a.go"}
	var missing *MissingFieldError
	if !errors.As(op.Validate(), &missing) {
		t.Fatal("expected *MissingFieldError for absent content")
	}
	if missing.Field != "content" || missing.OperationID != "1" {
		t.Errorf("unexpected error fields: %+v", missing)
	}
}

func TestProposalValidateRejectsEmpty(t *testing.T) {
	p := New(nil)
	if err := p.Validate(); err == nil {
		t.Error("expected an error for a proposal with no operations")
	}
}

func TestDecode(t *testing.T) {
	data := []byte(`{
		"id": "prop-1",
		"operations": [
			{"id": "op-1", "kind": "create", "path": "cmd/main.go", "language": "go", "content": "` + b64("package main") + `"},
			{"id": "op-2", "kind": "delete", "path": "old.go"}
		]
	}`)

	p, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "prop-1" {
		t.Errorf("expected proposal id prop-1, got %s", p.ID)
	}
	if len(p.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(p.Operations))
	}
	if p.Operations[0].Content != "package main" {
		t.Errorf("content was not base64-decoded: %q", p.Operations[0].Content)
	}
	if p.Operations[1].Kind != OpDelete || p.Operations[1].Content != "" {
		t.Errorf("unexpected delete operation: %+v", p.Operations[1])
	}
}

func TestDecodeAssignsIDs(t *testing.T) {
	data := []byte(`{"operations": [{"kind": "delete", "path": "a.go"}]}`)

	p, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == "" {
		t.Error("expected a generated proposal id")
	}
	if p.Operations[0].ID == "" {
		t.Error("expected a generated operation id")
	}
}

func TestDecodeAllowsEmptyOperations(t *testing.T) {
	// Whether an empty proposal is acceptable is engine policy; the codec
	// only enforces structure.
	p, err := Decode([]byte(`{"operations": []}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Operations) != 0 {
		t.Errorf("expected no operations, got %d", len(p.Operations))
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantDecode  bool
		wantMissing bool
	}{
		{"malformed json", `{"operations": [`, true, false},
		{"bad kind", `{"operations": [{"kind": "rename", "path": "a.go"}]}`, true, false},
		{"missing path", `{"operations": [{"kind": "delete"}]}`, true, false},
		{"missing content on create", `{"operations": [{"id": "x", "kind": "create", "path": "a.go"}]}`, false, true},
		{"invalid base64", `{"operations": [{"kind": "update", "path": "a.go", "content": "not-base64!!"}]}`, true, false},
		{"operations not an array", `{"operations": "nope"}`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if err == nil {
				t.Fatal("expected an error")
			}

			var decodeErr *DecodeError
			var missingErr *MissingFieldError
			if got := errors.As(err, &decodeErr); got != tt.wantDecode {
				t.Errorf("errors.As(*DecodeError) = %v, want %v (err: %v)", got, tt.wantDecode, err)
			}
			if got := errors.As(err, &missingErr); got != tt.wantMissing {
				t.Errorf("errors.As(*MissingFieldError) = %v, want %v (err: %v)", got, tt.wantMissing, err)
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := New([]Operation{
		{ID: "op-1", Kind: OpCreate, Path: "a.go", Language: "go", Content: "package a\n\nfunc A() {}\n"},
		{ID: "op-2", Kind: OpDelete, Path: "b.go"},
	})

	data, err := Encode(original)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.ID != original.ID {
		t.Errorf("proposal id changed: %s != %s", decoded.ID, original.ID)
	}
	if len(decoded.Operations) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(decoded.Operations))
	}
	if decoded.Operations[0].Content != original.Operations[0].Content {
		t.Error("create content did not survive the round trip")
	}
	if decoded.Operations[1].Content != "" {
		t.Error("delete operation should carry no content")
	}
}
