package auditlog

import (
	"fmt"
	"testing"
)

func TestLogAppendOrder(t *testing.T) {
	l := New()

	for i := 0; i < 5; i++ {
		l.Info(fmt.Sprintf("entry %d", i))
	}

	entries := l.Entries()
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}
	for i, e := range entries {
		want := fmt.Sprintf("entry %d", i)
		if e.Message != want {
			t.Errorf("entry %d: expected %q, got %q", i, want, e.Message)
		}
		if e.ID == "" {
			t.Errorf("entry %d has no id", i)
		}
		if e.Timestamp.IsZero() {
			t.Errorf("entry %d has no timestamp", i)
		}
	}
}

func TestLogKinds(t *testing.T) {
	l := New()
	l.Info("a")
	l.Warning("b")
	l.Error("c")
	l.Action("d")

	wants := []Kind{KindInfo, KindWarning, KindError, KindAction}
	entries := l.Entries()
	for i, want := range wants {
		if entries[i].Kind != want {
			t.Errorf("entry %d: expected kind %q, got %q", i, want, entries[i].Kind)
		}
	}
}

func TestLogOptions(t *testing.T) {
	l := New()
	e := l.Error("apply failed",
		WithDetails("disk full"),
		WithProposal("prop-1"),
		WithOperation("op-2"))

	if e.Details != "disk full" || e.ProposalID != "prop-1" || e.OperationID != "op-2" {
		t.Errorf("options not applied: %+v", e)
	}

	got, ok := l.Get(e.ID)
	if !ok {
		t.Fatal("entry not found by id")
	}
	if got.Message != "apply failed" {
		t.Errorf("unexpected message: %q", got.Message)
	}
}

func TestLogByProposal(t *testing.T) {
	l := New()
	l.Info("unrelated")
	l.Action("applied a", WithProposal("p1"))
	l.Action("applied b", WithProposal("p2"))
	l.Action("applied c", WithProposal("p1"))

	entries := l.ByProposal("p1")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for p1, got %d", len(entries))
	}
	if entries[0].Message != "applied a" || entries[1].Message != "applied c" {
		t.Errorf("entries out of order: %v", entries)
	}
}

func TestLogSink(t *testing.T) {
	l := New()

	var relayed []Entry
	l.SetSink(func(e Entry) { relayed = append(relayed, e) })

	l.Info("one")
	l.Error("two")

	if len(relayed) != 2 {
		t.Fatalf("expected 2 relayed entries, got %d", len(relayed))
	}
	if relayed[1].Message != "two" {
		t.Errorf("unexpected relayed entry: %+v", relayed[1])
	}
}

func TestLogEntriesReturnsCopy(t *testing.T) {
	l := New()
	l.Info("original")

	entries := l.Entries()
	entries[0].Message = "mutated"

	if l.Entries()[0].Message != "original" {
		t.Error("mutating the returned slice must not affect the log")
	}
}
