package memory

import (
	"context"
	"testing"

	ports "riel/internal/sheets"
)

func TestAppendEntry(t *testing.T) {
	a := New()

	ref, err := a.AppendEntry(context.Background(), ports.Entry{Action: "created", ID: "t1"})
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}
	if ref != "memory!A1" {
		t.Errorf("ref = %q, want memory!A1", ref)
	}

	ref, _ = a.AppendEntry(context.Background(), ports.Entry{Action: "deleted", ID: "t2"})
	if ref != "memory!A2" {
		t.Errorf("ref = %q, want memory!A2", ref)
	}

	entries := a.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].ID != "t1" || entries[1].ID != "t2" {
		t.Errorf("entries out of order: %+v", entries)
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	a := New()
	a.AppendEntry(context.Background(), ports.Entry{ID: "t1"})

	got := a.Entries()
	got[0].ID = "mutated"

	if a.Entries()[0].ID != "t1" {
		t.Error("Entries should return a copy")
	}
}
