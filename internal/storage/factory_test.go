package storage

import "testing"

func TestNewStoreDefaultsToMemory(t *testing.T) {
	store, err := NewStore("", "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestNewStoreRejectsUnknownKind(t *testing.T) {
	if _, err := NewStore("postgres", ""); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestCaseKey(t *testing.T) {
	if got := CaseKey("sweep", 12); got != "sweep-case12" {
		t.Fatalf("CaseKey = %q", got)
	}
}
