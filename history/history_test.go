package history

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	s := newTestStore(t)

	texts := []string{"first entry", "second entry", "third entry"}
	for _, text := range texts {
		if _, err := s.Append(text, "en", 2*time.Second); err != nil {
			t.Fatalf("Append(%q): %v", text, err)
		}
		// UnixNano keys must differ for a stable order.
		time.Sleep(time.Millisecond)
	}

	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent returned %d entries, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Text != "third entry" || entries[2].Text != "first entry" {
		t.Errorf("order = %q, %q, %q", entries[0].Text, entries[1].Text, entries[2].Text)
	}

	e := entries[0]
	if e.ID == "" {
		t.Error("entry has no ID")
	}
	if e.Language != "en" {
		t.Errorf("Language = %q, want en", e.Language)
	}
	if e.Duration != 2*time.Second {
		t.Errorf("Duration = %v, want 2s", e.Duration)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestRecent_Limit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		if _, err := s.Append("entry", "", time.Second); err != nil {
			t.Fatalf("Append: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	entries, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Recent(2) returned %d entries", len(entries))
	}

	if got, err := s.Recent(0); err != nil || got != nil {
		t.Errorf("Recent(0) = %v, %v; want nil, nil", got, err)
	}
}

func TestRecent_Empty(t *testing.T) {
	s := newTestStore(t)
	entries, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent on empty store returned %d entries", len(entries))
	}
}
