package marker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadAbsent(t *testing.T) {
	if id, ok := Read(t.TempDir()); ok {
		t.Errorf("expected no marker, got %q", id)
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	if err := Write(dir, "dolor"); err != nil {
		t.Fatalf("write: %v", err)
	}

	id, ok := Read(dir)
	if !ok {
		t.Fatal("expected marker to exist")
	}
	if id != "dolor" {
		t.Errorf("id = %q, want dolor", id)
	}
}

func TestLastWriteWins(t *testing.T) {
	dir := t.TempDir()

	for _, id := range []string{"Lorem", "ipsum", "dolor"} {
		if err := Write(dir, id); err != nil {
			t.Fatalf("write %q: %v", id, err)
		}
	}

	id, ok := Read(dir)
	if !ok || id != "dolor" {
		t.Errorf("id = %q, ok = %v, want dolor", id, ok)
	}
}

func TestCommentIgnoredOnRead(t *testing.T) {
	dir := t.TempDir()
	content := "abc123\nanything below the first line is a comment\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	id, ok := Read(dir)
	if !ok || id != "abc123" {
		t.Errorf("id = %q, ok = %v, want abc123", id, ok)
	}
}

func TestEmptyMarkerTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if id, ok := Read(dir); ok {
		t.Errorf("expected empty marker to be absent, got %q", id)
	}
}
