package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func userLine(session, cwd, ts, text string) string {
	return fmt.Sprintf(`{"type":"user","sessionId":%q,"cwd":%q,"timestamp":%q,"message":{"role":"user","content":%q}}`, session, cwd, ts, text)
}

func userPartsLine(session, ts, text string) string {
	return fmt.Sprintf(`{"type":"user","sessionId":%q,"cwd":"/w","timestamp":%q,"message":{"role":"user","content":[{"type":"tool_result","content":"ignored"},{"type":"text","text":%q}]}}`, session, ts, text)
}

func writeStream(t *testing.T, root, project, name string, lines ...string) string {
	t.Helper()
	dir := filepath.Join(root, project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLocatePicksNewestMatch(t *testing.T) {
	root := t.TempDir()
	writeStream(t, root, "proj-a", "s1.jsonl",
		userLine("s1", "/work/a", "2025-06-01T10:00:00Z", "Please REVERT that"),
	)
	newest := writeStream(t, root, "proj-b", "s2.jsonl",
		userLine("s2", "/work/b", "2025-06-01T11:00:00Z", "revert the last change"),
	)
	writeStream(t, root, "proj-b", "s3.jsonl",
		userLine("s3", "/work/c", "2025-06-01T12:00:00Z", "something unrelated"),
	)

	got, err := NewLocator(root, 0).Locate("revert")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.Path != newest || got.StreamID != "s2" || got.WorkingDirectory != "/work/b" {
		t.Errorf("Locate() = %+v, want stream s2", got)
	}
}

func TestLocateMatchesTextParts(t *testing.T) {
	root := t.TempDir()
	writeStream(t, root, "p", "s.jsonl", userPartsLine("sx", "2025-06-01T10:00:00Z", "Undo My Edit"))

	got, err := NewLocator(root, 5).Locate("undo my")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.StreamID != "sx" {
		t.Errorf("StreamID = %q, want sx", got.StreamID)
	}
}

func TestLocateOnlyInspectsTail(t *testing.T) {
	root := t.TempDir()
	lines := []string{userLine("old", "/w", "2025-06-01T10:00:00Z", "revert")}
	for i := 0; i < 5; i++ {
		lines = append(lines, `{"type":"assistant","message":{"role":"assistant","content":"ok"}}`)
	}
	writeStream(t, root, "p", "s.jsonl", lines...)

	if _, err := NewLocator(root, 5).Locate("revert"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a match outside the tail window, got %v", err)
	}
	if _, err := NewLocator(root, 6).Locate("revert"); err != nil {
		t.Fatalf("a wider tail should find the match: %v", err)
	}
}

func TestLocateTieBreaksOnPath(t *testing.T) {
	root := t.TempDir()
	ts := "2025-06-01T10:00:00Z"
	writeStream(t, root, "p", "b.jsonl", userLine("b", "/w", ts, "revert"))
	first := writeStream(t, root, "p", "a.jsonl", userLine("a", "/w", ts, "revert"))

	got, err := NewLocator(root, 0).Locate("revert")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.Path != first {
		t.Errorf("tie should resolve to %s, got %s", first, got.Path)
	}
}

func TestLocateFallsBackToFileName(t *testing.T) {
	root := t.TempDir()
	writeStream(t, root, "p", "abc-123.jsonl", `{"type":"user","timestamp":"2025-06-01T10:00:00Z","message":{"role":"user","content":"revert"}}`)

	got, err := NewLocator(root, 0).Locate("revert")
	if err != nil {
		t.Fatalf("Locate failed: %v", err)
	}
	if got.StreamID != "abc-123" {
		t.Errorf("StreamID = %q, want abc-123", got.StreamID)
	}
}

func TestLocateToleratesMalformedStreams(t *testing.T) {
	root := t.TempDir()
	writeStream(t, root, "p", "broken.jsonl", `{"type":"user"`, `garbage`)
	writeStream(t, root, "p", "notes.txt", userLine("txt", "/w", "2025-06-01T10:00:00Z", "revert"))
	if err := os.WriteFile(filepath.Join(root, "stray.jsonl"), []byte(userLine("x", "/w", "2025-06-01T10:00:00Z", "revert")), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLocator(root, 0).Locate("revert"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocateMissingRoot(t *testing.T) {
	_, err := NewLocator(filepath.Join(t.TempDir(), "nope"), 0).Locate("revert")
	if !errors.Is(err, ErrLogRootMissing) {
		t.Fatalf("expected ErrLogRootMissing, got %v", err)
	}
}
