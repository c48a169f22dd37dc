package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	if err := os.WriteFile(filepath.Join(second, "found.go"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	r := NewPathResolver([]string{first, second})

	if got := r.Resolve("found.go"); got != filepath.Join(second, "found.go") {
		t.Errorf("Resolve(found.go) = %s", got)
	}
	if got := r.Resolve("missing.go"); got != filepath.Join(first, "missing.go") {
		t.Errorf("Resolve(missing.go) = %s", got)
	}
	if got := r.Resolve("/abs/./x.go"); got != "/abs/x.go" {
		t.Errorf("Resolve(/abs/./x.go) = %s", got)
	}
}

func TestDiskStoreKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.sh")
	if err := os.WriteFile(path, []byte("old"), 0755); err != nil {
		t.Fatal(err)
	}

	var store DiskStore
	if err := store.WriteFile(path, []byte("new")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := store.ReadFile(path)
	if err != nil || string(data) != "new" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}
