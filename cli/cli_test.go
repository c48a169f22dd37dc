package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	for _, key := range []string{"VIBEDOCTOR_LOG_ROOT", "VIBEDOCTOR_TAIL", "VIBEDOCTOR_VERBOSE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Count != 1 || cfg.Message != DefaultMessage || cfg.Tail != 5 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !strings.HasSuffix(cfg.LogRoot, filepath.Join(".claude", "projects")) {
		t.Errorf("LogRoot = %s", cfg.LogRoot)
	}
}

func TestParseEnvironmentThenFlags(t *testing.T) {
	t.Setenv("VIBEDOCTOR_LOG_ROOT", "/from/env")
	t.Setenv("VIBEDOCTOR_TAIL", "9")

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.LogRoot != "/from/env" || cfg.Tail != 9 {
		t.Errorf("env defaults not applied: %+v", cfg)
	}

	cfg, err = Parse([]string{"--log-root", "/from/flag", "--tail", "2"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.LogRoot != "/from/flag" || cfg.Tail != 2 {
		t.Errorf("flags should override env: %+v", cfg)
	}
}

func TestParseClampsCount(t *testing.T) {
	for arg, want := range map[string]int{"0": 1, "-3": 1, "4": 4, "11": 10} {
		cfg, err := Parse([]string{"--count=" + arg})
		if err != nil {
			t.Fatalf("Parse(--count=%s) failed: %v", arg, err)
		}
		if cfg.Count != want {
			t.Errorf("--count=%s: Count = %d, want %d", arg, cfg.Count, want)
		}
	}
}

func TestParseMutuallyExclusive(t *testing.T) {
	if _, err := Parse([]string{"--serve", "--transcript"}); err == nil {
		t.Fatal("expected an error for --serve with --transcript")
	}
}

func TestParseHistoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	if err := os.WriteFile(path, []byte("[VIBEDOCTOR CHANGES: 2]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Parse([]string{"-H", "[VIBEDOCTOR CHANGES: 1]", "--history-file", path})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.History != "[VIBEDOCTOR CHANGES: 1]\n[VIBEDOCTOR CHANGES: 2]" {
		t.Errorf("History = %q", cfg.History)
	}

	if _, err := Parse([]string{"--history-file", filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected an error for a missing history file")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/logs"); got != filepath.Join(home, "logs") {
		t.Errorf("ExpandHome(~/logs) = %s", got)
	}
	if got := ExpandHome("/abs"); got != "/abs" {
		t.Errorf("ExpandHome(/abs) = %s", got)
	}
}
