package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

const (
	MinCount = 1
	MaxCount = 10

	// DefaultMessage is searched for when no message is given.
	DefaultMessage = "revert"
)

// Config holds all the command-line flag values.
type Config struct {
	Count       int
	Message     string
	History     string
	HistoryFile string
	Transcript  bool
	LogRoot     string
	Tail        int
	LookupDirs  []string
	DryRun      bool
	Nvim        bool
	Serve       bool
	NoAnimation bool
	Verbose     bool
}

// environment supplies defaults that flags override.
type environment struct {
	LogRoot string `env:"VIBEDOCTOR_LOG_ROOT"`
	Tail    int    `env:"VIBEDOCTOR_TAIL" envDefault:"5"`
	Verbose bool   `env:"VIBEDOCTOR_VERBOSE"`
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	return Parse(os.Args[1:])
}

// Parse reads environment defaults, then the given arguments.
func Parse(args []string) (*Config, error) {
	var defaults environment
	if err := env.Parse(&defaults); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if defaults.LogRoot == "" {
		defaults.LogRoot = DefaultLogRoot()
	}

	cfg := &Config{}
	flags := pflag.NewFlagSet("vibedoctor", pflag.ContinueOnError)

	flags.IntVarP(&cfg.Count, "count", "n", 1, "Number of recent changes to revert (1-10).")
	flags.StringVarP(&cfg.Message, "message", "m", DefaultMessage, "Text of the message you sent in the session to revert; used to find that session.")
	flags.StringVarP(&cfg.History, "history", "H", "", "Conversation text holding earlier revert tags, so repeated reverts continue where the last one stopped.")
	flags.StringVar(&cfg.HistoryFile, "history-file", "", "Read conversation history from a file.")
	flags.BoolVarP(&cfg.Transcript, "transcript", "t", false, "Revert edits shown in a pasted terminal transcript (stdin or clipboard) instead of the session log.")
	flags.StringVar(&cfg.LogRoot, "log-root", defaults.LogRoot, "Directory holding one folder per project with one .jsonl log per session (env VIBEDOCTOR_LOG_ROOT).")
	flags.IntVar(&cfg.Tail, "tail", defaults.Tail, "How many trailing entries of each session log are searched (env VIBEDOCTOR_TAIL).")
	flags.StringSliceVarP(&cfg.LookupDirs, "lookup-dir", "l", []string{}, "Directories used to resolve relative paths in a transcript (default: current directory).")
	flags.BoolVarP(&cfg.DryRun, "dry-run", "d", false, "Show what would be reverted without writing any file.")
	flags.BoolVar(&cfg.Nvim, "nvim", false, "Write reverted files through Neovim buffers.")
	flags.BoolVarP(&cfg.Serve, "serve", "s", false, "Run as an MCP server on stdio exposing revert_last_changes.")
	flags.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the loading spinner and print the report directly.")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", defaults.Verbose, "Log skipped log entries and each reversal to stderr.")

	flags.Usage = func() {
		fmt.Println("Usage: vibedoctor [flags]")
		fmt.Println("\nRevert the last file changes an AI coding assistant made, rebuilt from its session log.")
		fmt.Println("\nExamples:")
		fmt.Println("  vibedoctor -n 2 -m \"undo that\"")
		fmt.Println("  pbpaste | vibedoctor --transcript")
		fmt.Println("  vibedoctor --serve")
		fmt.Println("\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	// Validate mutually exclusive flags
	if cfg.Serve && cfg.Transcript {
		return nil, fmt.Errorf("error: --serve and --transcript are mutually exclusive")
	}

	if cfg.HistoryFile != "" {
		data, err := os.ReadFile(cfg.HistoryFile)
		if err != nil {
			return nil, fmt.Errorf("could not read history file: %w", err)
		}
		cfg.History = strings.TrimSpace(cfg.History + "\n" + string(data))
	}

	cfg.Count = ClampCount(cfg.Count)
	cfg.LogRoot = ExpandHome(cfg.LogRoot)
	if strings.TrimSpace(cfg.Message) == "" {
		cfg.Message = DefaultMessage
	}
	return cfg, nil
}

// ClampCount forces n into [MinCount, MaxCount]; zero or negative means one.
func ClampCount(n int) int {
	if n < MinCount {
		return MinCount
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

// DefaultLogRoot is ~/.claude/projects.
func DefaultLogRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", "projects")
	}
	return filepath.Join(home, ".claude", "projects")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
