package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sokinpui/vibedoctor/cli"
	"github.com/sokinpui/vibedoctor/internal/fs"
	"github.com/sokinpui/vibedoctor/internal/mcp"
	"github.com/sokinpui/vibedoctor/internal/nvim"
	"github.com/sokinpui/vibedoctor/internal/tui"
	"github.com/sokinpui/vibedoctor/internal/ui"
	"github.com/sokinpui/vibedoctor/model"
	"github.com/sokinpui/vibedoctor/revert"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := cli.ParseFlags()
	if err != nil {
		// pflag already prints the error message.
		return 1
	}
	ui.SetVerbose(cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store fs.Store
	if cfg.Nvim {
		manager, err := nvim.New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Neovim: %v\n", err)
			return 1
		}
		defer manager.Close()
		store = manager
	}

	app := revert.New(cfg, store)

	if cfg.Serve {
		if err := mcp.NewServer(app).Serve(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if cfg.NoAnimation {
		summary, err := app.Execute(ctx)
		if err != nil && summary.Status != model.StatusFailed {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println(revert.Report(summary))
		return revert.ExitCode(summary)
	}

	p := tea.NewProgram(tui.New(ctx, app))
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		return 1
	}
	return final.(tui.Model).ExitCode()
}
