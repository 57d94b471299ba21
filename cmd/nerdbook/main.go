// Package main provides the nerdbook CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"nerdbook/cmd/nerdbook/book"
	"nerdbook/cmd/nerdbook/ui"
	"nerdbook/internal/config"
	"nerdbook/internal/logging"
	"nerdbook/internal/notebook"
	"nerdbook/internal/sandbox"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	demo       bool

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nerdbook",
	Short: "nerdbook - an interactive Go notebook",
	Long: `nerdbook is a notebook of Go cells evaluated by an embedded interpreter.

A cell runs either alone or with context: every active cell above it is
re-executed first, in order, in a fresh interpreter. Cells report the value
of their last expression under Output and everything passed to console.Log
(or printed with fmt) under Console.

Run without arguments to start the interactive notebook.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		// Interactive mode owns the terminal
		if cmd == cmd.Root() {
			logger = zap.NewNop()
			return nil
		}

		zc := zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runInteractive,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.nerdbook/config.yaml)")
	rootCmd.Flags().BoolVar(&demo, "demo", false, "Start with the demo cells")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the workspace, loads and validates the config and
// initializes file logging.
func loadConfig() error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	workspace = ws

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath(ws)
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded

	err = logging.Initialize(logging.Options{
		DebugMode:  cfg.Logging.DebugMode,
		Dir:        cfg.LogDir(ws),
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.Format == "json",
		Categories: cfg.Logging.Categories,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("config loaded from %s", path)
	return nil
}

func resolveWorkspace() (string, error) {
	if workspace != "" {
		return filepath.Abs(workspace)
	}
	return os.Getwd()
}

// newNotebook builds a notebook wired to a Yaegi executor from the config.
func newNotebook(c *config.Config) *notebook.Notebook {
	exec := sandbox.NewYaegiExecutor(
		sandbox.WithPrelude(c.Sandbox.Prelude...),
		sandbox.WithStdoutCapture(c.Sandbox.CaptureStdout),
	)
	return notebook.New(
		notebook.WithExecutor(exec),
		notebook.WithRefreshPreceding(c.Notebook.RefreshPreceding),
	)
}

// newPaneRenderer builds the Output/Console renderer for the configured theme.
func newPaneRenderer(c *config.Config) (ui.Styles, *ui.PaneRenderer, error) {
	styles := ui.NewStyles(ui.ThemeFor(c.UI.IsDark(ui.DetectDark())))
	panes, err := ui.NewPaneRenderer(styles, c.UI.Markdown, c.UI.WordWrap)
	return styles, panes, err
}

// runInteractive starts the notebook TUI.
func runInteractive(cmd *cobra.Command, args []string) error {
	nb := newNotebook(cfg)
	if demo || cfg.Notebook.SeedDemo {
		nb.SeedDemo()
	}

	styles, panes, err := newPaneRenderer(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logging.UI("starting interactive notebook")
	p := tea.NewProgram(book.New(ctx, nb, styles, panes), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("notebook UI failed: %w", err)
	}
	return nil
}
