package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"neuromlcap/internal/storage"
	api "neuromlcap/pkg/neuromlcap"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

type globalFlags struct {
	Verbose   bool
	Quiet     bool
	Output    string
	OutputDir string
	Store     string
	DBPath    string
}

// cli carries the parsed global flags into subcommands. executor is nil
// outside tests, which selects the configured engine binary.
type cli struct {
	flags    globalFlags
	executor api.Executor
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&cli{})
}

func newRootCmdWith(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "neuromlcap",
		Short: "Characterise NeuroML cell models",
		Long: `neuromlcap selects representative segments of a NeuroML cell, generates
step-current and Poisson-input simulations that record them, runs the
simulations with a LEMS engine and plots the results.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.validateFlags,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.flags.Verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVarP(&c.flags.Quiet, "quiet", "q", false, "Only log warnings and errors")
	pf.StringVarP(&c.flags.Output, "output", "o", string(formatText), "Output format (text|json|yaml)")
	pf.StringVar(&c.flags.OutputDir, "output-dir", "", "Directory for new analyses (default: config output_dir)")
	pf.StringVar(&c.flags.Store, "store", storage.DefaultStoreKind(), "Analysis index backend: memory|sqlite")
	pf.StringVar(&c.flags.DBPath, "db-path", "neuromlcap.db", "sqlite database path")

	root.AddCommand(
		c.fullCmd(),
		c.analyseCmd(),
		c.generateCmd(),
		c.plotCmd(),
		c.showCmd(),
		c.runsCmd(),
		c.exportCmd(),
	)
	return root
}

func execute(ctx context.Context, root *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return root.ExecuteContext(ctx)
}

func (c *cli) validateFlags(cmd *cobra.Command, _ []string) error {
	if c.flags.Verbose && c.flags.Quiet {
		return usageError{msg: "--verbose and --quiet cannot be used together"}
	}
	switch outputFormat(c.flags.Output) {
	case formatText, formatJSON, formatYAML:
	default:
		return usageError{msg: fmt.Sprintf("unsupported output format %q", c.flags.Output)}
	}
	return nil
}

// logger writes to stderr: text on a terminal, JSON otherwise.
func (c *cli) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case c.flags.Verbose:
		level = slog.LevelDebug
	case c.flags.Quiet:
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	w := cmd.ErrOrStderr()
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func (c *cli) client(cmd *cobra.Command) (*api.Client, error) {
	return api.New(api.Options{
		StoreKind: c.flags.Store,
		DBPath:    c.flags.DBPath,
		OutputDir: c.flags.OutputDir,
		Logger:    c.logger(cmd),
		Executor:  c.executor,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
