package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	api "neuromlcap/pkg/neuromlcap"
)

func (c *cli) fullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "full CONFIG",
		Short: "Generate, run and plot a fresh analysis",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalysis(cmd, api.RunRequest{ConfigPath: args[0], Execute: true, Plot: true})
		},
	}
}

func (c *cli) analyseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "analyse CONFIG",
		Aliases: []string{"analyze"},
		Short:   "Generate and run a fresh analysis",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalysis(cmd, api.RunRequest{ConfigPath: args[0], Execute: true})
		},
	}
}

func (c *cli) generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate CONFIG",
		Short: "Select segments and write simulation files without running them",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalysis(cmd, api.RunRequest{ConfigPath: args[0]})
		},
	}
}

func (c *cli) plotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot CONFIG DIR",
		Short: "Plot an existing analysis directory",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			start := time.Now()
			summary, err := client.Plot(cmd.Context(), api.PlotRequest{ConfigPath: args[0], Dir: args[1]})
			if err != nil {
				return err
			}
			c.printSummary(cmd, "plotted", summary, start)
			return nil
		},
	}
}

func (c *cli) runAnalysis(cmd *cobra.Command, req api.RunRequest) error {
	client, err := c.client(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	start := time.Now()
	summary, err := client.Run(cmd.Context(), req)
	if err != nil {
		if summary.Dir != "" {
			cmd.PrintErrf("analysis directory left in place: %s\n", summary.Dir)
		}
		return err
	}
	verb := "generated"
	switch {
	case summary.Plotted:
		verb = "analysed and plotted"
	case summary.Executed:
		verb = "analysed"
	}
	c.printSummary(cmd, verb, summary, start)
	return nil
}

func (c *cli) printSummary(cmd *cobra.Command, verb string, s api.RunSummary, start time.Time) {
	out := cmd.OutOrStdout()
	switch outputFormat(c.flags.Output) {
	case formatJSON:
		_ = writeJSON(out, s)
		return
	case formatYAML:
		_ = writeYAML(out, s)
		return
	}
	if c.flags.Quiet {
		fmt.Fprintln(out, s.Dir)
		return
	}
	took := strings.TrimSpace(humanize.RelTime(start, time.Now(), "", ""))
	color.New(color.FgGreen).Fprintf(out, "✓ %s %s in %s\n", verb, s.AnalysisID, took)
	fmt.Fprintf(out, "  dir:      %s\n", s.Dir)
	if s.Segments > 0 {
		fmt.Fprintf(out, "  segments: %d\n", s.Segments)
	}
	if s.Jobs > 0 {
		fmt.Fprintf(out, "  jobs:     %s\n", humanize.Comma(int64(s.Jobs)))
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError{msg: fmt.Sprintf("%s: expected %d argument(s), got %d (usage: %s)", cmd.Name(), n, len(args), cmd.UseLine())}
		}
		return nil
	}
}
