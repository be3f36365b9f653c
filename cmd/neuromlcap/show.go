package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	api "neuromlcap/pkg/neuromlcap"
)

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show DIR",
		Short: "Print the selection and jobs persisted in an analysis directory",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			view, err := client.Provenance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch outputFormat(c.flags.Output) {
			case formatJSON:
				return writeJSON(out, view)
			case formatYAML:
				return writeYAML(out, view)
			}
			return printProvenance(out, view)
		},
	}
}

func printProvenance(w io.Writer, view api.ProvenanceView) error {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s\n", view.Dir)
	fmt.Fprintf(w, "cell: %s  seed: %d\n\n", view.CellFile, view.Seed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEGMENT\tSIZE\tCOLOR")
	for _, s := range view.Segments {
		fmt.Fprintf(tw, "%s\t%g\t%s\n", s.ID, s.MarkerSize, hexColor(s.MarkerColor))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(view.Inputs) > 0 {
		fmt.Fprintf(w, "\ninput segments:")
		for _, s := range view.Inputs {
			fmt.Fprintf(w, " %s", s.ID)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOB\tFAMILY\tSIMFILE\tLABEL")
	for _, j := range view.Jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, j.Family, j.SimFile, j.Label)
	}
	return tw.Flush()
}

func (c *cli) runsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List indexed analyses, newest first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			records, err := client.Runs(cmd.Context(), api.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch outputFormat(c.flags.Output) {
			case formatJSON:
				return writeJSON(out, records)
			case formatYAML:
				return writeYAML(out, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "no analyses found")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tCELL\tSEED\tSEGMENTS\tJOBS\tEXECUTED\tDIR")
			for _, r := range records {
				created := r.CreatedAtUTC
				if t, err := time.Parse(time.RFC3339, r.CreatedAtUTC); err == nil {
					created = humanize.Time(t)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%t\t%s\n", created, r.CellFile, r.Seed, r.Segments, r.Jobs, r.Executed, r.Dir)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of analyses to list (0 for all)")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export DIR OUT",
		Short: "Copy the provenance files of an analysis directory",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			dst, err := client.Export(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ exported %s\n", dst)
			return nil
		},
	}
}

func hexColor(c [4]float64) string {
	b := func(v float64) int { return int(v*255 + 0.5) }
	return fmt.Sprintf("#%02x%02x%02x", b(c[0]), b(c[1]), b(c[2]))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
