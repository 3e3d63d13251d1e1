package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"evokit/pkg/evokit"
)

func newRunsCommand(global *globalFlags) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			client, err := global.client(cmd, evokit.Options{})
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			runs, err := client.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tLANDSCAPE\tSTATE\tGENERATIONS\tBEST\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.RunID, r.Landscape, r.State,
					humanize.Comma(int64(r.Generations)),
					humanize.FtoaWithDigits(r.BestFitness, 6),
					humanize.Time(r.StartedAt),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to list")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit runs as JSON")
	return cmd
}

func newSummariesCommand(global *globalFlags) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "summaries [run-id]",
		Short: "Show per-generation statistics of a run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := global.client(cmd, evokit.Options{})
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			summaries, err := client.Summaries(cmd.Context(), optionalArg(args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, summaries)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GEN\tBEST\tMEAN\tMEDIAN\tWORST\tSTDDEV\tDIVERSITY\tEVALS")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					s.Generation,
					humanize.FtoaWithDigits(s.Best, 4),
					humanize.FtoaWithDigits(s.Mean, 4),
					humanize.FtoaWithDigits(s.Median, 4),
					humanize.FtoaWithDigits(s.Worst, 4),
					humanize.FtoaWithDigits(s.StdDev, 4),
					s.Diversity,
					humanize.Comma(int64(s.Evaluations)),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit summaries as JSON")
	return cmd
}

func newPopulationCommand(global *globalFlags) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "population [run-id]",
		Short: "Show the last stored population of a run, fittest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := global.client(cmd, evokit.Options{})
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			snapshot, err := client.Population(cmd.Context(), optionalArg(args), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, snapshot)
			}
			fmt.Fprintf(out, "run_id=%s generation=%d members=%d\n", snapshot.RunID, snapshot.Generation, len(snapshot.Members))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFITNESS\tBORN\tGENOME")
			for _, m := range snapshot.Members {
				fitness := "-"
				if m.Valid {
					fitness = humanize.FtoaWithDigits(m.Fitness, 6)
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.ID, fitness, m.Born, m.Genome)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "max members to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the population as JSON")
	return cmd
}

func newExportCommand(global *globalFlags) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Write a run's record, history CSV and population to a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := global.client(cmd, evokit.Options{})
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			dir, err := client.Export(cmd.Context(), optionalArg(args), outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported=%s\n", dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "exports", "output directory")
	return cmd
}

func newOperatorsCommand() *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "operators",
		Short: "List registered operators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			specs, err := evokit.Operators(family)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FAMILY\tNAME\tDESCRIPTION")
			for _, s := range specs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Family, s.Name, s.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&family, "family", "", "selection|reproduction|mutation|integration|clash")
	return cmd
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
