package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"evokit/internal/config"
	"evokit/internal/evo"
	"evokit/pkg/evokit"
)

type runFlags struct {
	configPath string
	runID      string
	seed       int64
	seedSet    bool
	jsonOut    bool
	progress   string
	metrics    bool
}

func newRunCommand(global *globalFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the experiment described by a YAML config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.seedSet = cmd.Flags().Changed("seed")
			return runExperiment(cmd, global, flags)
		},
	}
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "run config file (YAML)")
	cmd.Flags().StringVar(&flags.runID, "run-id", "", "run id (random when empty)")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "override the config seed")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "emit the run summary as JSON")
	cmd.Flags().StringVar(&flags.progress, "progress", "auto", "per-generation progress on stderr: auto|always|never")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "print collected run metrics")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runExperiment(cmd *cobra.Command, global *globalFlags, flags *runFlags) error {
	run, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.seedSet {
		run.Seed = flags.seed
	}

	var reg *prometheus.Registry
	opts := evokit.Options{}
	if flags.metrics {
		reg = prometheus.NewRegistry()
		opts.Registerer = reg
	}
	client, err := global.client(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := evokit.RunRequest{RunID: flags.runID, Config: run}
	show, err := showProgress(flags.progress, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if show {
		req.Reporters = append(req.Reporters, progressReporter(cmd.ErrOrStderr()))
	}

	summary, runErr := client.Run(cmd.Context(), req)
	if show {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if summary.RunID == "" {
		return runErr
	}

	out := cmd.OutOrStdout()
	if flags.jsonOut {
		if err := writeJSON(out, summary); err != nil {
			return err
		}
	} else {
		printRunSummary(out, summary)
	}
	if reg != nil {
		if err := printMetrics(out, reg); err != nil {
			return err
		}
	}
	return runErr
}

func showProgress(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid progress mode %q", mode)
	}
}

func progressReporter(w io.Writer) evo.Reporter {
	return evo.ReporterFunc(func(_ context.Context, s evo.Snapshot) error {
		_, err := fmt.Fprintf(w, "\rgeneration %s best=%s mean=%s diversity=%d",
			humanize.Comma(int64(s.Summary.Generation)),
			humanize.FtoaWithDigits(s.Summary.Best, 4),
			humanize.FtoaWithDigits(s.Summary.Mean, 4),
			s.Summary.Diversity,
		)
		return err
	})
}

func printRunSummary(w io.Writer, s evokit.RunSummary) {
	var evaluations int
	for _, h := range s.History {
		evaluations += h.Evaluations
	}
	fmt.Fprintf(w, "run_id=%s\n", s.RunID)
	fmt.Fprintf(w, "state=%s reason=%s\n", s.State, s.Reason)
	fmt.Fprintf(w, "generations=%s evaluations=%s duration=%s\n",
		humanize.Comma(int64(s.Generations)), humanize.Comma(int64(evaluations)), s.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "best_fitness=%s\n", humanize.FtoaWithDigits(s.BestFitness, 6))
	if s.BestGenome != "" {
		fmt.Fprintf(w, "best_genome=%s\n", s.BestGenome)
	}
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "run" {
					continue
				}
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			value := m.GetGauge().GetValue()
			if m.GetCounter() != nil {
				value = m.GetCounter().GetValue()
			}
			fmt.Fprintf(w, "metric %s%s %s\n", mf.GetName(), labels, humanize.Ftoa(value))
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
