package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/houseprice/artifact"
	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
	"github.com/YuminosukeSato/houseprice/pkg/server"
	"github.com/YuminosukeSato/houseprice/preprocessing"
	"github.com/YuminosukeSato/houseprice/selection"
)

const previewRows = 5

func newLoadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a CSV and preview its first rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := a.cfg.Data.RawPath
			overrideString(cmd, "input", &input)
			t := a.loader().Load(input)
			preview(cmd.OutOrStdout(), t)
			return nil
		},
	}
	cmd.Flags().String("input", "", "CSV to load (default: data.raw_path)")
	return cmd
}

func newCleanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Drop sparse columns, fill missing values and save the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := a.cfg.Data.RawPath, a.cfg.Data.CleanedPath
			overrideString(cmd, "input", &input)
			overrideString(cmd, "output", &output)
			t, err := a.loadNonEmpty(input)
			if err != nil {
				return err
			}
			if _, saved := a.clean(cmd.OutOrStdout(), t, output); !saved {
				return errors.Newf("could not save cleaned data to %s", output)
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "raw CSV (default: data.raw_path)")
	cmd.Flags().String("output", "", "cleaned CSV (default: data.cleaned_path)")
	return cmd
}

func newEngineerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engineer",
		Short: "Derive features, one-hot encode categoricals and save the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := a.cfg.Data.CleanedPath, a.cfg.Data.EngineeredPath
			overrideString(cmd, "input", &input)
			overrideString(cmd, "output", &output)
			t, err := a.loadNonEmpty(input)
			if err != nil {
				return err
			}
			if _, saved := a.engineer(cmd.OutOrStdout(), t, output); !saved {
				return errors.Newf("could not save engineered data to %s", output)
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "cleaned CSV (default: data.cleaned_path)")
	cmd.Flags().String("output", "", "engineered CSV (default: data.engineered_path)")
	return cmd
}

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the candidate models and persist the best one",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := a.cfg.Data.EngineeredPath
			overrideString(cmd, "input", &input)
			overrideString(cmd, "artifact", &a.cfg.Training.ArtifactPath)
			overrideString(cmd, "plot", &a.cfg.Training.PlotPath)
			t, err := a.loadNonEmpty(input)
			if err != nil {
				return err
			}
			return a.train(cmd.OutOrStdout(), t)
		},
	}
	cmd.Flags().String("input", "", "engineered CSV (default: data.engineered_path)")
	cmd.Flags().String("artifact", "", "artifact path (default: training.artifact_path)")
	cmd.Flags().String("plot", "", "optional actual-vs-predicted chart (png or svg)")
	return cmd
}

func newPipelineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run load, clean, engineer and train in sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := a.cfg.Data.RawPath
			overrideString(cmd, "input", &input)
			overrideString(cmd, "artifact", &a.cfg.Training.ArtifactPath)
			out := cmd.OutOrStdout()

			t, err := a.loadNonEmpty(input)
			if err != nil {
				return err
			}
			// Intermediate CSVs are a convenience; training continues from memory.
			t, saved := a.clean(out, t, a.cfg.Data.CleanedPath)
			if !saved {
				printWarning(out, "Continuing without cleaned data file %s", a.cfg.Data.CleanedPath)
			}
			t, saved = a.engineer(out, t, a.cfg.Data.EngineeredPath)
			if !saved {
				printWarning(out, "Continuing without engineered data file %s", a.cfg.Data.EngineeredPath)
			}
			return a.train(out, t)
		},
	}
	cmd.Flags().String("input", "", "raw CSV (default: data.raw_path)")
	cmd.Flags().String("artifact", "", "artifact path (default: training.artifact_path)")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions from a trained artifact over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, addr := a.cfg.Training.ArtifactPath, a.cfg.Serve.Addr
			overrideString(cmd, "artifact", &path)
			overrideString(cmd, "addr", &addr)

			log.SetupLogger(a.cfg.LogLevel)
			art, err := artifact.Load(path)
			if err != nil {
				return err
			}
			printInfo(cmd.OutOrStdout(), "Serving %s (R2 %.4f) on %s", art.ModelName, art.Metrics.R2, addr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(art, slog.Default()).Run(ctx, addr)
		},
	}
	cmd.Flags().String("artifact", "", "artifact path (default: training.artifact_path)")
	cmd.Flags().String("addr", "", "listen address (default: serve.addr)")
	return cmd
}

func (a *app) loader() *dataset.Loader {
	return dataset.NewLoader(dataset.WithLoaderLogger(a.logger("loader")))
}

// loadNonEmpty loads path. The loader only logs failures, so an empty Table
// is turned into an error here to stop the stage.
func (a *app) loadNonEmpty(path string) (*dataset.Table, error) {
	t := a.loader().Load(path)
	if t.IsEmpty() {
		return nil, errors.NewValueError("load", fmt.Sprintf("no data loaded from %s", path))
	}
	return t, nil
}

// clean returns the cleaned table and whether it was written to output.
func (a *app) clean(out io.Writer, t *dataset.Table, output string) (*dataset.Table, bool) {
	c := preprocessing.NewCleaner(
		preprocessing.WithLogger(a.logger("cleaner")),
		preprocessing.WithConsole(out),
		preprocessing.WithThreshold(a.cfg.Cleaning.MissingThreshold),
	)
	cleaned := c.Clean(t)
	return cleaned, c.Save(cleaned, output)
}

func (a *app) engineer(out io.Writer, t *dataset.Table, output string) (*dataset.Table, bool) {
	fe := preprocessing.NewFeatureEngineer(
		preprocessing.WithLogger(a.logger("features")),
		preprocessing.WithConsole(out),
	)
	engineered, report := fe.Engineer(t)
	for _, s := range report.Skipped {
		printWarning(out, "Skipped feature %s: %v", s.Feature, s.Err)
	}
	return engineered, fe.Save(engineered, output)
}

func (a *app) train(out io.Writer, t *dataset.Table) error {
	tc := a.cfg.Training
	s := selection.NewSelector(
		selection.WithFeatures(tc.Features...),
		selection.WithTarget(tc.Target),
		selection.WithSeed(tc.Seed),
		selection.WithTestSize(tc.TestSize),
		selection.WithParallel(tc.Parallel),
		selection.WithArtifactPath(tc.ArtifactPath),
		selection.WithPlotPath(tc.PlotPath),
		selection.WithLogger(a.logger("selector")),
		selection.WithConsole(out),
	)
	result, err := s.Run(t)
	if err != nil {
		return err
	}
	printSuccess(out, "Training finished: %s (R2 %.4f), run %s", result.Best.Name, result.Best.Metrics.R2, result.Artifact.ID)
	return nil
}

func preview(w io.Writer, t *dataset.Table) {
	if t.IsEmpty() {
		fmt.Fprintln(w, "Table is empty.")
		return
	}
	rows, cols := t.Shape()
	fmt.Fprintf(w, "%d rows x %d columns\n", rows, cols)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	names := t.Names()
	for j, n := range names {
		if j > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, n)
	}
	fmt.Fprintln(tw)
	for i := 0; i < min(previewRows, rows); i++ {
		for j, v := range t.Row(i) {
			if j > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, v)
		}
		fmt.Fprintln(tw)
	}
	tw.Flush()
}
