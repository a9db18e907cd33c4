// internal/cli/batch.go
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/profiler/internal/app"
	"github.com/law-makers/profiler/internal/engine"
	"github.com/law-makers/profiler/internal/report"
	"github.com/law-makers/profiler/internal/ui"
	"github.com/law-makers/profiler/pkg/models"
)

var (
	batchMode       string
	batchNoProgress bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze every profile listed in a CSV or Excel file",
	Long: `Reads LinkedIn profile URLs from one column of a CSV or .xlsx file and
processes them one at a time through a single logged-in browser session,
pausing a few seconds around each profile.

Three files are written to the output directory: batch_results_<mode>_<stamp>.csv,
batch_errors_<mode>_<stamp>.csv (only when a profile failed) and
batch_summary_<mode>_<stamp>.txt.
A profile that fails is recorded and the batch continues.`,
	Example: `  # Bios for every URL in the profile_url column
  profiler batch people.csv

  # A different column and every analysis mode
  profiler batch leads.xlsx --column=LinkedIn --mode=all

  # Stop after five failures in a row
  profiler batch people.csv --max-failures=5 --output-dir=reports`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return finish(cmd, runBatch(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchMode, "mode", "m", string(models.ModeBio), "Analysis mode: bio, summary, analysis, or all")
	batchCmd.Flags().String("column", "", "Column holding the profile URLs (default profile_url)")
	batchCmd.Flags().String("output-dir", "", "Directory for the result files (default: current directory)")
	batchCmd.Flags().Int("max-failures", 0, "Stop after this many consecutive failures (0 = never)")
	batchCmd.Flags().BoolVar(&batchNoProgress, "no-progress", false, "Hide the progress bar")
}

func runBatch(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	modes, err := models.ExpandModes(batchMode)
	if err != nil {
		return err
	}

	ids, err := engine.ParseFile(args[0], a.Config.URLColumn)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n📄 Found %d LinkedIn profile URLs in %s\n", len(ids), args[0])

	// Per-profile failures never surface here, so any error stops the remaining modes
	for _, mode := range modes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := runBatchMode(cmd, a, ids, mode); err != nil {
			return err
		}
	}
	return nil
}

// runBatchMode processes ids for one mode and writes its artifacts. Artifacts
// are written even when the batch stops early so that no outcome is lost.
func runBatchMode(cmd *cobra.Command, a *app.Application, ids []models.ProfileIdentifier, mode models.AnalysisMode) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "\n%s\n", ui.Bold(fmt.Sprintf("🚀 Batch %s (%d profiles)", mode.Title(), len(ids))))

	bar := newProgressBar(cmd.ErrOrStderr(), len(ids), mode, batchNoProgress)
	succeeded, failed := 0, 0
	orch, err := a.Orchestrator(ctx, func(o models.Outcome) {
		if _, ok := o.(*models.Success); ok {
			succeeded++
		} else {
			failed++
		}
		bar.Describe(fmt.Sprintf("%s ✓%d ✗%d", mode, succeeded, failed))
		_ = bar.Add(1)
	})
	if err != nil {
		return err
	}

	run, runErr := orch.Run(ctx, ids, mode)
	_ = bar.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())

	arts, writeErr := a.Reports.Write(run)
	printArtifacts(out, arts)
	printRunSummary(out, run)

	if runErr != nil {
		return runErr
	}
	return writeErr
}

func newProgressBar(w io.Writer, total int, mode models.AnalysisMode, hidden bool) *progressbar.ProgressBar {
	if hidden {
		w = io.Discard
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(string(mode)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
	)
}

func printArtifacts(w io.Writer, arts *report.Artifacts) {
	if arts == nil {
		return
	}
	for _, f := range []struct{ label, path string }{
		{"Results", arts.Results},
		{"Errors", arts.Errors},
		{"Summary", arts.Summary},
	} {
		if f.path != "" {
			fmt.Fprintf(w, "%s %s\n", ui.Success(f.label+":"), f.path)
		}
	}
}

func printRunSummary(w io.Writer, run *models.BatchRun) {
	if run == nil {
		return
	}
	ok := len(run.Successes())
	fmt.Fprintf(w, "\nProcessed %d profiles: %d succeeded, %d failed (success rate %s) in %s\n",
		run.Total(), ok, len(run.Failures()),
		report.SuccessRate(ok, run.Total()),
		run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
}
