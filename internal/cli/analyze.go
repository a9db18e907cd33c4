// internal/cli/analyze.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/law-makers/profiler/internal/app"
	"github.com/law-makers/profiler/internal/engine"
	"github.com/law-makers/profiler/internal/report"
	"github.com/law-makers/profiler/internal/summarize"
	"github.com/law-makers/profiler/internal/ui"
	urlutil "github.com/law-makers/profiler/internal/utils/url"
	"github.com/law-makers/profiler/pkg/models"
)

var (
	analyzeMode   string
	analyzeOutput string
	analyzeSave   bool
	analyzeSample bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [profile-url]",
	Short: "Scrape one profile and print its AI summary",
	Long: `Opens the stored LinkedIn session, reads one profile and asks Gemini for
the requested analysis. With --mode=all the bio, summary and analysis are
generated in turn from a single scrape.

Use --sample to try the prompts on a built-in profile without a browser.`,
	Example: `  # Professional bio for one profile
  profiler analyze https://www.linkedin.com/in/jane-doe

  # Every mode, saved as JSON
  profiler analyze https://www.linkedin.com/in/jane-doe --mode=all --save

  # Try the prompts without LinkedIn
  profiler analyze --sample --mode=summary`,
	Args: func(cmd *cobra.Command, args []string) error {
		if analyzeSample {
			return cobra.MaximumNArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return finish(cmd, runAnalyze(cmd, args))
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeMode, "mode", "m", string(models.ModeBio), "Analysis mode: bio, summary, analysis, or all")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Save the profile and results as JSON to this path")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Save the profile and results as JSON in the output directory")
	analyzeCmd.Flags().BoolVar(&analyzeSample, "sample", false, "Use a built-in sample profile instead of scraping")
	analyzeCmd.Flags().String("output-dir", "", "Directory for saved results (default: current directory)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	modes, err := models.ExpandModes(analyzeMode)
	if err != nil {
		return err
	}

	// Fail before the browser starts when the API key is missing
	summarizer, err := a.Summarizer(ctx)
	if err != nil {
		return err
	}

	var rec *models.ProfileRecord
	if analyzeSample {
		rec = summarize.SampleProfile()
		fmt.Fprintln(out, ui.Info("Using sample profile data"))
	} else {
		id, err := urlutil.ParseProfileURL(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "🔍 Scraping %s\n", id)
		rec, err = scrapeOne(ctx, a, id)
		if err != nil {
			return err
		}
	}

	printProfile(out, rec)

	var results []*models.AnalysisResult
	for _, mode := range modes {
		fmt.Fprintf(out, "\n🤖 Generating %s...\n", strings.ToLower(mode.Title()))
		res, err := summarizer.Summarize(ctx, rec, mode)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error().Err(err).Str("mode", string(mode)).Msg("Analysis failed")
			fmt.Fprintln(out, ui.Error(fmt.Sprintf("%s failed: %v", mode.Title(), err)))
			continue
		}
		fmt.Fprintf(out, "\n%s", report.RenderAnalysis(res))
		results = append(results, res)
	}

	if len(results) == 0 {
		return engine.NewEngineError(engine.ErrCodeAnalysis, "no analysis could be generated", nil)
	}

	if path := analyzeOutput; path != "" || analyzeSave {
		if path == "" {
			path = a.Reports.AnalysisFileName(rec, modes)
		}
		if err := a.Reports.SaveAnalysis(path, rec, results); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", ui.Success("Result saved to: "+path))
	}

	if len(results) < len(modes) {
		return fmt.Errorf("%d of %d analyses failed", len(modes)-len(results), len(modes))
	}
	fmt.Fprintf(out, "\n%s\n", ui.Success("Done"))
	return nil
}

// scrapeOne opens a session, logs in and reads a single profile
func scrapeOne(ctx context.Context, a *app.Application, id models.ProfileIdentifier) (*models.ProfileRecord, error) {
	session, err := a.OpenSession(ctx, app.LoginOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Error closing browser session")
		}
	}()

	if err := session.Authenticate(ctx); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeAuthentication, "failed to login to LinkedIn", err)
	}

	rec, err := engine.NewProcessor(a.Cache, a.Config.CacheTTL).Process(ctx, session, id)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return rec, nil
}

// printProfile writes the scraped fields the way a reviewer reads them
func printProfile(w io.Writer, rec *models.ProfileRecord) {
	fmt.Fprintf(w, "\n%s\n", ui.Bold("📋 Profile"))
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(w, "Name:       %s\n", valueOr(rec.Name))
	fmt.Fprintf(w, "Headline:   %s\n", valueOr(rec.Headline))
	fmt.Fprintf(w, "About:      %s\n", valueOr(truncate(rec.About, 200)))
	fmt.Fprintf(w, "Skills:     %s\n", valueOr(strings.Join(rec.Skills, ", ")))
	fmt.Fprintf(w, "Experience: %d entries\n", len(rec.Experience))
	shown := 0
	for i, exp := range rec.Experience {
		if shown == 3 {
			fmt.Fprintf(w, "  ... and %d more\n", len(rec.Experience)-i)
			break
		}
		if line := experienceLine(exp); line != "" {
			fmt.Fprintf(w, "  • %s\n", line)
			shown++
		}
	}
}

// experienceLine renders whichever of title and company is known
func experienceLine(exp models.Experience) string {
	title, company := strings.TrimSpace(exp.Title), strings.TrimSpace(exp.Company)
	switch {
	case title != "" && company != "":
		return title + " at " + company
	case title != "":
		return title
	default:
		return company
	}
}

func valueOr(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// truncate shortens s to n runes, marking the cut
func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}
