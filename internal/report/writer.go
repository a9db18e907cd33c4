package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/law-makers/profiler/internal/engine"
	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog/log"
)

// ResultColumns is the header of the results artifact
var ResultColumns = []string{
	"profile_url", "name", "headline", "about",
	"experience_raw", "experience_formatted", "experience_count",
	"skills_raw", "skills_formatted", "skills_count",
	"education_raw", "education_formatted", "education_count",
	"analysis_result", "analysis_mode", "timestamp", "processing_index",
	"scraping_success", "analysis_success",
}

// ErrorColumns is the header of the errors artifact
var ErrorColumns = []string{"profile_url", "error", "index", "timestamp", "error_type"}

const (
	ErrorTypeScraping = "scraping_error"
	ErrorTypeAnalysis = "analysis_error"

	fileStamp = "20060102_150405"
)

// Artifacts names the files produced for one run. Errors is empty when the run had no failures.
type Artifacts struct {
	Results string
	Errors  string
	Summary string
}

// Writer turns a BatchRun into results, errors and summary files in one directory
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a Writer for dir ("" means the working directory)
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// Write stores the three artifacts for run. Each file appears complete or not at
// all; a failure part way leaves the files already written in place and returns
// a persistence error naming them.
func (w *Writer) Write(run *models.BatchRun) (*Artifacts, error) {
	if w.dir != "" {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return nil, engine.NewEngineError(engine.ErrCodePersistence, "could not create output directory", err).
				WithDetail("dir", w.dir)
		}
	}

	now := w.now()
	stamp := now.Format(fileStamp)
	arts := &Artifacts{}

	resultsPath := w.path(fmt.Sprintf("batch_results_%s_%s.csv", run.Mode, stamp))
	if err := writeAtomic(resultsPath, func(out io.Writer) error {
		return writeResults(out, run)
	}); err != nil {
		return arts, persistenceError("results", resultsPath, arts, err)
	}
	arts.Results = resultsPath

	if failures := run.Failures(); len(failures) > 0 {
		errorsPath := w.path(fmt.Sprintf("batch_errors_%s_%s.csv", run.Mode, stamp))
		if err := writeAtomic(errorsPath, func(out io.Writer) error {
			return writeErrors(out, failures, now)
		}); err != nil {
			return arts, persistenceError("errors", errorsPath, arts, err)
		}
		arts.Errors = errorsPath
	}

	summaryPath := w.path(fmt.Sprintf("batch_summary_%s_%s.txt", run.Mode, stamp))
	if err := writeAtomic(summaryPath, func(out io.Writer) error {
		return writeSummary(out, run, now)
	}); err != nil {
		return arts, persistenceError("summary", summaryPath, arts, err)
	}
	arts.Summary = summaryPath

	log.Info().
		Str("run_id", run.ID).
		Str("results", arts.Results).
		Str("errors", arts.Errors).
		Str("summary", arts.Summary).
		Msg("Batch artifacts written")

	return arts, nil
}

func (w *Writer) path(name string) string {
	if w.dir == "" {
		return name
	}
	return filepath.Join(w.dir, name)
}

func persistenceError(kind, path string, written *Artifacts, err error) error {
	return engine.NewEngineError(engine.ErrCodePersistence, "could not write "+kind+" file", err).
		WithDetail("path", path).
		WithDetail("written", written.list())
}

func (a *Artifacts) list() []string {
	var out []string
	for _, p := range []string{a.Results, a.Errors, a.Summary} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeAtomic writes through a temp file in the target directory and renames it into place
func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := fill(tmp); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}

func writeResults(out io.Writer, run *models.BatchRun) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(ResultColumns); err != nil {
		return err
	}
	for _, s := range run.Successes() {
		row, err := resultRow(s, run.Mode)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func resultRow(s *models.Success, mode models.AnalysisMode) ([]string, error) {
	rec := s.Record

	experienceRaw, err := rawJSON(nonNil(rec.Experience))
	if err != nil {
		return nil, err
	}
	skillsRaw, err := rawJSON(nonNil(rec.Skills))
	if err != nil {
		return nil, err
	}
	educationRaw, err := rawJSON(nonNil(rec.Education))
	if err != nil {
		return nil, err
	}

	analysisText := ""
	if s.Analysis != nil {
		analysisText = s.Analysis.Text
	}

	return []string{
		rec.URL.String(),
		rec.Name,
		rec.Headline,
		rec.About,
		experienceRaw,
		FormatExperience(rec.Experience),
		strconv.Itoa(len(rec.Experience)),
		skillsRaw,
		strings.Join(rec.Skills, "; "),
		strconv.Itoa(len(rec.Skills)),
		educationRaw,
		strings.Join(rec.Education, "; "),
		strconv.Itoa(len(rec.Education)),
		analysisText,
		string(mode),
		s.CapturedAt.Format(time.RFC3339),
		strconv.Itoa(s.Index),
		yesNo(strings.TrimSpace(rec.Name) != ""),
		yesNo(s.Analysis.OK()),
	}, nil
}

// FormatExperience renders positions as "Title at Company" joined by "; ".
// Positions missing either part are left out of the display string.
func FormatExperience(exps []models.Experience) string {
	parts := make([]string, 0, len(exps))
	for _, e := range exps {
		if e.Title == "" || e.Company == "" {
			continue
		}
		parts = append(parts, e.Title+" at "+e.Company)
	}
	return strings.Join(parts, "; ")
}

func writeErrors(out io.Writer, failures []*models.Failure, now time.Time) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(ErrorColumns); err != nil {
		return err
	}
	ts := now.Format(time.RFC3339)
	for _, f := range failures {
		if err := cw.Write([]string{
			f.Identifier.String(),
			f.Reason,
			strconv.Itoa(f.Index),
			ts,
			ErrorType(f.Reason),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ErrorType classifies a failure reason for the errors artifact
func ErrorType(reason string) string {
	if strings.Contains(reason, "Failed to scrape") {
		return ErrorTypeScraping
	}
	return ErrorTypeAnalysis
}

func writeSummary(out io.Writer, run *models.BatchRun, now time.Time) error {
	successes := run.Successes()
	failures := run.Failures()

	var b strings.Builder
	b.WriteString("LinkedIn Profile Analyzer - Batch Processing Summary\n")
	fmt.Fprintf(&b, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Analysis Mode: %s\n", run.Mode)
	fmt.Fprintf(&b, "Total Profiles Processed: %d\n", run.Total())
	fmt.Fprintf(&b, "Successful Scrapes: %d\n", len(successes))
	fmt.Fprintf(&b, "Failed Scrapes: %d\n", len(failures))
	fmt.Fprintf(&b, "Success Rate: %s\n\n", SuccessRate(len(successes), run.Total()))

	if len(successes) > 0 {
		b.WriteString("Successfully Processed Profiles:\n")
		for _, s := range successes {
			name := s.Record.Name
			if name == "" {
				name = "Unknown"
			}
			fmt.Fprintf(&b, "- %s (%s)\n", name, s.Record.URL)
		}
	}

	if len(failures) > 0 {
		b.WriteString("\nFailed Profiles:\n")
		for _, f := range failures {
			fmt.Fprintf(&b, "- %s: %s\n", f.Identifier, f.Reason)
		}
	}

	_, err := io.WriteString(out, b.String())
	return err
}

// SuccessRate formats succeeded/total as a one-decimal percentage, or "N/A" when total is 0
func SuccessRate(succeeded, total int) string {
	if total <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", float64(succeeded)/float64(total)*100)
}

func rawJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
