package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/law-makers/profiler/internal/engine"
	urlutil "github.com/law-makers/profiler/internal/utils/url"
	"github.com/law-makers/profiler/pkg/models"
)

// AnalysisFile is the JSON document saved by the analyze command
type AnalysisFile struct {
	Profile *models.ProfileRecord    `json:"profile"`
	Results []*models.AnalysisResult `json:"results"`
	SavedAt time.Time                `json:"saved_at"`
}

// AnalysisFileName returns the default file name for a single-profile analysis
func (w *Writer) AnalysisFileName(rec *models.ProfileRecord, modes []models.AnalysisMode) string {
	slug := urlutil.Slug(rec.URL)
	if slug == "" {
		slug = "profile"
	}
	label := "all"
	if len(modes) == 1 {
		label = string(modes[0])
	}
	return w.path(fmt.Sprintf("analysis_%s_%s_%s.json", label, slug, w.now().Format(fileStamp)))
}

// SaveAnalysis writes rec and its results to path as indented JSON
func (w *Writer) SaveAnalysis(path string, rec *models.ProfileRecord, results []*models.AnalysisResult) error {
	doc := AnalysisFile{Profile: rec, Results: results, SavedAt: w.now().UTC()}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return engine.NewEngineError(engine.ErrCodePersistence, "could not create output directory", err)
		}
	}

	err := writeAtomic(path, func(out io.Writer) error {
		enc := json.NewEncoder(out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	})
	if err != nil {
		return engine.NewEngineError(engine.ErrCodePersistence, "could not save analysis", err).WithDetail("path", path)
	}
	return nil
}

// RenderAnalysis formats one result for the terminal
func RenderAnalysis(r *models.AnalysisResult) string {
	bar := strings.Repeat("=", 60)
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n", bar, strings.ToUpper(r.Mode.Title()), bar, strings.TrimSpace(r.Text), bar)
}
