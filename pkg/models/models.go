package models

import (
	"fmt"
	"strings"
	"time"
)

// ProfileIdentifier is a normalized profile URL (https://www.linkedin.com/in/<slug>).
// Values are produced by urlutil.ParseProfileURL and never modified afterwards.
type ProfileIdentifier string

// String returns the identifier as a plain URL string
func (p ProfileIdentifier) String() string {
	return string(p)
}

// Experience is one position listed on a profile
type Experience struct {
	Title   string `json:"title"`
	Company string `json:"company"`
}

// ProfileRecord represents the attributes extracted from one profile page.
// A record without a Name is treated as an extraction failure.
type ProfileRecord struct {
	Name       string            `json:"name"`
	Headline   string            `json:"headline,omitempty"`
	About      string            `json:"about,omitempty"`
	Experience []Experience      `json:"experience"`
	Skills     []string          `json:"skills"`
	Education  []string          `json:"education"`
	URL        ProfileIdentifier `json:"url"`
}

// AnalysisMode selects the kind of text generated for a profile
type AnalysisMode string

const (
	ModeBio      AnalysisMode = "bio"
	ModeSummary  AnalysisMode = "summary"
	ModeAnalysis AnalysisMode = "analysis"

	// ModeAll is accepted on the command line only; callers expand it with ExpandModes.
	ModeAll AnalysisMode = "all"
)

// AllModes lists the concrete analysis modes in the order they are run for "all"
var AllModes = []AnalysisMode{ModeBio, ModeSummary, ModeAnalysis}

// ParseMode validates a concrete analysis mode token
func ParseMode(s string) (AnalysisMode, error) {
	switch m := AnalysisMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeBio, ModeSummary, ModeAnalysis:
		return m, nil
	default:
		return "", fmt.Errorf("invalid analysis mode: %q (must be bio, summary, or analysis)", s)
	}
}

// ExpandModes turns a command-line mode token into the list of modes to run.
// "all" expands to every concrete mode; anything else must be a valid mode.
func ExpandModes(s string) ([]AnalysisMode, error) {
	if AnalysisMode(strings.ToLower(strings.TrimSpace(s))) == ModeAll {
		return append([]AnalysisMode(nil), AllModes...), nil
	}
	m, err := ParseMode(s)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis mode: %q (must be bio, summary, analysis, or all)", s)
	}
	return []AnalysisMode{m}, nil
}

// Title returns a display name for the mode
func (m AnalysisMode) Title() string {
	switch m {
	case ModeBio:
		return "Bio"
	case ModeSummary:
		return "Summary"
	case ModeAnalysis:
		return "Analysis"
	}
	return string(m)
}

// AnalysisResult is the generated text for one profile in one mode
type AnalysisResult struct {
	Mode        AnalysisMode `json:"mode"`
	Text        string       `json:"result"`
	Model       string       `json:"model,omitempty"`
	Error       string       `json:"error,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// OK reports whether the result carries usable text
func (r *AnalysisResult) OK() bool {
	return r != nil && r.Error == "" && strings.TrimSpace(r.Text) != ""
}
