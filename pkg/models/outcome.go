package models

import "time"

// Outcome is the result recorded for one identifier of a batch: either *Success or *Failure.
type Outcome interface {
	// Ordinal is the 1-based input position (0 for the synthetic login failure).
	Ordinal() int
	// ProfileURL is the identifier the outcome belongs to.
	ProfileURL() ProfileIdentifier
	outcome()
}

// Success records a profile that was both scraped and analysed
type Success struct {
	Record     *ProfileRecord
	Analysis   *AnalysisResult
	Index      int
	CapturedAt time.Time
}

func (s *Success) Ordinal() int                  { return s.Index }
func (s *Success) ProfileURL() ProfileIdentifier { return s.Record.URL }
func (*Success) outcome()                        {}

// Failure records an identifier that could not be processed.
// Reason is the human-readable text written to the errors artifact.
type Failure struct {
	Identifier ProfileIdentifier
	Reason     string
	Index      int
	Err        error
}

func (f *Failure) Ordinal() int                  { return f.Index }
func (f *Failure) ProfileURL() ProfileIdentifier { return f.Identifier }
func (*Failure) outcome()                        {}

// BatchRun holds every outcome of one batch invocation, in input order
type BatchRun struct {
	ID         string
	Mode       AnalysisMode
	Outcomes   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Successes returns the successful outcomes in input order
func (r *BatchRun) Successes() []*Success {
	var out []*Success
	for _, o := range r.Outcomes {
		if s, ok := o.(*Success); ok {
			out = append(out, s)
		}
	}
	return out
}

// Failures returns the failed outcomes in input order
func (r *BatchRun) Failures() []*Failure {
	var out []*Failure
	for _, o := range r.Outcomes {
		if f, ok := o.(*Failure); ok {
			out = append(out, f)
		}
	}
	return out
}

// Total returns the number of recorded outcomes
func (r *BatchRun) Total() int {
	return len(r.Outcomes)
}
