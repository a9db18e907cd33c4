package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/law-makers/profiler/internal/reqctx"
	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoginFailedIdentifier tags the synthetic outcome recorded when a batch cannot authenticate
const LoginFailedIdentifier models.ProfileIdentifier = "login_failed"

// SessionOpener starts a new browser session
type SessionOpener func(ctx context.Context) (Session, error)

// Summarizer generates text for a profile in the given mode
type Summarizer interface {
	Summarize(ctx context.Context, rec *models.ProfileRecord, mode models.AnalysisMode) (*models.AnalysisResult, error)
}

// Pacer blocks for a random duration in [min, max] or until ctx is done
type Pacer interface {
	Pause(ctx context.Context, min, max time.Duration) error
}

// Interval is a closed range of pause durations
type Interval struct {
	Min time.Duration
	Max time.Duration
}

// Options tunes an Orchestrator
type Options struct {
	// BeforeItem is paused before each navigation.
	BeforeItem Interval
	// AfterItem is paused between items; never after the last one.
	AfterItem Interval
	// MaxConsecutiveFailures stops processing once this many items fail in a row.
	// The remaining identifiers are recorded as skipped. 0 disables the limit.
	MaxConsecutiveFailures int
	// OnOutcome is called after each outcome is appended.
	OnOutcome func(models.Outcome)
	// Now is the clock used for timestamps.
	Now func() time.Time
}

// DefaultOptions returns the standard human-like pacing
func DefaultOptions() Options {
	return Options{
		BeforeItem: Interval{Min: 2 * time.Second, Max: 4 * time.Second},
		AfterItem:  Interval{Min: 3 * time.Second, Max: 6 * time.Second},
		Now:        time.Now,
	}
}

// Orchestrator runs a batch of identifiers through one browser session, one at a time
type Orchestrator struct {
	open       SessionOpener
	processor  *Processor
	summarizer Summarizer
	pacer      Pacer
	opts       Options
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(open SessionOpener, processor *Processor, summarizer Summarizer, pacer Pacer, opts Options) *Orchestrator {
	if processor == nil {
		processor = NewProcessor(nil, 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		open:       open,
		processor:  processor,
		summarizer: summarizer,
		pacer:      pacer,
		opts:       opts,
	}
}

// Run processes ids in order and returns one outcome per id.
//
// The session is closed exactly once on every path. A failure to open or
// authenticate the session yields a run holding a single login_failed outcome
// together with a non-nil error; per-item failures never produce an error.
func (o *Orchestrator) Run(ctx context.Context, ids []models.ProfileIdentifier, mode models.AnalysisMode) (run *models.BatchRun, err error) {
	ctx = reqctx.WithRunContext(ctx)
	rc := reqctx.GetRunContext(ctx)
	logger := log.With().Str("run_id", rc.RunID).Str("mode", string(mode)).Logger()

	run = &models.BatchRun{
		ID:        rc.RunID,
		Mode:      mode,
		Outcomes:  make([]models.Outcome, 0, len(ids)),
		StartedAt: o.opts.Now(),
	}
	defer func() { run.FinishedAt = o.opts.Now() }()

	if len(ids) == 0 {
		return run, reqctx.NewRunError(ctx, NewEngineError(ErrCodeEmptyBatch, "no identifiers to process", nil))
	}

	session, err := o.open(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Could not start browser session")
		o.loginFailed(run, "Failed to start browser session", err)
		return run, reqctx.NewRunError(ctx, NewEngineError(ErrCodeSessionError, "could not start browser session", err))
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Error closing browser session")
		}
		logger.Debug().Msg("Browser session closed")
	}()

	if err := o.authenticate(ctx, session); err != nil {
		logger.Error().Err(err).Msg("Authentication failed; aborting batch")
		o.loginFailed(run, "Failed to login to LinkedIn", err)
		return run, reqctx.NewRunError(ctx, NewEngineError(ErrCodeAuthentication, "failed to login to LinkedIn", err))
	}
	logger.Info().Int("profiles", len(ids)).Msg("Authenticated; starting batch")

	consecutive := 0
	for i, id := range ids {
		index := i + 1

		if cerr := ctx.Err(); cerr != nil {
			o.skipRemaining(run, ids[i:], index, "batch cancelled", cerr)
			logger.Warn().Int("remaining", len(ids)-i).Msg("Batch cancelled")
			break
		}
		if limit := o.opts.MaxConsecutiveFailures; limit > 0 && consecutive >= limit {
			reason := fmt.Sprintf("skipped after %d consecutive failures", consecutive)
			o.skipRemaining(run, ids[i:], index, reason, nil)
			logger.Warn().Int("remaining", len(ids)-i).Msg("Too many consecutive failures; stopping batch")
			break
		}

		outcome := o.processItem(ctx, logger, session, id, index, mode)
		o.record(run, outcome)

		if _, ok := outcome.(*models.Failure); ok {
			consecutive++
		} else {
			consecutive = 0
		}

		if index < len(ids) && ctx.Err() == nil {
			if perr := o.pause(ctx, o.opts.AfterItem); perr != nil {
				logger.Debug().Err(perr).Msg("Post-item pause interrupted")
			}
		}
	}

	logger.Info().
		Int("total", run.Total()).
		Int("succeeded", len(run.Successes())).
		Int("failed", len(run.Failures())).
		Msg("Batch finished")

	return run, nil
}

func (o *Orchestrator) authenticate(ctx context.Context, s Session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during login: %v", r)
		}
	}()
	return s.Authenticate(ctx)
}

// processItem runs one identifier; every error and panic becomes a Failure
func (o *Orchestrator) processItem(ctx context.Context, logger zerolog.Logger, s Session, id models.ProfileIdentifier, index int, mode models.AnalysisMode) (outcome models.Outcome) {
	l := logger.With().Int("index", index).Str("url", id.String()).Logger()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			l.Error().Err(err).Msg("Recovered panic while processing profile")
			outcome = &models.Failure{
				Identifier: id,
				Reason:     fmt.Sprintf("Error processing %s: %v", id, err),
				Index:      index,
				Err:        err,
			}
		}
	}()

	if err := o.pause(ctx, o.opts.BeforeItem); err != nil {
		return o.fail(l, id, index, fmt.Sprintf("Error processing %s: batch cancelled", id), err)
	}

	rec, err := o.processor.Process(ctx, s, id)
	if err != nil {
		return o.fail(l, id, index, fmt.Sprintf("Failed to scrape profile: %s: %s", id, rootCause(err)), err)
	}

	result, err := o.summarizer.Summarize(ctx, rec, mode)
	if err == nil && !result.OK() {
		msg := "empty response"
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		err = errors.New(msg)
	}
	if err != nil {
		err = NewEngineError(ErrCodeAnalysis, "analysis failed", err)
		return o.fail(l, id, index, fmt.Sprintf("Failed to generate analysis for: %s: %s", id, rootCause(err)), err)
	}

	l.Info().Str("name", rec.Name).Msg("Processed profile")
	return &models.Success{
		Record:     rec,
		Analysis:   result,
		Index:      index,
		CapturedAt: o.opts.Now(),
	}
}

func (o *Orchestrator) fail(l zerolog.Logger, id models.ProfileIdentifier, index int, reason string, err error) *models.Failure {
	l.Warn().Err(err).Str("reason", reason).Msg("Profile failed")
	return &models.Failure{Identifier: id, Reason: reason, Index: index, Err: err}
}

func (o *Orchestrator) record(run *models.BatchRun, outcome models.Outcome) {
	run.Outcomes = append(run.Outcomes, outcome)
	if o.opts.OnOutcome != nil {
		o.opts.OnOutcome(outcome)
	}
}

func (o *Orchestrator) loginFailed(run *models.BatchRun, reason string, err error) {
	o.record(run, &models.Failure{
		Identifier: LoginFailedIdentifier,
		Reason:     string(LoginFailedIdentifier) + ": " + reason + ": " + err.Error(),
		Index:      0,
		Err:        err,
	})
}

// skipRemaining records a Failure for every id left, keeping one outcome per input
func (o *Orchestrator) skipRemaining(run *models.BatchRun, ids []models.ProfileIdentifier, firstIndex int, reason string, err error) {
	for i, id := range ids {
		o.record(run, &models.Failure{
			Identifier: id,
			Reason:     fmt.Sprintf("Error processing %s: %s", id, reason),
			Index:      firstIndex + i,
			Err:        err,
		})
	}
}

func (o *Orchestrator) pause(ctx context.Context, iv Interval) error {
	if o.pacer == nil || iv.Max <= 0 {
		return ctx.Err()
	}
	return o.pacer.Pause(ctx, iv.Min, iv.Max)
}

// rootCause returns the innermost message of an EngineError chain so reasons stay readable
func rootCause(err error) string {
	for {
		var ee *EngineError
		if !errors.As(err, &ee) {
			return err.Error()
		}
		if ee.Underlying == nil {
			return ee.Message
		}
		err = ee.Underlying
	}
}
