package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/profiler/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSession serves canned pages keyed by identifier
type fakeSession struct {
	authErr   error
	navErr    map[models.ProfileIdentifier]error
	pages     map[models.ProfileIdentifier]*models.ProfileRecord
	panics    map[models.ProfileIdentifier]bool
	onNav     func(id models.ProfileIdentifier)
	current   models.ProfileIdentifier
	navigated []models.ProfileIdentifier
	closed    int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		navErr: map[models.ProfileIdentifier]error{},
		pages:  map[models.ProfileIdentifier]*models.ProfileRecord{},
		panics: map[models.ProfileIdentifier]bool{},
	}
}

func (s *fakeSession) Authenticate(ctx context.Context) error { return s.authErr }

func (s *fakeSession) Navigate(ctx context.Context, id models.ProfileIdentifier) error {
	s.navigated = append(s.navigated, id)
	if s.onNav != nil {
		s.onNav(id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.current = id
	return s.navErr[id]
}

func (s *fakeSession) CurrentProfile(ctx context.Context) (*models.ProfileRecord, error) {
	if s.panics[s.current] {
		panic("selector blew up")
	}
	return s.pages[s.current], nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

func (s *fakeSession) addProfile(id models.ProfileIdentifier, name string) {
	s.pages[id] = &models.ProfileRecord{Name: name, URL: id}
}

type fakeSummarizer struct {
	fail  map[string]error
	empty map[string]bool
	calls int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, rec *models.ProfileRecord, mode models.AnalysisMode) (*models.AnalysisResult, error) {
	f.calls++
	if err := f.fail[rec.Name]; err != nil {
		return nil, err
	}
	if f.empty[rec.Name] {
		return &models.AnalysisResult{Mode: mode}, nil
	}
	return &models.AnalysisResult{Mode: mode, Text: "about " + rec.Name}, nil
}

type fakePacer struct {
	calls []Interval
}

func (p *fakePacer) Pause(ctx context.Context, min, max time.Duration) error {
	p.calls = append(p.calls, Interval{Min: min, Max: max})
	return ctx.Err()
}

func profileID(slug string) models.ProfileIdentifier {
	return models.ProfileIdentifier("https://www.linkedin.com/in/" + slug)
}

func opener(s *fakeSession) SessionOpener {
	return func(ctx context.Context) (Session, error) { return s, nil }
}

func testOptions() Options {
	opts := DefaultOptions()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	opts.Now = func() time.Time { return fixed }
	return opts
}

func TestRunAllSucceed(t *testing.T) {
	s := newFakeSession()
	ids := []models.ProfileIdentifier{profileID("a"), profileID("b"), profileID("c")}
	for i, id := range ids {
		s.addProfile(id, "Person "+string(rune('A'+i)))
	}
	pacer := &fakePacer{}
	o := NewOrchestrator(opener(s), nil, &fakeSummarizer{}, pacer, testOptions())

	run, err := o.Run(context.Background(), ids, models.ModeBio)
	require.NoError(t, err)
	require.Len(t, run.Outcomes, 3)

	for i, out := range run.Outcomes {
		assert.Equal(t, i+1, out.Ordinal())
		assert.Equal(t, ids[i], out.ProfileURL())
		succ, ok := out.(*models.Success)
		require.True(t, ok, "outcome %d should be a success", i+1)
		assert.Equal(t, models.ModeBio, succ.Analysis.Mode)
	}
	assert.Equal(t, 1, s.closed)
	assert.Equal(t, ids, s.navigated)
	assert.NotEmpty(t, run.ID)

	// before each item plus between items, never after the last
	opts := testOptions()
	assert.Equal(t, []Interval{
		opts.BeforeItem, opts.AfterItem,
		opts.BeforeItem, opts.AfterItem,
		opts.BeforeItem,
	}, pacer.calls)
}

func TestRunIsolatesItemFailures(t *testing.T) {
	s := newFakeSession()
	ok1, navFail, noRecord, noName, analysisFail, emptyAnalysis, boom, ok2 :=
		profileID("ok1"), profileID("nav"), profileID("none"), profileID("noname"),
		profileID("llm"), profileID("empty"), profileID("boom"), profileID("ok2")

	s.addProfile(ok1, "First")
	s.navErr[navFail] = errors.New("net::ERR_TIMED_OUT")
	s.pages[noName] = &models.ProfileRecord{Name: "  "}
	s.addProfile(analysisFail, "Quota")
	s.addProfile(emptyAnalysis, "Silent")
	s.addProfile(boom, "Panicky")
	s.panics[boom] = true
	s.addProfile(ok2, "Last")

	sum := &fakeSummarizer{
		fail:  map[string]error{"Quota": errors.New("429 resource exhausted")},
		empty: map[string]bool{"Silent": true},
	}
	ids := []models.ProfileIdentifier{ok1, navFail, noRecord, noName, analysisFail, emptyAnalysis, boom, ok2}
	o := NewOrchestrator(opener(s), nil, sum, &fakePacer{}, testOptions())

	run, err := o.Run(context.Background(), ids, models.ModeSummary)
	require.NoError(t, err)
	require.Len(t, run.Outcomes, len(ids))

	for i, out := range run.Outcomes {
		assert.Equal(t, i+1, out.Ordinal())
		assert.Equal(t, ids[i], out.ProfileURL())
	}

	assert.Len(t, run.Successes(), 2)
	failures := run.Failures()
	require.Len(t, failures, 6)

	assert.True(t, strings.HasPrefix(failures[0].Reason, "Failed to scrape profile: "+navFail.String()))
	assert.Contains(t, failures[0].Reason, "ERR_TIMED_OUT")
	assert.True(t, errors.Is(failures[0].Err, ErrExtraction))

	assert.Contains(t, failures[1].Reason, "Failed to scrape profile")
	assert.Contains(t, failures[2].Reason, "Failed to scrape profile")

	assert.True(t, strings.HasPrefix(failures[3].Reason, "Failed to generate analysis for: "+analysisFail.String()))
	assert.True(t, errors.Is(failures[3].Err, ErrAnalysis))
	assert.Contains(t, failures[4].Reason, "Failed to generate analysis for")

	assert.True(t, strings.HasPrefix(failures[5].Reason, "Error processing "+boom.String()))
	assert.Contains(t, failures[5].Reason, "selector blew up")

	assert.Equal(t, 1, s.closed)
}

func TestRunAuthenticationFailure(t *testing.T) {
	s := newFakeSession()
	s.authErr = errors.New("checkpoint challenge")
	sum := &fakeSummarizer{}
	o := NewOrchestrator(opener(s), nil, sum, &fakePacer{}, testOptions())

	run, err := o.Run(context.Background(), []models.ProfileIdentifier{profileID("a"), profileID("b")}, models.ModeBio)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthentication))

	require.Len(t, run.Outcomes, 1)
	f, ok := run.Outcomes[0].(*models.Failure)
	require.True(t, ok)
	assert.Equal(t, LoginFailedIdentifier, f.Identifier)
	assert.Equal(t, 0, f.Index)
	assert.True(t, strings.HasPrefix(f.Reason, "login_failed: "), f.Reason)
	assert.Contains(t, f.Reason, "Failed to login to LinkedIn")

	assert.Empty(t, s.navigated)
	assert.Zero(t, sum.calls)
	assert.Equal(t, 1, s.closed)
}

func TestRunSessionOpenFailure(t *testing.T) {
	open := func(ctx context.Context) (Session, error) { return nil, errors.New("chrome not found") }
	o := NewOrchestrator(open, nil, &fakeSummarizer{}, &fakePacer{}, testOptions())

	run, err := o.Run(context.Background(), []models.ProfileIdentifier{profileID("a")}, models.ModeBio)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionError))
	require.Len(t, run.Outcomes, 1)
	assert.Equal(t, LoginFailedIdentifier, run.Outcomes[0].ProfileURL())
}

func TestRunEmptyBatch(t *testing.T) {
	s := newFakeSession()
	o := NewOrchestrator(opener(s), nil, &fakeSummarizer{}, &fakePacer{}, testOptions())

	_, err := o.Run(context.Background(), nil, models.ModeBio)
	assert.True(t, errors.Is(err, ErrEmptyBatch))
	assert.Zero(t, s.closed)
}

func TestRunCancellationRecordsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newFakeSession()
	ids := []models.ProfileIdentifier{profileID("a"), profileID("b"), profileID("c"), profileID("d")}
	for _, id := range ids {
		s.addProfile(id, "Name "+id.String())
	}
	s.onNav = func(id models.ProfileIdentifier) {
		if id == ids[1] {
			cancel()
		}
	}
	o := NewOrchestrator(opener(s), nil, &fakeSummarizer{}, &fakePacer{}, testOptions())

	run, err := o.Run(ctx, ids, models.ModeAnalysis)
	require.NoError(t, err)
	require.Len(t, run.Outcomes, 4)

	_, first := run.Outcomes[0].(*models.Success)
	assert.True(t, first)
	for i, out := range run.Outcomes[1:] {
		f, ok := out.(*models.Failure)
		require.True(t, ok, "outcome %d should be a failure", i+2)
		assert.Equal(t, i+2, f.Index)
		assert.Equal(t, ids[i+1], f.Identifier)
	}
	assert.Contains(t, run.Outcomes[3].(*models.Failure).Reason, "batch cancelled")
	assert.Equal(t, []models.ProfileIdentifier{ids[0], ids[1]}, s.navigated)
	assert.Equal(t, 1, s.closed)
}

func TestRunStopsAfterConsecutiveFailures(t *testing.T) {
	s := newFakeSession()
	ids := []models.ProfileIdentifier{profileID("a"), profileID("b"), profileID("c"), profileID("d")}
	opts := testOptions()
	opts.MaxConsecutiveFailures = 2
	o := NewOrchestrator(opener(s), nil, &fakeSummarizer{}, &fakePacer{}, opts)

	run, err := o.Run(context.Background(), ids, models.ModeBio)
	require.NoError(t, err)
	require.Len(t, run.Outcomes, 4)
	assert.Len(t, s.navigated, 2)
	assert.Contains(t, run.Outcomes[2].(*models.Failure).Reason, "skipped after 2 consecutive failures")
	assert.Equal(t, 4, run.Outcomes[3].Ordinal())
}

func TestRunReportsEachOutcome(t *testing.T) {
	s := newFakeSession()
	ids := []models.ProfileIdentifier{profileID("a"), profileID("b")}
	s.addProfile(ids[0], "Ann")

	var seen []int
	opts := testOptions()
	opts.OnOutcome = func(o models.Outcome) { seen = append(seen, o.Ordinal()) }
	o := NewOrchestrator(opener(s), nil, &fakeSummarizer{}, &fakePacer{}, opts)

	_, err := o.Run(context.Background(), ids, models.ModeBio)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
}
