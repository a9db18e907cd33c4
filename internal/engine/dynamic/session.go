// internal/engine/dynamic/session.go
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/law-makers/profiler/internal/auth"
	"github.com/law-makers/profiler/internal/engine"
	"github.com/law-makers/profiler/internal/engine/extract"
	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog/log"
)

// Authenticator logs a chromedp browser in
type Authenticator interface {
	Login(ctx context.Context) error
}

// SessionOptions configures a browser Session
type SessionOptions struct {
	Browser BrowserOptions
	// PageTimeout bounds one navigation or page read
	PageTimeout time.Duration
	// ScrollSteps is how many times the page is scrolled to load lazy sections
	ScrollSteps int
	// ScrollPause is the wait after each scroll step
	ScrollPause time.Duration
}

// Session drives a single Chrome tab logged in as one LinkedIn member.
// It implements engine.Session and is not safe for concurrent use.
type Session struct {
	opts          SessionOptions
	auth          Authenticator
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	closeOnce     sync.Once
}

var _ engine.Session = (*Session)(nil)

// Open starts Chrome. The Session logs in through a when Authenticate is called.
func Open(ctx context.Context, opts SessionOptions, a Authenticator) (*Session, error) {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 45 * time.Second
	}
	if opts.ScrollSteps <= 0 {
		opts.ScrollSteps = 4
	}
	if opts.ScrollPause <= 0 {
		opts.ScrollPause = 600 * time.Millisecond
	}
	if !opts.Browser.Headless && !auth.DisplayAvailable() {
		return nil, auth.ErrNoDisplay
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(opts.Browser)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		opts:          opts,
		auth:          a,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}

	// The first Run allocates the browser and ties it to browserCtx, so it
	// must not get a per-call context.
	start := time.Now()
	stop := context.AfterFunc(ctx, browserCancel)
	err := chromedp.Run(browserCtx)
	stop()
	if err != nil {
		s.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "failed to start Chrome", err)
	}
	if e := log.Debug(); e.Enabled() {
		e.Dur("elapsed_ms", time.Since(start)).
			Bool("headless", opts.Browser.Headless).
			Str("chrome_version", GetChromeVersion(FindChrome(opts.Browser.ChromePath))).
			Msg("Browser started")
	}

	return s, nil
}

// run executes actions on the browser tab, bounded by timeout and cancelled with ctx
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Authenticate logs the browser in
func (s *Session) Authenticate(ctx context.Context) error {
	if s.auth == nil {
		return errors.New("no authenticator configured")
	}
	runCtx, cancel := context.WithCancel(s.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := s.auth.Login(runCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads the profile page for id and scrolls it so lazy sections render
func (s *Session) Navigate(ctx context.Context, id models.ProfileIdentifier) error {
	log.Debug().Str("url", id.String()).Msg("Navigating")

	var location string
	err := s.run(ctx, s.opts.PageTimeout,
		chromedp.Navigate(id.String()),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for i := 1; i <= s.opts.ScrollSteps; i++ {
				script := fmt.Sprintf("window.scrollTo(0, document.body.scrollHeight * %d / %d)", i, s.opts.ScrollSteps)
				if err := chromedp.Evaluate(script, nil).Do(ctx); err != nil {
					return err
				}
				if err := sleep(ctx, s.opts.ScrollPause); err != nil {
					return err
				}
			}
			return nil
		}),
		chromedp.Location(&location),
	)
	if err != nil {
		return fmt.Errorf("chromedp execution failed: %w", err)
	}
	return checkLocation(location)
}

// CurrentProfile extracts the profile shown in the tab
func (s *Session) CurrentProfile(ctx context.Context) (*models.ProfileRecord, error) {
	var page string
	err := s.run(ctx, s.opts.PageTimeout, chromedp.OuterHTML("html", &page, chromedp.ByQuery))
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return extract.Profile(page)
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.browserCancel()
		s.allocCancel()
		log.Debug().Msg("Browser closed")
	})
	return nil
}

// checkLocation rejects pages LinkedIn shows instead of a profile
func checkLocation(location string) error {
	u, err := url.Parse(location)
	if err != nil {
		return fmt.Errorf("unexpected page location %q", location)
	}
	switch {
	case strings.HasPrefix(u.Path, "/authwall"), strings.HasPrefix(u.Path, "/login"),
		strings.HasPrefix(u.Path, "/checkpoint"), strings.HasPrefix(u.Path, "/uas/login"):
		return fmt.Errorf("redirected to %s (session no longer logged in)", u.Path)
	case strings.HasPrefix(u.Path, "/404"), u.Path == "/in/unavailable/", u.Path == "/in/unavailable":
		return errors.New("profile not found")
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
