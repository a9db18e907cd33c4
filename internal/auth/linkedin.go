// internal/auth/linkedin.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/profiler/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

const (
	LoginURL = "https://www.linkedin.com/checkpoint/lg/sign-in-another-account"
	FeedURL  = "https://www.linkedin.com/feed/"

	// AuthCookie is the cookie LinkedIn sets for an authenticated member
	AuthCookie = "li_at"

	DefaultSessionName   = "linkedin"
	DefaultManualTimeout = 5 * time.Minute
)

const (
	usernameSelector = `#username`
	passwordSelector = `#password, input[name="session_password"]`
	submitSelector   = `button[data-litms-control-urn="login-submit"], button[type="submit"]`
)

var (
	ErrVerificationRequired = errors.New("LinkedIn requires a security verification (captcha, checkpoint or code); run with a visible browser to complete it")
	ErrCredentialsRejected  = errors.New("LinkedIn rejected the email or password")
	ErrNoCredentials        = errors.New("no saved session and no credentials (set LINKEDIN_EMAIL and LINKEDIN_PASSWORD, or run 'profiler login')")
	ErrNoDisplay            = errors.New("a visible browser requires a display server (DISPLAY not set)")
)

// Credentials for the LinkedIn login form
type Credentials struct {
	Email    string
	Password string
}

func (c Credentials) complete() bool {
	return strings.TrimSpace(c.Email) != "" && c.Password != ""
}

// LinkedInOptions configures LinkedIn authentication
type LinkedInOptions struct {
	// SessionName is the stored session restored and saved back
	SessionName string
	Credentials Credentials
	// Interactive allows a person to finish the login in the visible browser
	Interactive bool
	// SkipRestore ignores any stored session
	SkipRestore bool
	// ManualTimeout bounds the wait for a manual login or verification
	ManualTimeout time.Duration
	// PollInterval is how often the page is checked while waiting
	PollInterval time.Duration
}

// LinkedIn authenticates a chromedp browser against LinkedIn
type LinkedIn struct {
	store *Store
	opts  LinkedInOptions
	pause func(ctx context.Context, min, max time.Duration) error
	now   func() time.Time
}

// NewLinkedIn creates a LinkedIn authenticator backed by store
func NewLinkedIn(store *Store, opts LinkedInOptions) *LinkedIn {
	if opts.SessionName == "" {
		opts.SessionName = DefaultSessionName
	}
	if opts.ManualTimeout <= 0 {
		opts.ManualTimeout = DefaultManualTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	return &LinkedIn{
		store: store,
		opts:  opts,
		pause: ratelimit.NewJitter().Pause,
		now:   time.Now,
	}
}

// Login authenticates the browser behind ctx, which must be a chromedp context.
// A stored session is tried first, then the credential form, then a manual login
// in the visible browser. Cookies of a fresh login are saved to the store.
func (l *LinkedIn) Login(ctx context.Context) error {
	logger := log.With().Str("session", l.opts.SessionName).Logger()

	if !l.opts.SkipRestore && l.store != nil {
		ok, err := l.restore(ctx)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("Could not restore saved session")
		case ok:
			logger.Info().Msg("Restored saved LinkedIn session")
			return nil
		}
	}

	if l.opts.Credentials.complete() {
		err := l.credentialLogin(ctx)
		if err == nil {
			return l.capture(ctx)
		}
		if !l.opts.Interactive || errors.Is(err, ErrCredentialsRejected) || ctx.Err() != nil {
			return err
		}
		logger.Warn().Err(err).Msg("Credential login incomplete, waiting for manual login")
	} else if !l.opts.Interactive {
		return ErrNoCredentials
	}

	if err := l.waitForManualLogin(ctx); err != nil {
		return err
	}
	return l.capture(ctx)
}

// restore installs stored cookies and checks whether the feed opens
func (l *LinkedIn) restore(ctx context.Context) (bool, error) {
	session, err := l.store.Load(l.opts.SessionName)
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionExpired) {
		log.Debug().Err(err).Str("session", l.opts.SessionName).Msg("No usable saved session")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !hasCookie(session.Cookies, AuthCookie) {
		return false, nil
	}

	params := ToCookieParams(session.Cookies, l.now())
	var location string
	err = chromedp.Run(ctx,
		network.Enable(),
		network.SetCookies(params),
		chromedp.Navigate(FeedURL),
		chromedp.Location(&location),
	)
	if err != nil {
		return false, fmt.Errorf("failed to restore cookies: %w", err)
	}
	return IsLoggedInURL(location), nil
}

// credentialLogin fills and submits the login form, then waits for the outcome
func (l *LinkedIn) credentialLogin(ctx context.Context) error {
	log.Info().Msg("Logging in to LinkedIn with credentials")

	err := chromedp.Run(ctx,
		network.Enable(),
		chromedp.Navigate(LoginURL),
		chromedp.WaitVisible(usernameSelector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}
	if err := l.pause(ctx, 500*time.Millisecond, 1500*time.Millisecond); err != nil {
		return err
	}

	err = chromedp.Run(ctx,
		chromedp.SendKeys(usernameSelector, l.opts.Credentials.Email, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return l.pause(ctx, 300*time.Millisecond, 900*time.Millisecond)
		}),
		chromedp.SendKeys(passwordSelector, l.opts.Credentials.Password, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return l.pause(ctx, 300*time.Millisecond, 900*time.Millisecond)
		}),
		chromedp.Click(submitSelector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for {
		state, err := l.pageState(waitCtx)
		if err != nil {
			return fmt.Errorf("failed to read login result: %w", err)
		}
		switch state.classify() {
		case stateLoggedIn:
			return nil
		case stateRejected:
			return ErrCredentialsRejected
		case stateChallenge:
			if !l.opts.Interactive {
				return ErrVerificationRequired
			}
			fmt.Println("\n🔐 LinkedIn is asking for a security verification.")
			fmt.Println("   Complete it in the browser window; the run continues once the feed opens.")
			return l.waitForManualLogin(ctx)
		}
		if err := sleepCtx(waitCtx, l.opts.PollInterval); err != nil {
			return fmt.Errorf("login did not complete: %w", err)
		}
	}
}

// waitForManualLogin opens the login page (unless already there) and polls
// until the browser reaches a logged-in page or ManualTimeout passes
func (l *LinkedIn) waitForManualLogin(ctx context.Context) error {
	if !l.opts.Interactive {
		return ErrVerificationRequired
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.opts.ManualTimeout)
	defer cancel()

	var location string
	if err := chromedp.Run(waitCtx, chromedp.Location(&location)); err != nil {
		return fmt.Errorf("failed to read browser location: %w", err)
	}
	if !strings.Contains(location, "linkedin.com") {
		if err := chromedp.Run(waitCtx, chromedp.Navigate(LoginURL)); err != nil {
			return fmt.Errorf("failed to navigate: %w", err)
		}
		fmt.Println("\n🌐 Browser opened. Please log in to LinkedIn in the browser window.")
	}

	log.Info().Dur("timeout", l.opts.ManualTimeout).Msg("Waiting for manual login")
	for {
		if err := chromedp.Run(waitCtx, chromedp.Location(&location)); err == nil && IsLoggedInURL(location) {
			return nil
		}
		if err := sleepCtx(waitCtx, l.opts.PollInterval); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("login timeout after %s", l.opts.ManualTimeout)
		}
	}
}

// capture reads LinkedIn cookies from the browser and saves them
func (l *LinkedIn) capture(ctx context.Context) error {
	var cookies []*network.Cookie
	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = network.GetCookies().WithURLs([]string{"https://www.linkedin.com"}).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to extract cookies: %w", err)
	}

	stored := FromNetworkCookies(cookies)
	if !hasCookie(stored, AuthCookie) {
		return fmt.Errorf("no %s cookie found - login may have failed", AuthCookie)
	}
	log.Info().Int("cookie_count", len(stored)).Msg("Cookies extracted")

	if l.store == nil {
		return nil
	}
	session := &SessionData{
		Name:      l.opts.SessionName,
		URL:       FeedURL,
		Cookies:   stored,
		CreatedAt: l.now(),
		ExpiresAt: expiryOf(stored),
	}
	if err := l.store.Save(session); err != nil {
		// The browser is logged in; only reuse across runs is lost.
		log.Warn().Err(err).Msg("Failed to save session")
	}
	return nil
}

type loginState int

const (
	statePending loginState = iota
	stateLoggedIn
	stateChallenge
	stateRejected
)

// pageSnapshot is what the login flow inspects on the current page
type pageSnapshot struct {
	URL      string `json:"url"`
	Captcha  bool   `json:"captcha"`
	Code     bool   `json:"code"`
	Rejected bool   `json:"rejected"`
}

const snapshotScript = `(() => ({
	url: location.href,
	captcha: !!document.querySelector('iframe[src*="captcha"], iframe[src*="challenge"]'),
	code: !!document.querySelector('input[autocomplete="one-time-code"], input[name*="pin"]'),
	rejected: !!Array.from(document.querySelectorAll('#error-for-password, #error-for-username'))
		.find(e => !e.hidden && e.textContent.trim() !== '')
}))()`

func (l *LinkedIn) pageState(ctx context.Context) (pageSnapshot, error) {
	var snap pageSnapshot
	err := chromedp.Run(ctx, chromedp.Evaluate(snapshotScript, &snap))
	return snap, err
}

func (s pageSnapshot) classify() loginState {
	switch {
	case s.Rejected:
		return stateRejected
	case s.Captcha || s.Code || strings.Contains(s.URL, "/checkpoint/challenge"):
		return stateChallenge
	case IsLoggedInURL(s.URL):
		return stateLoggedIn
	default:
		return statePending
	}
}

var loggedOutPaths = []string{"/login", "/checkpoint", "/authwall", "/uas/login", "/signup", "/uas/"}

// IsLoggedInURL reports whether a LinkedIn page URL belongs to a logged-in member view
func IsLoggedInURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return false
	}
	path := u.Path
	if path == "" || path == "/" {
		return false
	}
	for _, p := range loggedOutPaths {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}

// DisplayAvailable reports whether a visible browser window can be opened
func DisplayAvailable() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
