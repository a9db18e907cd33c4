package summarize

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/law-makers/profiler/internal/ratelimit"
	"github.com/law-makers/profiler/internal/retry"
	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

const defaultEndpoint = "https://generativelanguage.googleapis.com/"

// Config configures the Gemini summarizer
type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies and tests.
	BaseURL string

	// RequestsPerSecond caps calls to the API endpoint.
	RequestsPerSecond float64

	// Temperature is the sampling temperature; nil means 0.7.
	Temperature *float32
	Retry       retry.Config
}

// Gemini generates profile write-ups with the Gemini API
type Gemini struct {
	client      *genai.Client
	model       string
	endpoint    string
	temperature float32
	limiter     ratelimit.RateLimiter
	retry       retry.Config
	now         func() time.Time
}

// New creates a Gemini summarizer
func New(ctx context.Context, cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	endpoint := defaultEndpoint
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions.BaseURL = base
		endpoint = base
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	rc := cfg.Retry
	if rc.MaxAttempts == 0 {
		rc = retry.DefaultConfig()
	}
	temp := float32(0.7)
	if cfg.Temperature != nil {
		temp = *cfg.Temperature
	}

	return &Gemini{
		client:      client,
		model:       model,
		endpoint:    endpoint,
		temperature: temp,
		limiter:     ratelimit.NewDomainLimiter(rps, 1),
		retry:       rc,
		now:         time.Now,
	}, nil
}

// Model returns the model name requests are sent to
func (g *Gemini) Model() string {
	return g.model
}

// Summarize generates the text for rec in mode
func (g *Gemini) Summarize(ctx context.Context, rec *models.ProfileRecord, mode models.AnalysisMode) (*models.AnalysisResult, error) {
	if rec == nil {
		return nil, errors.New("no profile to summarize")
	}
	prompt, err := BuildPrompt(rec, mode)
	if err != nil {
		return nil, err
	}

	var text string
	attempt := 0
	err = retry.WithRetry(ctx, g.retry, func(ctx context.Context) error {
		attempt++
		if err := g.limiter.Wait(ctx, g.endpoint); err != nil {
			return retry.Permanent(err)
		}

		log.Debug().
			Str("model", g.model).
			Str("mode", string(mode)).
			Str("url", rec.URL.String()).
			Int("attempt", attempt).
			Msg("Requesting analysis")

		resp, err := g.client.Models.GenerateContent(
			ctx,
			g.model,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				CandidateCount: 1,
				Temperature:    genai.Ptr(g.temperature),
			},
		)
		if err != nil {
			return classifyErr(err)
		}

		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return retry.Permanent(errors.New("gemini returned an empty response"))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", mode, err)
	}

	return &models.AnalysisResult{
		Mode:        mode,
		Text:        text,
		Model:       g.model,
		GeneratedAt: g.now().UTC(),
	}, nil
}

// classifyErr maps API failures onto the retry policy: 429 and 5xx are
// retried, other API errors are final.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code/100 == 5 {
			return retry.NewHTTPError(apiErr.Code, apiErr.Status, apiErr.Message)
		}
		return retry.Permanent(err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return retry.Permanent(err)
	}
	return err
}
