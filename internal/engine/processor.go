package engine

import (
	"context"
	"strings"
	"time"

	"github.com/law-makers/profiler/pkg/models"
	"github.com/rs/zerolog/log"
)

// Session is one authenticated browser identity. It is not safe for concurrent use.
type Session interface {
	// Authenticate logs the session in once; subsequent navigation reuses the identity.
	Authenticate(ctx context.Context) error
	// Navigate loads the profile page for id.
	Navigate(ctx context.Context, id models.ProfileIdentifier) error
	// CurrentProfile extracts a record from the loaded page; nil if nothing usable was found.
	CurrentProfile(ctx context.Context) (*models.ProfileRecord, error)
	Close() error
}

// ProfileCache stores extracted records by identifier
type ProfileCache interface {
	Get(key string) (*models.ProfileRecord, bool)
	Set(key string, rec *models.ProfileRecord, ttl time.Duration) error
}

// Processor turns one identifier into a ProfileRecord using an open session
type Processor struct {
	cache ProfileCache
	ttl   time.Duration
}

// NewProcessor creates a Processor. cache may be nil.
func NewProcessor(cache ProfileCache, ttl time.Duration) *Processor {
	return &Processor{cache: cache, ttl: ttl}
}

// Process navigates the session to id and reads the profile shown there.
// A missing record or one without a name is an extraction error.
func (p *Processor) Process(ctx context.Context, s Session, id models.ProfileIdentifier) (*models.ProfileRecord, error) {
	if p.cache != nil {
		if rec, ok := p.cache.Get(id.String()); ok {
			log.Debug().Str("url", id.String()).Msg("Using cached profile")
			return rec, nil
		}
	}

	if err := s.Navigate(ctx, id); err != nil {
		return nil, NewEngineError(ErrCodeExtraction, "navigation failed", err).WithDetail("url", id.String())
	}

	rec, err := s.CurrentProfile(ctx)
	if err != nil {
		return nil, NewEngineError(ErrCodeExtraction, "could not read profile page", err).WithDetail("url", id.String())
	}
	if rec == nil || strings.TrimSpace(rec.Name) == "" {
		return nil, NewEngineError(ErrCodeExtraction, "no profile data on page", nil).WithDetail("url", id.String())
	}
	if rec.URL == "" {
		rec.URL = id
	}

	if p.cache != nil {
		if err := p.cache.Set(id.String(), rec, p.ttl); err != nil {
			log.Debug().Err(err).Str("url", id.String()).Msg("Failed to cache profile")
		}
	}

	return rec, nil
}
