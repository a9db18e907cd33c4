package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/law-makers/profiler/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache map[string]*models.ProfileRecord

func (c mapCache) Get(key string) (*models.ProfileRecord, bool) {
	rec, ok := c[key]
	return rec, ok
}

func (c mapCache) Set(key string, rec *models.ProfileRecord, ttl time.Duration) error {
	c[key] = rec
	return nil
}

func TestProcessFillsMissingURL(t *testing.T) {
	s := newFakeSession()
	id := profileID("ann")
	s.pages[id] = &models.ProfileRecord{Name: "Ann"}

	rec, err := NewProcessor(nil, 0).Process(context.Background(), s, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.URL)
}

func TestProcessExtractionErrors(t *testing.T) {
	s := newFakeSession()
	id := profileID("ann")
	p := NewProcessor(nil, 0)

	_, err := p.Process(context.Background(), s, id)
	assert.True(t, errors.Is(err, ErrExtraction), "missing record")

	s.pages[id] = &models.ProfileRecord{}
	_, err = p.Process(context.Background(), s, id)
	assert.True(t, errors.Is(err, ErrExtraction), "empty name")

	navErr := errors.New("net::ERR_NAME_NOT_RESOLVED")
	s.navErr[id] = navErr
	_, err = p.Process(context.Background(), s, id)
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.True(t, errors.Is(err, navErr))
}

func TestProcessUsesCache(t *testing.T) {
	s := newFakeSession()
	id := profileID("ann")
	s.addProfile(id, "Ann")
	cache := mapCache{}
	p := NewProcessor(cache, time.Minute)

	first, err := p.Process(context.Background(), s, id)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), s, id)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Len(t, s.navigated, 1)
}
