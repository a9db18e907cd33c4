package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/law-makers/profiler/pkg/models"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func record(name string) *models.ProfileRecord {
	return &models.ProfileRecord{Name: name, URL: models.ProfileIdentifier("https://www.linkedin.com/in/" + name)}
}

func TestGetSet(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
	rec := record("ann")
	if err := c.Set("ann", rec, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get("ann")
	if !ok || got != rec {
		t.Fatalf("Get = %v, %v; want cached record", got, ok)
	}

	stats := c.Stats()
	if stats["hits"].(uint64) != 1 || stats["misses"].(uint64) != 1 {
		t.Errorf("unexpected stats: %v", stats)
	}
}

func TestExpiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set("ann", record("ann"), time.Minute)
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("ann"); ok {
		t.Error("expected expired entry to be a miss")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed, len = %d", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	one := estimateSize(record("a"))
	c := NewMemoryCache(one*2 + 1)
	defer c.Close()

	_ = c.Set("a", record("a"), time.Minute)
	_ = c.Set("b", record("b"), time.Minute)
	c.Get("a") // a is now most recent
	_ = c.Set("c", record("c"), time.Minute)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry should remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry should be present")
	}
}

func TestUpdateKeepsSizeConsistent(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()

	_ = c.Set("a", record("a"), time.Minute)
	big := record("a")
	big.About = strings.Repeat("x", 1000)
	_ = c.Set("a", big, time.Minute)

	if got := c.Stats()["size_bytes"].(int64); got != estimateSize(big) {
		t.Errorf("size_bytes = %d, want %d", got, estimateSize(big))
	}
	_ = c.Delete("a")
	if got := c.Stats()["size_bytes"].(int64); got != 0 {
		t.Errorf("size after delete = %d, want 0", got)
	}
}
