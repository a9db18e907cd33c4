package urlutil

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/law-makers/profiler/pkg/models"
)

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}

	return nil
}

// ParseProfileURL checks that raw points at a LinkedIn member profile and
// returns it in canonical form: https://www.linkedin.com/in/<slug>.
// Input without a scheme gets https:// prepended; query and fragment are dropped.
func ParseProfileURL(raw string) (models.ProfileIdentifier, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty profile URL")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	if err := ValidateURL(s); err != nil {
		return "", err
	}
	parsed, _ := url.Parse(s)

	host := strings.ToLower(parsed.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return "", fmt.Errorf("not a linkedin.com URL: %s", raw)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "in" || segments[1] == "" {
		return "", fmt.Errorf("not a profile URL (expected /in/<name>): %s", raw)
	}

	return models.ProfileIdentifier("https://www.linkedin.com/in/" + segments[1]), nil
}

// Slug returns the /in/<slug> part of a profile identifier, or "" if it has none
func Slug(id models.ProfileIdentifier) string {
	_, after, ok := strings.Cut(string(id), "/in/")
	if !ok {
		return ""
	}
	slug, _, _ := strings.Cut(after, "/")
	return slug
}
