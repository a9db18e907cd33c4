// internal/auth/session.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "profiler-cli"
	// FallbackDir is the directory, relative to home, for file-based session storage
	FallbackDir = ".profiler/sessions"

	manifestKey = "_manifest"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Backend selects where sessions are stored
type Backend string

const (
	BackendAuto    Backend = "auto"
	BackendKeyring Backend = "keyring"
	BackendFile    Backend = "file"
)

// SessionData represents a stored authenticated browser session
type SessionData struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Store keeps sessions in the OS keyring, falling back to JSON files where no
// keyring is available (CI, containers, remote dev environments).
type Store struct {
	dir     string
	backend Backend
	now     func() time.Time

	once    sync.Once
	useFile bool
}

// NewStore creates a Store. dir is the file fallback location; "" means ~/.profiler/sessions.
func NewStore(dir string, backend Backend) *Store {
	if backend == "" {
		backend = BackendAuto
	}
	return &Store{dir: dir, backend: backend, now: time.Now}
}

// fileBased reports whether the file backend is in use, probing the keyring once in auto mode
func (s *Store) fileBased() bool {
	s.once.Do(func() {
		switch s.backend {
		case BackendFile:
			s.useFile = true
		case BackendKeyring:
			s.useFile = false
		default:
			if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
				s.useFile = true
				return
			}
			testKey := "_test_keyring_access_"
			if err := keyring.Set(KeyringService, testKey, "test"); err != nil {
				log.Debug().Err(err).Msg("Keyring unavailable, using file-based session storage")
				s.useFile = true
				return
			}
			_ = keyring.Delete(KeyringService, testKey)
		}
	})
	return s.useFile
}

// Location describes where sessions are kept, for display
func (s *Store) Location() string {
	if s.fileBased() {
		dir, err := s.sessionDir()
		if err != nil {
			return "file"
		}
		return dir
	}
	return "OS keyring (" + KeyringService + ")"
}

func (s *Store) sessionDir() (string, error) {
	dir := s.dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, FallbackDir)
	}
	return dir, os.MkdirAll(dir, 0700)
}

func (s *Store) sessionPath(name string) (string, error) {
	dir, err := s.sessionDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

func validName(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." || name == manifestKey {
		return fmt.Errorf("invalid session name %q", name)
	}
	return nil
}

// Save stores session, replacing any previous session of the same name
func (s *Store) Save(session *SessionData) error {
	if err := validName(session.Name); err != nil {
		return err
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if s.fileBased() {
		path, err := s.sessionPath(session.Name)
		if err != nil {
			return fmt.Errorf("failed to get session path: %w", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save session file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, session.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return s.updateManifest(session.Name, true)
}

// Load returns the named session. Expired sessions yield ErrSessionExpired.
func (s *Store) Load(name string) (*SessionData, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	var data string
	if s.fileBased() {
		path, err := s.sessionPath(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get session path: %w", err)
		}
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load session file: %w", err)
		}
		data = string(raw)
	} else {
		v, err := keyring.Get(KeyringService, name)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
		data = v
	}

	var session SessionData
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}

	if !session.ExpiresAt.IsZero() && s.now().After(session.ExpiresAt) {
		return &session, ErrSessionExpired
	}

	return &session, nil
}

// Delete removes the named session. Deleting a missing session is not an error.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}

	if s.fileBased() {
		path, err := s.sessionPath(name)
		if err != nil {
			return fmt.Errorf("failed to get session path: %w", err)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete session file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return s.updateManifest(name, false)
}

// List returns the names of all stored sessions, sorted
func (s *Store) List() ([]string, error) {
	if s.fileBased() {
		dir, err := s.sessionDir()
		if err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
			}
		}
		sort.Strings(names)
		return names, nil
	}

	raw, err := keyring.Get(KeyringService, manifestKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session manifest: %w", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// updateManifest adds or removes a name in the keyring manifest
func (s *Store) updateManifest(name string, add bool) error {
	names, err := s.List()
	if err != nil {
		return err
	}

	kept := names[:0]
	for _, n := range names {
		if n != name {
			kept = append(kept, n)
		}
	}
	if add {
		kept = append(kept, name)
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, manifestKey, string(data))
}

// expiryOf returns the latest cookie expiry, or the zero time for session-only cookies
func expiryOf(cookies []Cookie) time.Time {
	maxExpires := 0.0
	for _, c := range cookies {
		if c.Expires > maxExpires {
			maxExpires = c.Expires
		}
	}
	if maxExpires <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(maxExpires), 0)
}
