package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func sampleSession(name string) *SessionData {
	return &SessionData{
		Name: name,
		URL:  FeedURL,
		Cookies: []Cookie{
			{Name: AuthCookie, Value: "token", Domain: ".www.linkedin.com", Path: "/", Expires: 4102444800, Secure: true, HTTPOnly: true, SameSite: "None"},
			{Name: "JSESSIONID", Value: "ajax:1", Domain: ".www.linkedin.com", Path: "/"},
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, BackendFile)

	require.NoError(t, store.Save(sampleSession("work")))
	require.NoError(t, store.Save(sampleSession("alt")))

	info, err := os.Stat(filepath.Join(dir, "work.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := store.Load("work")
	require.NoError(t, err)
	assert.Equal(t, "work", got.Name)
	assert.Len(t, got.Cookies, 2)

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alt", "work"}, names)

	require.NoError(t, store.Delete("work"))
	require.NoError(t, store.Delete("work"), "deleting twice is not an error")
	_, err = store.Load("work")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, dir, store.Location())
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()
	store := NewStore("", BackendKeyring)

	require.NoError(t, store.Save(sampleSession("linkedin")))
	require.NoError(t, store.Save(sampleSession("second")))
	require.NoError(t, store.Save(sampleSession("linkedin")))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"linkedin", "second"}, names)

	got, err := store.Load("linkedin")
	require.NoError(t, err)
	assert.True(t, hasCookie(got.Cookies, AuthCookie))

	require.NoError(t, store.Delete("second"))
	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"linkedin"}, names)
	assert.Contains(t, store.Location(), "keyring")
}

func TestKeyringStoreError(t *testing.T) {
	keyring.MockInitWithError(errors.New("locked"))
	t.Cleanup(keyring.MockInit)

	err := NewStore("", BackendKeyring).Save(sampleSession("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestLoadExpired(t *testing.T) {
	store := NewStore(t.TempDir(), BackendFile)
	s := sampleSession("old")
	s.ExpiresAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(s))

	got, err := store.Load("old")
	assert.ErrorIs(t, err, ErrSessionExpired)
	require.NotNil(t, got)
	assert.Equal(t, "old", got.Name)
}

func TestInvalidSessionNames(t *testing.T) {
	store := NewStore(t.TempDir(), BackendFile)
	for _, name := range []string{"", "../x", `a\b`, "..", manifestKey} {
		assert.Error(t, store.Save(&SessionData{Name: name}), name)
		_, err := store.Load(name)
		assert.Error(t, err, name)
	}
}

func TestExpiryOf(t *testing.T) {
	assert.True(t, expiryOf(nil).IsZero())
	assert.True(t, expiryOf([]Cookie{{Expires: -1}}).IsZero())
	got := expiryOf([]Cookie{{Expires: 100}, {Expires: 2000}, {Expires: 5}})
	assert.Equal(t, int64(2000), got.Unix())
}

func TestToCookieParams(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	params := ToCookieParams([]Cookie{
		{Name: "live", Value: "1", Domain: ".linkedin.com", Expires: 2_000_000, SameSite: "Lax", Secure: true},
		{Name: "dead", Value: "1", Domain: ".linkedin.com", Expires: 10},
		{Name: "session", Value: "1", Domain: ".linkedin.com", SameSite: "bogus"},
		{Name: "", Value: "nameless"},
	}, now)

	require.Len(t, params, 2)
	assert.Equal(t, "live", params[0].Name)
	assert.Equal(t, "/", params[0].Path)
	assert.Equal(t, network.CookieSameSiteLax, params[0].SameSite)
	require.NotNil(t, params[0].Expires)
	assert.Equal(t, int64(2_000_000), params[0].Expires.Time().Unix())
	assert.True(t, params[0].Secure)

	assert.Equal(t, "session", params[1].Name)
	assert.Nil(t, params[1].Expires)
	assert.Empty(t, params[1].SameSite)
}

func TestFromNetworkCookies(t *testing.T) {
	got := FromNetworkCookies([]*network.Cookie{
		{Name: AuthCookie, Value: "v", Domain: ".www.linkedin.com", Path: "/", Expires: 123, HTTPOnly: true, Secure: true, SameSite: network.CookieSameSiteNone},
		nil,
	})
	require.Len(t, got, 1)
	assert.Equal(t, Cookie{Name: AuthCookie, Value: "v", Domain: ".www.linkedin.com", Path: "/", Expires: 123, HTTPOnly: true, Secure: true, SameSite: "None"}, got[0])
}

func TestIsLoggedInURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.linkedin.com/feed/", true},
		{"https://www.linkedin.com/in/ann/", true},
		{"https://linkedin.com/mynetwork/", true},
		{"https://www.linkedin.com/", false},
		{"https://www.linkedin.com/login", false},
		{"https://www.linkedin.com/checkpoint/lg/sign-in-another-account", false},
		{"https://www.linkedin.com/checkpoint/challenge/abc", false},
		{"https://www.linkedin.com/authwall?trk=x", false},
		{"https://www.linkedin.com/uas/login-submit", false},
		{"https://example.com/feed/", false},
		{"about:blank", false},
		{"::", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsLoggedInURL(tt.url), tt.url)
	}
}

func TestSnapshotClassify(t *testing.T) {
	tests := []struct {
		name string
		snap pageSnapshot
		want loginState
	}{
		{"feed", pageSnapshot{URL: FeedURL}, stateLoggedIn},
		{"still_on_form", pageSnapshot{URL: LoginURL}, statePending},
		{"rejected", pageSnapshot{URL: LoginURL, Rejected: true}, stateRejected},
		{"captcha", pageSnapshot{URL: LoginURL, Captcha: true}, stateChallenge},
		{"pin", pageSnapshot{URL: "https://www.linkedin.com/checkpoint/lg/login-submit", Code: true}, stateChallenge},
		{"checkpoint_url", pageSnapshot{URL: "https://www.linkedin.com/checkpoint/challenge/AgE"}, stateChallenge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.snap.classify())
		})
	}
}

func TestNewLinkedInDefaults(t *testing.T) {
	l := NewLinkedIn(nil, LinkedInOptions{})
	assert.Equal(t, DefaultSessionName, l.opts.SessionName)
	assert.Equal(t, DefaultManualTimeout, l.opts.ManualTimeout)
	assert.Equal(t, time.Second, l.opts.PollInterval)
	assert.False(t, Credentials{Email: "a@b.c"}.complete())
	assert.True(t, Credentials{Email: "a@b.c", Password: "pw"}.complete())
}
