package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/duty-scheduler/internal/config"
)

func TestGetOAuthConfig(t *testing.T) {
	cfg, err := GetOAuthConfig(&config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURI:      "https://accounts.google.com/o/oauth2/auth",
		TokenURI:     "https://oauth2.googleapis.com/token",
		RedirectURIs: []string{"http://localhost"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "client", cfg.ClientID)
	assert.Equal(t, []string{ScopeSheets}, cfg.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", cfg.RedirectURL)
}

func TestTokenFileRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	got, err := LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, got)

	token := &oauth2.Token{AccessToken: "abc", RefreshToken: "def", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, SaveTokenToFile("test", token))

	path, err := getTokenFilePath("test")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())
	assert.Equal(t, "token-test.json", filepath.Base(path))

	got, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.AccessToken)
	assert.Equal(t, "def", got.RefreshToken)

	require.NoError(t, DeleteTokenFile("test"))
	require.NoError(t, DeleteTokenFile("test"))
	got, err = LoadTokenFromFile("test")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMissingScopes(t *testing.T) {
	scope := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"scope": %q}`, scope)
	}))
	defer srv.Close()

	orig := tokenInfoURL
	tokenInfoURL = srv.URL
	t.Cleanup(func() { tokenInfoURL = orig })

	scope = "openid " + ScopeSheets
	missing, err := missingScopes(context.Background(), &oauth2.Token{AccessToken: "x"})
	require.NoError(t, err)
	assert.Empty(t, missing)

	scope = "openid"
	err = validateTokenScopes(context.Background(), &oauth2.Token{AccessToken: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ScopeSheets)
}

func TestCallbackHandler(t *testing.T) {
	codes := make(chan string, 1)
	errs := make(chan error, 1)
	h := callbackHandler(codes, errs)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, callbackPath, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Error(t, <-errs)

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, callbackPath+"?code=xyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xyz", <-codes)
}
