package googleauth

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
)

// writeCredentials creates an installed-app client secret file pointing the
// token endpoint at the given URL.
func writeCredentials(t *testing.T, dir, tokenURL string) string {
	t.Helper()

	content := fmt.Sprintf(`{
		"installed": {
			"client_id": "client-id",
			"client_secret": "client-secret",
			"redirect_uris": ["http://localhost"],
			"auth_uri": "https://accounts.google.com/o/oauth2/auth",
			"token_uri": %q
		}
	}`, tokenURL)

	path := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	credentials := writeCredentials(t, dir, "https://oauth2.googleapis.com/token")

	authenticator, err := New(credentials, filepath.Join(dir, "token.json"), 9090)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9090/callback", authenticator.config.RedirectURL)
	assert.Equal(t, Scopes, authenticator.config.Scopes)
}

func TestNew_MissingCredentialsFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent.json"), "token.json", 9090)

	assert.Error(t, err)
}

func TestNew_MalformedCredentialsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := New(path, "token.json", 9090)

	assert.Error(t, err)
}

func TestAuthenticator_Authenticate_UsesCachedToken(t *testing.T) {
	dir := t.TempDir()
	credentials := writeCredentials(t, dir, "https://example.invalid/token")
	cachePath := filepath.Join(dir, "token.json")

	cached := &oauth2.Token{
		AccessToken:  "cached-access",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	}
	require.NoError(t, NewTokenCache(cachePath).Save(cached))

	authenticator, err := New(credentials, cachePath, 9090)
	require.NoError(t, err)

	source, err := authenticator.Authenticate(context.Background())
	require.NoError(t, err)

	token, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, "cached-access", token.AccessToken)
}

func TestAuthenticator_Authenticate_RefreshesExpiredToken(t *testing.T) {
	tokenEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"access_token": "refreshed-access",
			"token_type": "Bearer",
			"expires_in": 3600,
			"refresh_token": "refresh-2"
		}`)
	}))
	t.Cleanup(tokenEndpoint.Close)

	dir := t.TempDir()
	credentials := writeCredentials(t, dir, tokenEndpoint.URL)
	cachePath := filepath.Join(dir, "token.json")

	expired := &oauth2.Token{
		AccessToken:  "stale-access",
		TokenType:    "Bearer",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	}
	require.NoError(t, NewTokenCache(cachePath).Save(expired))

	authenticator, err := New(credentials, cachePath, 9090)
	require.NoError(t, err)

	source, err := authenticator.Authenticate(context.Background())
	require.NoError(t, err)

	token, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", token.AccessToken)

	// The refreshed credential must survive for the next run.
	persisted, err := NewTokenCache(cachePath).Load()
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", persisted.AccessToken)
	assert.Equal(t, "refresh-2", persisted.RefreshToken)
}
