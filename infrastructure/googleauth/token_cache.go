package googleauth

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TokenCache persists the OAuth2 token bundle between runs so the
// interactive consent flow only happens once per credential.
type TokenCache struct {
	path string
}

func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Load reads the cached token. A missing or unreadable cache is an error;
// callers fall back to refresh or consent.
func (c *TokenCache) Load() (*oauth2.Token, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(b, token); err != nil {
		return nil, fmt.Errorf("failed to decode token cache: %w", err)
	}

	return token, nil
}

// Save overwrites the cache with the given token, creating the parent
// directory when needed. The file is user-readable only.
func (c *TokenCache) Save(token *oauth2.Token) error {
	b, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token cache directory: %w", err)
		}
	}

	if err := os.WriteFile(c.path, b, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}

	return nil
}
