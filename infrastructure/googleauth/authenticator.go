package googleauth

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/doubleclickbidmanager/v2"
	"google.golang.org/api/sheets/v4"
)

// Scopes cover both remote services used by the workflow: the reporting API
// and the spreadsheet API.
var Scopes = []string{
	doubleclickbidmanager.DoubleclickbidmanagerScope,
	sheets.SpreadsheetsScope,
}

// Authenticator establishes a valid credential: cached token when possible,
// refresh when expired, interactive consent as the last resort. The
// resulting token is always persisted back to the cache.
type Authenticator struct {
	config *oauth2.Config
	cache  *TokenCache
	port   int
}

func New(credentialsFile, tokenCacheFile string, callbackPort int) (*Authenticator, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}

	config.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", callbackPort)

	return &Authenticator{
		config: config,
		cache:  NewTokenCache(tokenCacheFile),
		port:   callbackPort,
	}, nil
}

// Authenticate returns a token source backed by the cached credential,
// refreshing or re-consenting as needed, and persists the credential it
// settled on.
func (a *Authenticator) Authenticate(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := a.cache.Load()

	switch {
	case err == nil && token.Valid():
		logrus.Debug("auth: using cached credential")

	case err == nil && token.RefreshToken != "":
		logrus.Info("auth: cached credential expired, refreshing")

		refreshed, rerr := a.config.TokenSource(ctx, token).Token()
		if rerr != nil {
			logrus.WithError(rerr).Warn("auth: refresh failed, falling back to interactive consent")

			if token, err = a.consent(ctx); err != nil {
				return nil, err
			}
		} else {
			token = refreshed
		}

	default:
		if err != nil {
			logrus.WithError(err).Info("auth: no usable cached credential, starting interactive consent")
		} else {
			logrus.Info("auth: cached credential is not refreshable, starting interactive consent")
		}

		if token, err = a.consent(ctx); err != nil {
			return nil, err
		}
	}

	if err := a.cache.Save(token); err != nil {
		return nil, err
	}

	return oauth2.ReuseTokenSource(token, a.config.TokenSource(ctx, token)), nil
}
