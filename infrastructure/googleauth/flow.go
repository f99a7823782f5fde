package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/vfg2006/dv360-sheets-sync/pkg/middleware"
)

// consent runs the interactive authorization flow: a local callback listener
// on the fixed configured port, the consent URL printed for the user, and the
// returned code exchanged for a token.
func (a *Authenticator) consent(ctx context.Context) (*oauth2.Token, error) {
	state := uuid.New().String()
	codes := make(chan string, 1)

	router := httprouter.New()
	router.Handler(http.MethodGet, "/callback", callbackHandler(state, codes))

	chain := alice.New(
		middleware.LoggingMiddleware(),
		middleware.RecoveryMiddleware(),
	).Then(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: chain,
	}

	serverErrs := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrs <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("auth: failed to shut down callback listener")
		}
	}()

	authURL := a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Printf("Open the following URL in your browser to grant access:\n%s\n", authURL)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case err := <-serverErrs:
		return nil, fmt.Errorf("callback listener failed: %w", err)

	case code := <-codes:
		token, err := a.config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}
		return token, nil
	}
}

func callbackHandler(state string, codes chan<- string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("state") != state {
			http.Error(w, "invalid state parameter", http.StatusBadRequest)
			return
		}

		code := r.FormValue("code")
		if code == "" {
			http.Error(w, "missing authorization code", http.StatusBadRequest)
			return
		}

		fmt.Fprintln(w, "Authorization received. You can close this window.")

		select {
		case codes <- code:
		default:
		}
	})
}
