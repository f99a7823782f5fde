package syncing

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Kind classifies a failed step so callers can branch on recoverability
// without parsing log text.
type Kind string

const (
	// KindAuth covers credential load, refresh and consent failures.
	KindAuth Kind = "auth"

	// KindTransport covers HTTP-level failures from either remote API.
	KindTransport Kind = "transport"

	// KindUnknown covers everything else.
	KindUnknown Kind = "unknown"
)

var (
	ErrJobTimedOut            = errors.New("report generation timed out")
	ErrReportGenerationFailed = errors.New("report generation failed")
	ErrReportUnavailable      = errors.New("report not available after retries")
	ErrReportNotReady         = errors.New("report not yet available")
	ErrEmptyJobID             = errors.New("reporting API returned an empty job identifier")
)

// Error is the tagged failure returned by every workflow step.
type Error struct {
	Kind Kind   // recoverability class
	Op   string // the step that failed, e.g. "submit", "poll"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err for op, classifying transport failures by the HTTP
// error type the Google clients return.
func newError(op string, err error) *Error {
	return &Error{
		Kind: classify(err),
		Op:   op,
		Err:  err,
	}
}

func classify(err error) Kind {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return KindAuth
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return KindAuth
		}

		return KindTransport
	}

	return KindUnknown
}

// IsTransport reports whether err carries a transport-kind failure.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTransport
}

// IsAuth reports whether err carries an auth-kind failure.
func IsAuth(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindAuth
}
