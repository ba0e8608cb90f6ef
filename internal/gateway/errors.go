package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed backend call by how the UI must react.
type Kind int

const (
	// KindInline is shown next to the triggering control.
	KindInline Kind = iota
	// KindValidation carries a field error map to merge into a form.
	KindValidation
	// KindAuth clears the session and sends the user to /login.
	KindAuth
	// KindRedirect sends the user to the generic error page for the status.
	KindRedirect
	// KindNetwork is a transport failure; no status is available.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindRedirect:
		return "redirect"
	case KindNetwork:
		return "network"
	default:
		return "inline"
	}
}

// ErrStaleSession reports a response that arrived after the session it was
// issued under had been replaced or cleared. Its result must be discarded.
var ErrStaleSession = errors.New("session changed while request was in flight")

// Error is a failed backend call.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Redirect is the route the UI navigates to for this error, or "".
func (e *Error) Redirect() string {
	switch e.Kind {
	case KindAuth:
		return "/login"
	case KindRedirect:
		return fmt.Sprintf("/error/%d", e.Status)
	default:
		return ""
	}
}

// KindOf returns the Kind of err, or KindInline for non-gateway errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindInline
}

// classify maps a non-2xx status to a Kind. primary marks requests that load
// a page's main content; only those redirect on 400/404/500.
func classify(status int, fields map[string]string, primary bool) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case len(fields) > 0:
		return KindValidation
	case primary && (status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusInternalServerError):
		return KindRedirect
	default:
		return KindInline
	}
}
