package scan

import "net/http"

// Kind is the machine-readable classification of a request failure.
// Clients still receive the flat message as the response body; the kind
// drives the status code and is available to callers programmatically.
type Kind string

const (
	KindMalformedPath     Kind = "malformed_path"
	KindUnsupportedAction Kind = "unsupported_action"
	KindInvalidTicket     Kind = "invalid_ticket"
	KindInvalidEvent      Kind = "invalid_event"
	KindInvalidBody       Kind = "invalid_body"
	KindAuth              Kind = "invalid_secret"
	KindAlreadyScanned    Kind = "already_scanned"
	KindStoreUnavailable  Kind = "store_unavailable"
)

// Error is a request-level failure with a client-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Status maps the error to an HTTP status code. Caller-input and
// business-rule failures are all 400; store transport failures are the
// only server-side class and report 503 so operators can tell them apart.
func (e *Error) Status() int {
	if e.Kind == KindStoreUnavailable {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
