package reflection

import (
	"errors"
	"net/http"
)

// Kind classifies errors returned by Service.Reflect.
type Kind string

const (
	KindBadRequest         Kind = "bad_request"
	KindServiceUnavailable Kind = "service_unavailable"
	KindUpstream           Kind = "upstream_communication_error"
	KindInternal           Kind = "internal_error"
)

var (
	ErrEmptyJournal       = errors.New("no journal entry provided to analyze")
	ErrServiceUnavailable = errors.New("reflection model is not initialized")
	ErrInternal           = errors.New("unexpected reflection failure")
)

// UpstreamError reports a failed call to the model service.
type UpstreamError struct {
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return "model communication error: " + e.Message
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// KindOf maps an error returned by Reflect to its category. Unknown errors
// are internal.
func KindOf(err error) Kind {
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrEmptyJournal):
		return KindBadRequest
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	case errors.As(err, &upstream):
		return KindUpstream
	default:
		return KindInternal
	}
}

// HTTPStatus returns the status code used for the error's kind.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message shown to clients for err.
func PublicMessage(err error) string {
	var upstream *UpstreamError
	switch KindOf(err) {
	case KindBadRequest:
		return "No journal entry provided to analyze."
	case KindServiceUnavailable:
		return "AI Service is currently offline due to initialization failure."
	case KindUpstream:
		errors.As(err, &upstream)
		return "LLM API Communication Error: " + upstream.Message
	default:
		return "An unexpected server error occurred."
	}
}
