package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the closed set of failure classes the service reports to callers.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidRequest
	KindRejected
	KindNotFound
	KindEmptyTranscript
	KindUpstreamUnavailable
	KindConfiguration
	KindEmptyPool
	KindMethodNotAllowed
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindRejected:
		return "rejected"
	case KindNotFound:
		return "not_found"
	case KindEmptyTranscript:
		return "empty_transcript"
	case KindUpstreamUnavailable:
		return "upstream_unavailable"
	case KindConfiguration:
		return "configuration_error"
	case KindEmptyPool:
		return "empty_pool"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal_error"
	}
}

// Status maps a kind to the HTTP status code written to the caller.
func Status(k Kind) int {
	switch k {
	case KindInvalidRequest, KindRejected:
		return http.StatusBadRequest
	case KindNotFound, KindEmptyTranscript:
		return http.StatusNotFound
	case KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamUnavailable, KindConfiguration, KindEmptyPool, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Code is the HTTP status for the error's kind.
func (e *Error) Code() int {
	return Status(e.Kind)
}

func E(kind Kind, op string, err error, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidRequest(op string, err error, message string) *Error {
	return E(KindInvalidRequest, op, err, message)
}

func Rejected(op string, err error, message string) *Error {
	return E(KindRejected, op, err, message)
}

func NotFound(op string, err error, message string) *Error {
	return E(KindNotFound, op, err, message)
}

func EmptyTranscript(op string, message string) *Error {
	return E(KindEmptyTranscript, op, nil, message)
}

func UpstreamUnavailable(op string, err error, message string) *Error {
	return E(KindUpstreamUnavailable, op, err, message)
}

func Configuration(op string, err error, message string) *Error {
	return E(KindConfiguration, op, err, message)
}

func EmptyPool(op string, message string) *Error {
	return E(KindEmptyPool, op, nil, message)
}

// Internal keeps the cause's text as the caller-visible message.
func Internal(op string, err error) *Error {
	message := "Internal server error"
	if err != nil {
		message = err.Error()
	}
	return E(KindInternal, op, err, message)
}

var (
	ErrMethodNotAllowed = E(KindMethodNotAllowed, "", nil, "Method not allowed")
	ErrRateLimited      = E(KindRateLimited, "", nil, "Rate limit exceeded")
)

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if pkgerrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
