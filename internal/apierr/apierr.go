// Package apierr defines the closed error-kind taxonomy shared by every
// engine adapter and the HTTP surface. Adapters always return a wrapped
// *Error; handlers switch on Kind, never on driver-specific error types.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable, closed set of error categories. Every adapter maps its
// own failures onto one of these before returning.
type Kind string

const (
	Invalid             Kind = "invalid"
	NotFound            Kind = "not_found"
	Conflict            Kind = "conflict"
	EngineNotAvailable  Kind = "engine_not_available"
	NotSupported        Kind = "not_supported"
	DepthLimitExceeded  Kind = "depth_limit_exceeded"
	StoreUnavailable    Kind = "store_unavailable"
	Internal            Kind = "internal"
)

// Error is the concrete type carried by every apierr-wrapped failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error with no underlying cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds a Kind-tagged error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap tags an existing error with a Kind, preserving it for errors.Is/As.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: err.Error(), Err: err}
}

// Wrapf tags an existing error with a Kind and a formatted message.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the Kind from err, defaulting to Internal when err carries
// no *Error in its chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a Kind to the HTTP status code the server surface writes.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Invalid:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case EngineNotAvailable:
		return http.StatusBadRequest
	case NotSupported:
		return http.StatusBadRequest
	case DepthLimitExceeded:
		return http.StatusBadRequest
	case StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Cacheable reports whether a result that failed with this Kind is safe to
// remember in the result cache. Transient/invalid outcomes are not.
func Cacheable(kind Kind) bool {
	switch kind {
	case Invalid, NotFound, StoreUnavailable, EngineNotAvailable, Internal:
		return false
	default:
		return true
	}
}
