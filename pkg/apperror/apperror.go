package apperror

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// Kind classifies an application error for HTTP mapping and logging.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// Error is a typed application error. Message is safe to show to callers;
// Err carries the internal cause for logging only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by kind so callers can compare against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrNotFound     = &Error{Kind: KindNotFound}
)

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Wrap attaches an internal cause to a typed error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// StatusCode maps an error kind to an HTTP status code.
func StatusCode(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body rendered for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  Kind   `json:"kind"`
}

// Render writes err as a JSON error response. Typed errors map to their
// status code and user-safe message; anything else is logged with detail and
// surfaced as a generic internal error.
func Render(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			slog.Debug("request failed", "kind", appErr.Kind, "err", appErr.Err)
		}
		render.Status(r, StatusCode(appErr.Kind))
		render.JSON(w, r, ErrorResponse{Error: appErr.Message, Kind: appErr.Kind})
		return
	}

	slog.Error("unexpected error", "err", err, "path", r.URL.Path)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, ErrorResponse{Error: "internal server error", Kind: KindInternal})
}
