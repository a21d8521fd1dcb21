// Package apierror provides the typed error taxonomy of the settlement engine
// plus the standardized JSON error envelope returned to clients. All errors
// surfaced to callers go through this package so that internal details (stack
// traces, SQL errors, driver messages) never leak.
package apierror

import (
	"errors"
	"net/http"
)

// Kind classifies an engine error so transport layers can map it to a status
// code and callers can decide whether a retry makes sense.
type Kind int

const (
	// KindInternal is the fallback for unclassified faults.
	KindInternal Kind = iota
	// KindNotFound — entity absent or not owned by the tenant. Not retryable.
	KindNotFound
	// KindValidation — missing or malformed required fields.
	KindValidation
	// KindInsufficientStock — the store-level guard rejected a deduction
	// because the lot no longer holds the requested quantity.
	KindInsufficientStock
	// KindOversell — a settlement request asked for more than the lot's
	// available pieces or weight.
	KindOversell
	// KindAlreadySold — the lot has no remaining quantity at all.
	KindAlreadySold
	// KindDuplicateSerial — serial number collision within a tenant.
	KindDuplicateSerial
	// KindSequenceUnavailable — the invoice counter increment failed; the
	// whole settlement is aborted and may be retried.
	KindSequenceUnavailable
	// KindIntegrity — an invariant would be broken (available > total,
	// reused invoice number). Fatal: indicates a bug or store corruption.
	KindIntegrity
)

// Error is the engine's error type. Msg is safe to show to callers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(msg string) *Error          { return &Error{Kind: KindNotFound, Msg: msg} }
func Validation(msg string) *Error        { return &Error{Kind: KindValidation, Msg: msg} }
func InsufficientStock(msg string) *Error { return &Error{Kind: KindInsufficientStock, Msg: msg} }
func Oversell(msg string) *Error          { return &Error{Kind: KindOversell, Msg: msg} }
func AlreadySold(msg string) *Error       { return &Error{Kind: KindAlreadySold, Msg: msg} }
func DuplicateSerial(msg string) *Error   { return &Error{Kind: KindDuplicateSerial, Msg: msg} }

func SequenceUnavailable(err error) *Error {
	return &Error{Kind: KindSequenceUnavailable, Msg: "invoice sequence unavailable", Err: err}
}

func Integrity(msg string) *Error { return &Error{Kind: KindIntegrity, Msg: msg} }

// Internal wraps an unclassified fault with a caller-safe message.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf extracts the Kind from an error chain. Unclassified errors report
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the transport layer should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindOversell, KindAlreadySold, KindInsufficientStock:
		return http.StatusBadRequest
	case KindDuplicateSerial:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}
