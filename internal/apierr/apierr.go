// Package apierr defines the error kinds the Decision Engine surfaces to HTTP
// clients, and a single response writer so its handlers report them
// consistently. The Attestor and Parameter Store servers write their own
// plain {"error": ...} bodies and do not use this package.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind is one of the error kinds from the error handling design.
type Kind string

const (
	Validation         Kind = "ValidationError"
	Unauthorized        Kind = "Unauthorized"
	AttestorUnavailable Kind = "AttestorUnavailable"
	StorageConflict     Kind = "StorageConflict"
	Internal            Kind = "InternalError"
)

func (k Kind) status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case AttestorUnavailable:
		return http.StatusBadGateway
	case StorageConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a typed API error carrying the HTTP status its Kind maps to.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind, preserving cause for errors.Is/As.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WriteJSON writes err as a JSON error body with the status its Kind maps
// to (InternalError/500 for any error that isn't an *Error).
func WriteJSON(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = &Error{Kind: Internal, Message: err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Kind.status())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": apiErr.Message,
		"kind":  apiErr.Kind,
	})
}
