package faults

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors for the failure taxonomy used across services and
// controllers. Controllers translate these into HTTP status codes; the
// 401 vs 403 split (no principal vs insufficient rights) is externally
// observable and must stay intact.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrSignatureInvalid = errors.New("invalid signature")
)

// Forbiddenf wraps ErrForbidden with a reason.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrForbidden)...)
}

// Conflictf wraps ErrConflict with a reason.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}

// Invalidf wraps ErrInvalidInput with a reason.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

// StatusCode maps a taxonomy error to its HTTP status. Unknown errors map
// to 500 so store/transport failures never leak as client errors.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrSignatureInvalid):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// Code returns the machine-readable error code used in JSON bodies.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "bad_request"
	case errors.Is(err, ErrSignatureInvalid):
		return "invalid_signature"
	default:
		return "internal_server_error"
	}
}
