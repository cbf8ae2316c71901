// Package apperr defines the error kinds handlers report to clients and the
// HTTP status each one maps to.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindConflict
	KindInvalidOperation
	KindInvalidUpload
	KindMissingFile
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindInvalidUpload:
		return "invalid_upload"
	case KindMissingFile:
		return "missing_file"
	default:
		return "internal"
	}
}

// Status is the HTTP status code reported for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict, KindInvalidOperation, KindInvalidUpload, KindMissingFile:
		return fiber.StatusBadRequest
	case KindAuth:
		return fiber.StatusUnauthorized
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// Error carries a client-safe message. Err holds the underlying cause and is
// never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error       { return New(KindValidation, message) }
func Auth(message string) *Error             { return New(KindAuth, message) }
func NotFound(message string) *Error         { return New(KindNotFound, message) }
func Conflict(message string) *Error         { return New(KindConflict, message) }
func InvalidOperation(message string) *Error { return New(KindInvalidOperation, message) }
func InvalidUpload(message string) *Error    { return New(KindInvalidUpload, message) }
func MissingFile(message string) *Error      { return New(KindMissingFile, message) }

func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Response converts any error into the status and message sent to the
// client. Internal errors never expose their cause.
func Response(err error) (int, string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind.Status(), appErr.Message
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code == fiber.StatusRequestEntityTooLarge {
			return KindInvalidUpload.Status(), "file too large"
		}
		return fiberErr.Code, fiberErr.Message
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// Handler is a fiber.ErrorHandler writing {"message": ...} bodies.
func Handler(logf func(format string, args ...any)) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := Response(err)
		if status >= fiber.StatusInternalServerError && logf != nil {
			logf("%s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(status).JSON(fiber.Map{"message": message})
	}
}
