package errors

import (
	"fmt"
	"strings"
)

// Common error codes for the project (using the new Code type)
// These are now defined in code.go with proper validation

// Migration helpers - make existing code work immediately
func FromFmtErrorf(code Code, format string, args ...interface{}) *Error {
	return Newf(code, format, args...)
}

// Common error constructors for quick use
func Internal(message string) *Error {
	return New(CommonInternal, message, nil)
}

func NotFound(message string) *Error {
	return New(CommonNotFound, message, nil)
}

func Validation(message string) *Error {
	return New(CommonValidation, message, nil)
}

func Timeout(message string) *Error {
	return New(CommonTimeout, message, nil)
}

func Unauthorized(message string) *Error {
	return New(CommonUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(CommonForbidden, message, nil)
}

func Conflict(message string) *Error {
	return New(CommonConflict, message, nil)
}

func Unsupported(message string) *Error {
	return New(CommonUnsupported, message, nil)
}

func InvalidInput(message string) *Error {
	return New(CommonInvalidInput, message, nil)
}

func AlreadyExists(message string) *Error {
	return New(CommonAlreadyExists, message, nil)
}

// IsTypedError reports whether err is one of this package's *Error values.
func IsTypedError(err error) bool {
	_, ok := err.(*Error)
	return ok
}

// AsError converts any error into this package's *Error. Errors that are
// already *Error pass through unchanged; errors implementing InternalError
// are converted via Transform(); anything else is wrapped as CommonInternal.
// Returns nil for a nil input.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if typed, ok := err.(*Error); ok {
		return typed
	}
	if internal, ok := err.(InternalError); ok {
		return internal.Transform()
	}
	return New(CommonInternal, err.Error(), err)
}

// GetCode returns the error code string, or "" if err isn't a *Error.
func GetCode(err error) string {
	if typed, ok := err.(*Error); ok {
		return typed.Code.String()
	}
	return ""
}

// FormatForLog renders an error (with code, message, context, cause) as a
// single log-friendly line.
func FormatForLog(err error) string {
	if typed, ok := err.(*Error); ok {
		var parts []string
		parts = append(parts, fmt.Sprintf("Code: %s", typed.Code))
		parts = append(parts, fmt.Sprintf("Message: %s", typed.Message))

		if keys := typed.GetContextKeys(); len(keys) > 0 {
			var contextParts []string
			for _, k := range keys {
				contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, typed.GetContext(k)))
			}
			parts = append(parts, fmt.Sprintf("Context: %s", strings.Join(contextParts, ", ")))
		}

		if typed.Cause != nil {
			parts = append(parts, fmt.Sprintf("Cause: %v", typed.Cause))
		}

		return strings.Join(parts, " | ")
	}
	return err.Error()
}
