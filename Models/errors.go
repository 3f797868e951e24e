package Models

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth is wrapped around every rejection from the identity provider.
	ErrAuth = errors.New("authentication failed")
	// ErrInvalidCredentials signals an unknown account or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthInProgress is returned while another sign-in is still settling.
	ErrAuthInProgress = errors.New("authentication already in progress")
	// ErrUnauthenticated is returned for mutations without a signed in identity.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrIndexOutOfRange is returned for positional mutations past the collection.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotFound is returned for id addressed mutations and missing documents.
	ErrNotFound = errors.New("not found")
	// ErrRemoteWriteFailed is returned when a write-through fails after validation.
	ErrRemoteWriteFailed = errors.New("remote write failed")
	// ErrVoiceRequiresFace is returned when voice is enabled before face authentication.
	ErrVoiceRequiresFace = errors.New("voice commands require face authentication")
	// ErrForbidden is returned for roster mutations by non administrators.
	ErrForbidden = errors.New("administrator access required")
)

// ValidationError reports a missing or malformed field before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DuplicateFieldError names the sign-up field that collides with the roster.
type DuplicateFieldError struct {
	Field string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("%s is already in use", e.Field)
}

// AuthFailure wraps a provider error so that errors.Is(err, ErrAuth) holds.
func AuthFailure(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuth) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrAuth, err)
}

// RemoteWriteFailure wraps a directory write error.
func RemoteWriteFailure(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrRemoteWriteFailed, path, err)
}

// OutOfRange builds the positional bounds error.
func OutOfRange(index, size int) error {
	return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, size)
}

// Message is the single human readable line shown for a failed operation.
func Message(err error) string {
	var validation *ValidationError
	var duplicate *DuplicateFieldError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &duplicate):
		return duplicate.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email, username or password"
	case errors.Is(err, ErrUnauthenticated):
		return "Please sign in first"
	case errors.Is(err, ErrIndexOutOfRange), errors.Is(err, ErrNotFound):
		return "The selected entry no longer exists"
	case errors.Is(err, ErrRemoteWriteFailed):
		return "Failed to save changes. Please try again."
	case errors.Is(err, ErrVoiceRequiresFace):
		return "Please authenticate with face recognition first before using voice commands."
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to do this"
	case errors.Is(err, ErrAuth):
		return err.Error()
	default:
		return err.Error()
	}
}
