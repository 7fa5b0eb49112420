package goSession

import "errors"

var (
	// ErrAuthenticationFailed matches every *AuthenticationError.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrSessionCreationFailed is returned when login cannot draw an id or insert the session.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrTokenInvalid is returned when a presented token does not decode to a session id.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionNotFound is returned when a token names no active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionLookupFailed is returned when the store fails while resolving a session.
	ErrSessionLookupFailed = errors.New("session lookup failed")
	// ErrSessionInvalidationFailed is returned when the store fails while removing a session.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")
	// ErrEngineNotReady is returned by a nil or closed Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// AuthenticationError carries the credential check's failure unchanged. Its
// message is the original error's message, which the login route shows to
// the client verbatim.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return ErrAuthenticationFailed.Error()
	}
	return e.Err.Error()
}

func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}
