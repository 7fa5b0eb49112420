package token

import "errors"

var (
	// ErrToken matches every structural token failure.
	ErrToken = errors.New("invalid token")
	// ErrTokenFormat is returned when a token has no period separated payload segment.
	ErrTokenFormat = errors.New("missing token payload")
	// ErrTokenHeader is returned when the first segment is not the session header.
	ErrTokenHeader = errors.New("invalid token format")
	// ErrTokenPayload is returned when the payload segment is not base64 encoded JSON.
	ErrTokenPayload = errors.New("invalid token payload")
)

// Error describes why a token failed to decode. Kind is one of ErrTokenFormat,
// ErrTokenHeader or ErrTokenPayload; Err carries the underlying cause, if any.
type Error struct {
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

// Is reports every token error as ErrToken.
func (e *Error) Is(target error) bool {
	return target == ErrToken
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}
