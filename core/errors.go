package core

import "errors"

// Authentication Related Errors
var (
	ErrAuthenticationFailed = errors.New("authentication failed")                     // 401
	ErrLoginSuperseded      = errors.New("login superseded by a newer session change") // 409
	ErrPersistSession       = errors.New("failed to persist session")                 // 500
)

// Session store errors
var (
	// ErrHydration marks a persisted session that could not be decoded.
	// It is never surfaced to users; the session is treated as empty.
	ErrHydration = errors.New("malformed persisted session")
)

// Validation errors (client input)
var (
	ErrEmailRequired    = errors.New("email is required")    // 400
	ErrPasswordRequired = errors.New("password is required") // 400
)

// Config errors
var (
	ErrStoreRequired         = errors.New("session store is required")    // 500
	ErrAuthenticatorRequired = errors.New("authenticator is required")    // 500
	ErrRouteConflict         = errors.New("route already registered")     // 500
	ErrUnknownStoreDriver    = errors.New("unknown session store driver") // 500
)

// AuthError is returned by login when the collaborator rejects the credentials
// or cannot be reached. Reason is safe to show to the user.
type AuthError struct {
	Reason string
	Status int
	Err    error
}

// DefaultAuthReason is used when the collaborator gives no usable message.
const DefaultAuthReason = "Login failed"

// NewAuthError builds an AuthError; an empty reason falls back to DefaultAuthReason.
func NewAuthError(reason string, cause error) *AuthError {
	if reason == "" {
		reason = DefaultAuthReason
	}
	return &AuthError{Reason: reason, Err: cause}
}

func (e *AuthError) Error() string {
	return e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is makes every AuthError match ErrAuthenticationFailed.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}
