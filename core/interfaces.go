package core

import "context"

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORT (persisted session)
// ============================================

// EntryStore is durable string key-value persistence for the session entries
// (TokenKey, UserKey). Adapters implement it; the session codec sits on top.
//
// Get omits missing keys from the result. Put writes all entries atomically.
// Delete is idempotent.
type EntryStore interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Put(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// SessionStore persists the current token and serialized user profile.
//
// Load never fails hard: a malformed entry returns an empty Session together
// with an error wrapping ErrHydration. Save writes both entries atomically
// from the caller's point of view. Clear removes both and is idempotent.
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, token string, user *UserProfile) error
	Clear(ctx context.Context) error
}

// ============================================
// AUTHENTICATION COLLABORATOR
// ============================================

// Authenticator exchanges credentials for a token and profile.
// Rejections should be reported as *AuthError.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*LoginResult, error)
}

// ============================================
// OUTBOUND REQUEST AUTHENTICATION
// ============================================

// RequestAuthorizer controls the credential attached to outbound requests.
type RequestAuthorizer interface {
	SetToken(token string)
	ClearToken()
}
