package services

import (
	"context"
	"sync"

	"github.com/lborres/assessgate/core"
)

// FakeStore is a test-only fake implementing core.SessionStore.
// It keeps the raw persisted entries and exposes error fields for behavior injection.
type FakeStore struct {
	mu       sync.Mutex
	token    string
	rawUser  string
	loadErr  error
	saveErr  error
	clearErr error
	saves    int
	clears   int
	// loadGate, when set, blocks Load until it is closed.
	loadGate chan struct{}
	// loadStarted, when set, is closed once Load has read the entries.
	loadStarted chan struct{}
}

var _ core.SessionStore = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Seed sets the persisted entries as they would appear on disk.
func (f *FakeStore) Seed(token, rawUser string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token, f.rawUser = token, rawUser
}

func (f *FakeStore) Entries() (token, rawUser string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.rawUser
}

func (f *FakeStore) Load(ctx context.Context) (core.Session, error) {
	f.mu.Lock()
	token, rawUser, loadErr := f.token, f.rawUser, f.loadErr
	gate, started := f.loadGate, f.loadStarted
	f.loadStarted = nil
	f.mu.Unlock()

	// entries are read before blocking so a gated Load returns what was
	// persisted when it began
	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return core.Session{}, ctx.Err()
		}
	}

	if loadErr != nil {
		return core.Session{}, loadErr
	}
	return core.DecodeSession(token, rawUser)
}

func (f *FakeStore) Save(_ context.Context, token string, user *core.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := core.EncodeUser(user)
	if err != nil {
		return err
	}
	f.token, f.rawUser = token, raw
	f.saves++
	return nil
}

func (f *FakeStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.token, f.rawUser = "", ""
	return nil
}

// FakeAuthenticator is a test-only fake implementing core.Authenticator.
// Accounts maps email to password and result. Hook, when set, runs before
// the lookup and may block on ctx to simulate a slow backend.
type FakeAuthenticator struct {
	mu       sync.Mutex
	accounts map[string]fakeAccount
	err      error
	calls    int
	Hook     func(ctx context.Context, creds core.Credentials) error
}

type fakeAccount struct {
	password string
	result   core.LoginResult
}

var _ core.Authenticator = (*FakeAuthenticator)(nil)

func NewFakeAuthenticator() *FakeAuthenticator {
	return &FakeAuthenticator{accounts: make(map[string]fakeAccount)}
}

func (f *FakeAuthenticator) AddAccount(email, password, token string, user *core.UserProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = fakeAccount{password: password, result: core.LoginResult{Token: token, User: user}}
}

func (f *FakeAuthenticator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeAuthenticator) Login(ctx context.Context, creds core.Credentials) (*core.LoginResult, error) {
	f.mu.Lock()
	f.calls++
	hook := f.Hook
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, creds); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	acct, ok := f.accounts[creds.Email]
	if !ok || acct.password != creds.Password {
		return nil, core.NewAuthError("Invalid credentials", nil)
	}
	res := acct.result
	res.User = res.User.Clone()
	return &res, nil
}

// FakeAuthorizer is a test-only fake implementing core.RequestAuthorizer.
type FakeAuthorizer struct {
	mu      sync.Mutex
	token   string
	history []string
}

var _ core.RequestAuthorizer = (*FakeAuthorizer)(nil)

func (f *FakeAuthorizer) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.history = append(f.history, "set:"+token)
}

func (f *FakeAuthorizer) ClearToken() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.history = append(f.history, "clear")
}

func (f *FakeAuthorizer) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}
