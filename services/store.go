package services

import (
	"context"
	"fmt"

	"github.com/lborres/assessgate/core"
	"github.com/lborres/assessgate/pkg/crypto"
)

// EntrySessionStore implements core.SessionStore on top of a key-value
// core.EntryStore, serializing the profile as JSON under core.UserKey.
//
// With a sealer both entries are encrypted before they reach the entry store;
// values that fail to open load as an empty session with core.ErrHydration.
type EntrySessionStore struct {
	entries core.EntryStore
	sealer  *crypto.Sealer
}

var _ core.SessionStore = (*EntrySessionStore)(nil)

// NewEntrySessionStore wraps entries. sealer may be nil.
func NewEntrySessionStore(entries core.EntryStore, sealer *crypto.Sealer) *EntrySessionStore {
	return &EntrySessionStore{entries: entries, sealer: sealer}
}

func (s *EntrySessionStore) Load(ctx context.Context) (core.Session, error) {
	values, err := s.entries.Get(ctx, core.TokenKey, core.UserKey)
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to read session entries: %w", err)
	}

	token, err := s.open(core.TokenKey, values[core.TokenKey])
	if err != nil {
		return core.Session{}, fmt.Errorf("%w: %s: %v", core.ErrHydration, core.TokenKey, err)
	}
	rawUser, err := s.open(core.UserKey, values[core.UserKey])
	if err != nil {
		return core.Session{}, fmt.Errorf("%w: %s: %v", core.ErrHydration, core.UserKey, err)
	}

	return core.DecodeSession(token, rawUser)
}

func (s *EntrySessionStore) Save(ctx context.Context, token string, user *core.UserProfile) error {
	rawUser, err := core.EncodeUser(user)
	if err != nil {
		return err
	}

	sealedToken, err := s.seal(core.TokenKey, token)
	if err != nil {
		return err
	}
	sealedUser, err := s.seal(core.UserKey, rawUser)
	if err != nil {
		return err
	}

	return s.entries.Put(ctx, map[string]string{
		core.TokenKey: sealedToken,
		core.UserKey:  sealedUser,
	})
}

func (s *EntrySessionStore) Clear(ctx context.Context) error {
	return s.entries.Delete(ctx, core.TokenKey, core.UserKey)
}

// seal binds v to its entry key, so values cannot be swapped between entries.
func (s *EntrySessionStore) seal(key, v string) (string, error) {
	if s.sealer == nil {
		return v, nil
	}
	return s.sealer.Seal(key, v)
}

func (s *EntrySessionStore) open(key, v string) (string, error) {
	if s.sealer == nil || v == "" {
		return v, nil
	}
	return s.sealer.Open(key, v)
}
