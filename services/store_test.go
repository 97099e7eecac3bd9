package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lborres/assessgate/adapters/memory"
	"github.com/lborres/assessgate/core"
	"github.com/lborres/assessgate/pkg/crypto"
)

func newTestSealer(t *testing.T) *crypto.Sealer {
	t.Helper()
	s, err := crypto.NewSealerWithKDF("0123456789abcdef0123456789abcdef", crypto.KDF{Memory: 1024, Iterations: 1, Parallelism: 1, Salt: []byte("test")})
	if err != nil {
		t.Fatalf("NewSealerWithKDF() error = %v", err)
	}
	return s
}

func TestEntrySessionStore_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		sealed bool
	}{
		{name: "plain"},
		{name: "sealed", sealed: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			ctx := context.Background()
			entries := memory.New()
			var sealer *crypto.Sealer
			if test.sealed {
				sealer = newTestSealer(t)
			}
			store := NewEntrySessionStore(entries, sealer)
			user := testUser(3, "s@b.com", "READ_ASSESSMENTS")

			// Act
			if err := store.Save(ctx, "tok-s", user); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := store.Load(ctx)

			// Assert
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.Token != "tok-s" || got.User == nil || got.User.Email != "s@b.com" {
				t.Errorf("Load() = %+v", got)
			}
			if !core.HasPermission(got.User.Permissions, "READ_ASSESSMENTS") {
				t.Error("permissions were not persisted")
			}

			raw, _ := entries.Get(ctx, core.TokenKey)
			if test.sealed && raw[core.TokenKey] == "tok-s" {
				t.Error("sealed store persisted the raw token")
			}
			if !test.sealed && raw[core.TokenKey] != "tok-s" {
				t.Errorf("plain store persisted %q", raw[core.TokenKey])
			}

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
			if got, _ := store.Load(ctx); !got.IsEmpty() {
				t.Errorf("Load() after Clear() = %+v, want empty", got)
			}
		})
	}
}

func TestEntrySessionStore_Malformed(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		entries map[string]string
		sealed  bool
	}{
		{name: "bad json", entries: map[string]string{core.TokenKey: "t", core.UserKey: "{"}},
		{name: "unsealed value under sealer", entries: map[string]string{core.TokenKey: "t", core.UserKey: "{}"}, sealed: true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			entries := memory.New()
			_ = entries.Put(ctx, test.entries)
			var sealer *crypto.Sealer
			if test.sealed {
				sealer = newTestSealer(t)
			}

			got, err := NewEntrySessionStore(entries, sealer).Load(ctx)

			if !errors.Is(err, core.ErrHydration) {
				t.Fatalf("Load() error = %v, want ErrHydration", err)
			}
			if !got.IsEmpty() {
				t.Errorf("Load() = %+v, want empty", got)
			}
		})
	}
}

// Requirement: sealed entries cannot be swapped between keys.
func TestEntrySessionStore_SealedEntriesAreBoundToKeys(t *testing.T) {
	// Arrange
	ctx := context.Background()
	entries := memory.New()
	store := NewEntrySessionStore(entries, newTestSealer(t))
	if err := store.Save(ctx, "tok-s", testUser(3, "s@b.com", "READ_ASSESSMENTS")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, err := entries.Get(ctx, core.TokenKey, core.UserKey)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Act
	_ = entries.Put(ctx, map[string]string{
		core.TokenKey: raw[core.UserKey],
		core.UserKey:  raw[core.TokenKey],
	})
	got, err := store.Load(ctx)

	// Assert
	if !errors.Is(err, core.ErrHydration) {
		t.Fatalf("Load() error = %v, want ErrHydration", err)
	}
	if !strings.Contains(err.Error(), crypto.ErrInvalidSealed.Error()) {
		t.Errorf("Load() error = %v, want it to report an invalid sealed value", err)
	}
	if !got.IsEmpty() {
		t.Errorf("Load() = %+v, want empty", got)
	}
}
