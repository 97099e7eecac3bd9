package memory

import (
	"context"
	"testing"
)

func TestStore_PutGetDelete(t *testing.T) {
	// Arrange
	ctx := context.Background()
	s := New()

	// Act
	if err := s.Put(ctx, map[string]string{"authToken": "t", "authUser": "{}"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "authToken", "authUser", "missing")

	// Assert
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got) != 2 || got["authToken"] != "t" || got["authUser"] != "{}" {
		t.Errorf("Get() = %v", got)
	}
	if _, ok := got["missing"]; ok {
		t.Error("Get() should omit missing keys")
	}

	if err := s.Delete(ctx, "authToken", "authUser"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "authToken", "authUser"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}

	stats := s.Stats()
	if stats.Writes != 1 || stats.Reads != 1 || stats.Deletes != 2 {
		t.Errorf("Stats() = %+v", stats)
	}
}
