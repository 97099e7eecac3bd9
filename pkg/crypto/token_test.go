package crypto

import (
	"encoding/hex"
	"testing"
)

func TestHashToken(t *testing.T) {
	hash := HashToken("secret-token")

	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA256)", len(hash))
	}
	if _, err := hex.DecodeString(hash); err != nil {
		t.Errorf("hash is not valid hex: %v", err)
	}
	if HashToken("secret-token") != hash {
		t.Error("HashToken() should be deterministic")
	}
}

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantLen int
	}{
		{name: "empty token", token: "", wantLen: 0},
		{name: "short token", token: "a", wantLen: FingerprintLength},
		{name: "jwt-ish token", token: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig", wantLen: FingerprintLength},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			fp := Fingerprint(test.token)

			// Assert
			if len(fp) != test.wantLen {
				t.Errorf("Fingerprint() length = %d, want %d", len(fp), test.wantLen)
			}
			if test.token != "" && fp == test.token {
				t.Error("Fingerprint() leaked the raw token")
			}
		})
	}
}
