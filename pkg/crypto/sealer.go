package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	MinSecretLength = 32
	sealedPrefix    = "v1."
)

var (
	ErrSecretTooShort = errors.New("secret too short")
	ErrInvalidSealed  = errors.New("invalid sealed value")
)

// KDF holds the argon2id parameters used to turn a secret into a key.
type KDF struct {
	Memory      uint32 // Memory cost in KiB
	Iterations  uint32 // Number of iterations (time cost)
	Parallelism uint8  // Number of parallel threads
	Salt        []byte
}

// DefaultKDF follows the OWASP argon2id baseline.
//
// @ref https://cheatsheetseries.owasp.org/cheatsheets/Password_Storage_Cheat_Sheet.html
func DefaultKDF() KDF {
	return KDF{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 2,
		// WARN: fixed salt. Sealed values must survive restarts, so the key
		// has to be reproducible from the secret alone.
		Salt: []byte("assessgate/session-seal/v1"),
	}
}

// Sealer encrypts values at rest with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key once from secret using DefaultKDF.
func NewSealer(secret string) (*Sealer, error) {
	return NewSealerWithKDF(secret, DefaultKDF())
}

func NewSealerWithKDF(secret string, kdf KDF) (*Sealer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, MinSecretLength)
	}

	key := argon2.IDKey([]byte(secret), kdf.Salt, kdf.Iterations, kdf.Memory, kdf.Parallelism, chacha20poly1305.KeySize)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal returns "v1." followed by base64url(nonce || ciphertext).
// The value is bound to label and only opens under the same label.
func (s *Sealer) Seal(label, plaintext string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(label))
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal. Tampered, truncated, foreign or relabelled values yield ErrInvalidSealed.
func (s *Sealer) Open(label, sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", fmt.Errorf("%w: missing version prefix", ErrInvalidSealed)
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSealed, err)
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrInvalidSealed)
	}

	nonce, ct := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ct, []byte(label))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSealed, err)
	}

	return string(plain), nil
}
