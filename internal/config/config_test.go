package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/assessgate/pkg/crypto"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assessgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// Requirement: defaults are valid on their own
func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, DriverFile, cfg.Store.Driver)
	assert.NotEmpty(t, cfg.Store.Path)
	assert.Equal(t, 30*time.Second, cfg.Console.LoginTimeout)
}

// Requirement: file values override defaults and the environment overrides the file
func TestLoad_Layering(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://api.example.test
  timeout: 5s
store:
  driver: redis
  url: redis://localhost:6379/0
  ttl: 12h
log:
  level: debug
  format: json
`)
	t.Setenv("ASSESSGATE_LOG_LEVEL", "warn")
	t.Setenv("ASSESSGATE_STORE_PREFIX", "test:")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, 12*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "test:", cfg.Store.Prefix)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:8080", cfg.Console.Addr)
}

// Requirement: configuration errors are reported before anything starts
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"ASSESSGATE_STORE_DRIVER": "mongo"},
			wantErr: "invalid store driver",
		},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"ASSESSGATE_STORE_DRIVER": "postgres"},
			wantErr: "dsn is required",
		},
		{
			name:    "relative api url",
			env:     map[string]string{"ASSESSGATE_API_URL": "/api"},
			wantErr: "not an absolute URL",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"ASSESSGATE_LOGIN_TIMEOUT": "soon"},
			wantErr: "ASSESSGATE_LOGIN_TIMEOUT",
		},
		{
			name:    "bad bool",
			env:     map[string]string{"ASSESSGATE_CONSOLE_METRICS": "maybe"},
			wantErr: "ASSESSGATE_CONSOLE_METRICS",
		},
		{
			name:    "bad log format",
			env:     map[string]string{"ASSESSGATE_LOG_FORMAT": "xml"},
			wantErr: "invalid log format",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			for k, v := range test.env {
				t.Setenv(k, v)
			}

			_, err := Load("")

			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), test.wantErr), "error %q does not mention %q", err, test.wantErr)
		})
	}
}

// Requirement: a sealing secret must meet the minimum length
func TestLoad_ShortSecret(t *testing.T) {
	t.Setenv("ASSESSGATE_SECRET", "short")

	_, err := Load("")

	require.Error(t, err)
	assert.True(t, errors.Is(err, crypto.ErrSecretTooShort))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
