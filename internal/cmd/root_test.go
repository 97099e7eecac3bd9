package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/assessgate/core"
)

// fakeBackend answers POST /auth/login with a fixed profile.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds core.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/auth/login" || creds.Password != "right" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid credentials"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-1",
			"user": map[string]any{
				"id": 1, "email": creds.Email, "firstName": "Ana", "lastName": "Reyes",
				"role": map[string]any{"id": 2, "name": "Psychologist"},
				"permissions": []map[string]any{
					{"id": 1, "name": "READ_PATIENTS"},
					{"id": 2, "name": "READ_ASSESSMENTS"},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig points the CLI at the fake backend and a temp session file.
func writeConfig(t *testing.T, apiURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "assessgate.yaml")
	body := fmt.Sprintf(`
api:
  base_url: %s
store:
  driver: file
  path: %s
log:
  level: error
`, apiURL, filepath.Join(dir, "session.json"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	root, opts := newRoot()
	defer opts.teardown()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// Requirement: all subcommands are registered
func TestRootSubcommands(t *testing.T) {
	subcommands := map[string]bool{
		"serve": false, "login": false, "logout": false, "whoami": false, "nav": false, "check": false,
	}

	for _, c := range NewRootCmd().Commands() {
		if _, exists := subcommands[c.Name()]; exists {
			subcommands[c.Name()] = true
		}
	}

	for name, found := range subcommands {
		if !found {
			t.Errorf("subcommand '%s' not registered", name)
		}
	}
}

// Requirement: login persists a session that later invocations restore
func TestLoginWhoamiLogout(t *testing.T) {
	cfg := writeConfig(t, fakeBackend(t).URL)

	out, err := run(t, cfg, "", "login", "--email", "ana@b.com", "--password", "right")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Ana Reyes <ana@b.com>")

	out, err = run(t, cfg, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Role:        Psychologist")
	assert.Contains(t, out, "READ_PATIENTS, READ_ASSESSMENTS")

	out, err = run(t, cfg, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = run(t, cfg, "", "whoami")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

// Requirement: the password may come from stdin
func TestLogin_PasswordFromStdin(t *testing.T) {
	cfg := writeConfig(t, fakeBackend(t).URL)

	_, err := run(t, cfg, "right\n", "login", "--email", "ana@b.com")

	require.NoError(t, err)
}

// Requirement: rejected credentials report the backend message
func TestLogin_Rejected(t *testing.T) {
	cfg := writeConfig(t, fakeBackend(t).URL)

	_, err := run(t, cfg, "", "login", "--email", "ana@b.com", "--password", "wrong")

	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
}

// Requirement: nav shows only permitted entries in candidate order
func TestNav(t *testing.T) {
	cfg := writeConfig(t, fakeBackend(t).URL)
	_, err := run(t, cfg, "", "login", "--email", "ana@b.com", "--password", "right")
	require.NoError(t, err)

	out, err := run(t, cfg, "", "nav")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Dashboard"))
	assert.True(t, strings.HasPrefix(lines[1], "Patients"))
	assert.True(t, strings.HasPrefix(lines[2], "Assessments"))
}

// Requirement: check prints the decision and fails unless allowed
func TestCheck(t *testing.T) {
	cfg := writeConfig(t, fakeBackend(t).URL)

	out, err := run(t, cfg, "", "check", "--permission", "READ_PATIENTS")
	assert.ErrorIs(t, err, ErrAccessNotGranted)
	assert.Equal(t, "redirect\n", out)

	_, err = run(t, cfg, "", "login", "--email", "ana@b.com", "--password", "right")
	require.NoError(t, err)

	tests := []struct {
		name    string
		args    []string
		want    string
		allowed bool
	}{
		{name: "held permission", args: []string{"--permission", "READ_PATIENTS"}, want: "allow", allowed: true},
		{name: "missing permission", args: []string{"--permission", "READ_USERS"}, want: "deny"},
		{name: "permitted route", args: []string{"--route", "/assessments/:id"}, want: "allow", allowed: true},
		{name: "forbidden route", args: []string{"--route", "/users/delete/:id", "--method", "post"}, want: "deny"},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			out, err := run(t, cfg, "", append([]string{"check"}, test.args...)...)

			assert.Equal(t, test.want+"\n", out)
			if test.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrAccessNotGranted)
			}
		})
	}
}

func TestCheck_FlagValidation(t *testing.T) {
	cfg := writeConfig(t, fakeBackend(t).URL)

	_, err := run(t, cfg, "", "check")
	assert.Error(t, err)

	_, err = run(t, cfg, "", "check", "--route", "/nope")
	assert.ErrorContains(t, err, "unknown route")
}
