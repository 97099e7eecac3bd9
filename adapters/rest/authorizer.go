package rest

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/lborres/assessgate/core"
)

// BearerAuthorizer holds the token attached to outbound requests.
type BearerAuthorizer struct {
	mu    sync.RWMutex
	token string
}

var _ core.RequestAuthorizer = (*BearerAuthorizer)(nil)

func (a *BearerAuthorizer) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

func (a *BearerAuthorizer) ClearToken() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
}

func (a *BearerAuthorizer) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// HeaderRequestID correlates console requests with backend logs.
const HeaderRequestID = "X-Request-ID"

// bearerTransport adds "Authorization: Bearer <token>" while a token is set
// and strips any Authorization header once it is cleared.
type bearerTransport struct {
	base http.RoundTripper
	auth *BearerAuthorizer
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	if token := t.auth.Token(); token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	} else {
		r.Header.Del("Authorization")
	}
	if r.Header.Get(HeaderRequestID) == "" {
		r.Header.Set(HeaderRequestID, uuid.NewString())
	}

	return t.base.RoundTrip(r)
}
