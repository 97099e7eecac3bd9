package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate/core"
	"github.com/lborres/assessgate/pkg/crypto"
)

// LoginTimedOutReason is reported when the caller's deadline expires before
// the collaborator answers.
const LoginTimedOutReason = "Login timed out"

// SessionOptions wires a SessionContext to its collaborators.
// Store and Authenticator are required; the rest are optional.
type SessionOptions struct {
	Store         core.SessionStore
	Authenticator core.Authenticator
	Authorizer    core.RequestAuthorizer
	Logger        logrus.FieldLogger
	Metrics       *Metrics
}

// SessionContext owns the in-memory session. It is the single writer;
// guards, navigation and handlers read it through Snapshot.
//
// The lifecycle is loading -> resolved, exactly once, via Hydrate.
// Until Hydrate completes every snapshot reports Loading.
type SessionContext struct {
	store      core.SessionStore
	auth       core.Authenticator
	authorizer core.RequestAuthorizer
	log        logrus.FieldLogger
	metrics    *Metrics

	mu      sync.RWMutex
	loading bool
	token   string
	user    *core.UserProfile
	// version counts applied transitions; hydration results are dropped when it moved.
	version uint64
	// loginSeq is bumped by every login attempt and every logout.
	loginSeq    uint64
	cancelLogin context.CancelFunc

	hydrateOnce sync.Once

	// writeMu serializes store writes with the state changes they back.
	writeMu sync.Mutex

	notifyMu sync.Mutex
	subMu    sync.Mutex
	subs     []subscriber
	nextSub  uint64
}

type subscriber struct {
	id uint64
	fn func(core.Snapshot)
}

func NewSessionContext(opts SessionOptions) *SessionContext {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	authorizer := opts.Authorizer
	if authorizer == nil {
		authorizer = noopAuthorizer{}
	}

	return &SessionContext{
		store:      opts.Store,
		auth:       opts.Authenticator,
		authorizer: authorizer,
		log:        log.WithField("component", "session"),
		metrics:    opts.Metrics,
		loading:    true,
	}
}

// Hydrate reads the persisted session once and resolves the loading state.
// Later calls are no-ops. A malformed or partial persisted session resolves
// to signed out; the failure is logged and never returned.
func (c *SessionContext) Hydrate(ctx context.Context) {
	c.hydrateOnce.Do(func() {
		c.hydrate(ctx)
	})
}

func (c *SessionContext) hydrate(ctx context.Context) {
	c.mu.RLock()
	startVersion := c.version
	c.mu.RUnlock()

	sess, err := c.store.Load(ctx)
	switch {
	case errors.Is(err, core.ErrHydration):
		c.log.WithError(err).Warn("discarding malformed persisted session")
		sess = core.Session{}
	case err != nil:
		c.log.WithError(err).Warn("failed to load persisted session")
		sess = core.Session{}
	case !sess.IsComplete() && !sess.IsEmpty():
		c.log.Warn("discarding partial persisted session")
		sess = core.Session{}
	}

	// The outbound token must change under writeMu together with the state,
	// otherwise a Logout or Login could land between the two.
	c.writeMu.Lock()
	c.mu.Lock()
	applied := c.version == startVersion
	if applied {
		c.token = sess.Token
		c.user = sess.User
	}
	c.loading = false
	c.mu.Unlock()

	if applied && sess.IsComplete() {
		c.authorizer.SetToken(sess.Token)
	}
	c.writeMu.Unlock()

	if !applied {
		c.metrics.recordTransition(transitionDiscarded)
		c.log.Debug("session changed during hydration, keeping newer state")
	} else {
		if sess.IsComplete() {
			c.log.WithFields(logrus.Fields{
				"user_email": sess.User.Email,
				"token_fp":   crypto.Fingerprint(sess.Token),
			}).Info("restored persisted session")
		}
		c.metrics.recordTransition(transitionHydrated)
	}

	c.publish()
}

// Login authenticates against the collaborator and, on success, persists and
// applies the new session.
//
// A newer Login or a Logout supersedes an in-flight attempt: its context is
// cancelled and its late result is discarded with core.ErrLoginSuperseded.
// Rejections are returned as *core.AuthError with state left unchanged.
func (c *SessionContext) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		c.metrics.recordLogin(outcomeInvalid, 0)
		return &core.AuthError{Reason: core.ErrEmailRequired.Error(), Err: core.ErrEmailRequired}
	}
	if password == "" {
		c.metrics.recordLogin(outcomeInvalid, 0)
		return &core.AuthError{Reason: core.ErrPasswordRequired.Error(), Err: core.ErrPasswordRequired}
	}

	loginCtx, seq := c.beginLogin(ctx)
	defer c.endLogin(seq)

	start := time.Now()
	res, err := c.auth.Login(loginCtx, core.Credentials{Email: email, Password: password})
	took := time.Since(start)

	if c.superseded(seq) {
		c.metrics.recordLogin(outcomeSuperseded, took)
		return core.ErrLoginSuperseded
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.metrics.recordLogin(outcomeAborted, took)
		return &core.AuthError{Reason: LoginTimedOutReason, Err: ctx.Err()}
	}
	if ctx.Err() != nil {
		c.metrics.recordLogin(outcomeAborted, took)
		return fmt.Errorf("login aborted: %w", ctx.Err())
	}
	if err != nil {
		c.metrics.recordLogin(outcomeRejected, took)
		var authErr *core.AuthError
		if !errors.As(err, &authErr) {
			authErr = core.NewAuthError("", err)
		}
		c.log.WithError(err).WithField("user_email", email).Info("login rejected")
		return authErr
	}
	if res == nil || res.Token == "" || res.User == nil {
		c.metrics.recordLogin(outcomeRejected, took)
		return core.NewAuthError("", errors.New("incomplete login response"))
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.superseded(seq) {
		c.metrics.recordLogin(outcomeSuperseded, took)
		return core.ErrLoginSuperseded
	}

	user := res.User.Clone()
	if err := c.store.Save(ctx, res.Token, user); err != nil {
		c.metrics.recordLogin(outcomePersist, took)
		c.log.WithError(err).WithField("user_email", email).Error("failed to persist session")
		return fmt.Errorf("%w: %v", core.ErrPersistSession, err)
	}

	c.mu.Lock()
	c.token = res.Token
	c.user = user
	c.version++
	c.mu.Unlock()

	c.authorizer.SetToken(res.Token)
	c.metrics.recordLogin(outcomeSuccess, took)
	c.metrics.recordTransition(transitionLogin)
	c.log.WithFields(logrus.Fields{
		"user_email": user.Email,
		"token_fp":   crypto.Fingerprint(res.Token),
	}).Info("login succeeded")

	c.publish()
	return nil
}

// Logout clears the session everywhere. It never fails and makes no network call;
// a store error is logged and the in-memory state is still cleared.
func (c *SessionContext) Logout(ctx context.Context) {
	c.mu.Lock()
	c.loginSeq++
	if c.cancelLogin != nil {
		c.cancelLogin()
		c.cancelLogin = nil
	}
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	fp := crypto.Fingerprint(c.token)
	c.token = ""
	c.user = nil
	c.version++
	c.mu.Unlock()

	c.authorizer.ClearToken()

	if err := c.store.Clear(ctx); err != nil {
		c.log.WithError(err).Warn("failed to clear persisted session")
	}

	c.metrics.recordTransition(transitionLogout)
	c.log.WithField("token_fp", fp).Info("logged out")

	c.publish()
}

func (c *SessionContext) beginLogin(ctx context.Context) (context.Context, uint64) {
	loginCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancelLogin != nil {
		c.cancelLogin()
	}
	c.loginSeq++
	c.cancelLogin = cancel
	return loginCtx, c.loginSeq
}

func (c *SessionContext) endLogin(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loginSeq == seq && c.cancelLogin != nil {
		c.cancelLogin()
		c.cancelLogin = nil
	}
}

func (c *SessionContext) superseded(seq uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loginSeq != seq
}

// Snapshot returns a consistent copy of the current state.
func (c *SessionContext) Snapshot() core.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return core.Snapshot{
		Loading: c.loading,
		Token:   c.token,
		User:    c.user.Clone(),
	}
}

func (c *SessionContext) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// IsAuthenticated is true iff both token and user are present.
func (c *SessionContext) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != "" && c.user != nil
}

// User returns a copy of the current profile, or nil.
func (c *SessionContext) User() *core.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user.Clone()
}

func (c *SessionContext) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasPermission is false while there is no user.
func (c *SessionContext) HasPermission(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return false
	}
	return core.HasPermission(c.user.Permissions, name)
}

func (c *SessionContext) HasAnyPermission(names []string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return false
	}
	return core.HasAnyPermission(c.user.Permissions, names)
}

// Subscribe registers fn to receive the latest snapshot after every
// transition. Callbacks run synchronously on the goroutine that caused the
// change and must not call Login or Logout.
func (c *SessionContext) Subscribe(fn func(core.Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// publish delivers the state as of delivery time, so the last delivery
// always carries the latest state even when transitions race.
func (c *SessionContext) publish() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.subMu.Lock()
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()

	if len(subs) == 0 {
		return
	}

	snap := c.Snapshot()
	for _, s := range subs {
		s.fn(snap)
	}
}

type noopAuthorizer struct{}

func (noopAuthorizer) SetToken(string) {}
func (noopAuthorizer) ClearToken()     {}
