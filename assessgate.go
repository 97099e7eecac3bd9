package assessgate

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate/core"
	"github.com/lborres/assessgate/pkg/crypto"
	"github.com/lborres/assessgate/services"
)

// interfaces
type (
	EntryStore        = core.EntryStore
	SessionStore      = core.SessionStore
	Authenticator     = core.Authenticator
	RequestAuthorizer = core.RequestAuthorizer
)

// structs
type (
	UserProfile = core.UserProfile
	Role        = core.Role
	Permission  = core.Permission
	Credentials = core.Credentials
	LoginResult = core.LoginResult
	Snapshot    = core.Snapshot
	Requirement = core.Requirement
	Decision    = core.Decision
	NavEntry    = core.NavEntry
	Route       = core.Route
	Action      = core.Action
	AuthError   = core.AuthError
	KDF         = crypto.KDF
)

const (
	DecisionPending  = core.DecisionPending
	DecisionRedirect = core.DecisionRedirect
	DecisionDeny     = core.DecisionDeny
	DecisionAllow    = core.DecisionAllow

	LoginPath = core.LoginPath
)

// Constructors & helpers (convenience re-exports)
var (
	Evaluate          = core.Evaluate
	ComposeNavigation = core.ComposeNavigation
	DefaultNavigation = core.DefaultNavigation
	DefaultRoutes     = core.DefaultRoutes
	ResourceActions   = core.ResourceActions
	HasPermission     = core.HasPermission
	HasAnyPermission  = core.HasAnyPermission
)

var (
	ErrAuthenticationFailed = core.ErrAuthenticationFailed
	ErrLoginSuperseded      = core.ErrLoginSuperseded
	ErrPersistSession       = core.ErrPersistSession
	ErrHydration            = core.ErrHydration
)

var (
	ErrEmailRequired    = core.ErrEmailRequired
	ErrPasswordRequired = core.ErrPasswordRequired
)

var (
	ErrStoreRequired         = core.ErrStoreRequired
	ErrAuthenticatorRequired = core.ErrAuthenticatorRequired
	ErrSecretTooShort        = crypto.ErrSecretTooShort
	ErrRouteConflict         = core.ErrRouteConflict
)

// Config wires a Gate. Either Store or Entries must be set.
type Config struct {
	// Store takes precedence over Entries when both are set.
	Store SessionStore
	// Entries is wrapped in the key-value session codec.
	Entries EntryStore
	// Secret seals values written through Entries. Optional.
	Secret string
	KDF    *KDF

	Authenticator Authenticator
	Authorizer    RequestAuthorizer

	Logger     logrus.FieldLogger
	Registerer prometheus.Registerer

	// Navigation replaces the default menu candidates.
	Navigation []NavEntry
	// Routes are registered after the default routes.
	Routes []Route
}

// Gate bundles the session with everything that reads it.
type Gate struct {
	Session   *services.SessionContext
	Guard     *services.RouteGuard
	Navigator *services.Navigator
	Routes    *services.RouteRegistry
	Metrics   *services.Metrics
}

func New(config Config) (*Gate, error) {
	if config.Store == nil && config.Entries == nil {
		return nil, ErrStoreRequired
	}
	if config.Authenticator == nil {
		return nil, ErrAuthenticatorRequired
	}

	// Set Defaults

	logger := config.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	store := config.Store
	if store == nil {
		var sealer *crypto.Sealer
		if config.Secret != "" {
			kdf := crypto.DefaultKDF()
			if config.KDF != nil {
				kdf = *config.KDF
			}
			s, err := crypto.NewSealerWithKDF(config.Secret, kdf)
			if err != nil {
				return nil, err
			}
			sealer = s
		}
		store = services.NewEntrySessionStore(config.Entries, sealer)
	}

	var metrics *services.Metrics
	if config.Registerer != nil {
		metrics = services.NewMetrics(config.Registerer)
	}

	routes := services.NewRouteRegistry()
	if len(config.Routes) > 0 {
		if err := routes.RegisterPlugin(config.Routes); err != nil {
			return nil, fmt.Errorf("failed to register routes: %w", err)
		}
	}

	session := services.NewSessionContext(services.SessionOptions{
		Store:         store,
		Authenticator: config.Authenticator,
		Authorizer:    config.Authorizer,
		Logger:        logger,
		Metrics:       metrics,
	})

	return &Gate{
		Session:   session,
		Guard:     services.NewRouteGuard(session, metrics),
		Navigator: services.NewNavigator(session, config.Navigation),
		Routes:    routes,
		Metrics:   metrics,
	}, nil
}

// Start hydrates the session from the store. It runs at most once.
func (g *Gate) Start(ctx context.Context) {
	g.Session.Hydrate(ctx)
}

// Check evaluates a route against the current session.
func (g *Gate) Check(route Route) Decision {
	return g.Guard.Check(route.Path, route.Requirement())
}

// Element returns a guard for a single permission-gated fragment.
// Callers should Close it when the fragment goes away.
func (g *Gate) Element(permission string) *services.ElementGuard {
	return services.NewElementGuard(g.Session, permission)
}
