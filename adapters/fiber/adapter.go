package fiber

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate/core"
	"github.com/lborres/assessgate/services"
)

//go:embed templates/*.html
var templateFS embed.FS

var ErrSessionRequired = errors.New("session is required")

const (
	DefaultLoginTimeout   = 30 * time.Second
	DefaultRequestTimeout = 15 * time.Second

	// localSnapshot is the Locals key holding the snapshot a request was authorized on.
	localSnapshot = "session"
)

// Session is the part of a SessionContext the console drives.
type Session interface {
	services.SessionReader
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context)
}

// Backend serves the data shown on protected pages. It is optional.
type Backend interface {
	ListRecords(ctx context.Context, resource string) ([]map[string]any, error)
	DeleteRecord(ctx context.Context, resource, id string) error
	DashboardStats(ctx context.Context) (core.DashboardStats, error)
}

type Config struct {
	Session   Session
	Guard     *services.RouteGuard
	Navigator *services.Navigator
	Routes    []core.Route
	Backend   Backend
	// Gatherer enables GET /metrics when set.
	Gatherer       prometheus.Gatherer
	LoginTimeout   time.Duration
	RequestTimeout time.Duration
	Logger         logrus.FieldLogger
}

// Adapter mounts the operator console on a fiber app.
type Adapter struct {
	app  *fiber.App
	cfg  Config
	tmpl *template.Template
	log  logrus.FieldLogger
}

func New(app *fiber.App, cfg Config) (*Adapter, error) {
	if cfg.Session == nil {
		return nil, ErrSessionRequired
	}
	if cfg.Guard == nil {
		cfg.Guard = services.NewRouteGuard(cfg.Session, nil)
	}
	if cfg.Navigator == nil {
		cfg.Navigator = services.NewNavigator(cfg.Session, nil)
	}
	if cfg.Routes == nil {
		cfg.Routes = core.DefaultRoutes()
	}
	if cfg.LoginTimeout == 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse console templates: %w", err)
	}

	return &Adapter{
		app:  app,
		cfg:  cfg,
		tmpl: tmpl,
		log:  log.WithField("component", "console"),
	}, nil
}

func (a *Adapter) RegisterRoutes() error {
	// Public routes
	a.app.Get(core.LoginPath, a.loginPage)
	a.app.Post(core.LoginPath, a.login)
	a.app.Post("/logout", a.logout)
	a.app.Get("/session", a.session)

	if a.cfg.Gatherer != nil {
		a.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// Protected routes
	for _, route := range a.cfg.Routes {
		route := route
		guard, handler := a.requirePermission(route), a.handlerFor(route)

		switch route.Method {
		case http.MethodGet:
			a.app.Get(route.Path, guard, handler)
		case http.MethodPost:
			a.app.Post(route.Path, guard, handler)
		case http.MethodPut:
			a.app.Put(route.Path, guard, handler)
		case http.MethodPatch:
			a.app.Patch(route.Path, guard, handler)
		case http.MethodDelete:
			a.app.Delete(route.Path, guard, handler)
		default:
			return fmt.Errorf("unsupported method %q for route %s", route.Method, route.Path)
		}
	}

	return nil
}

// snapshotFrom returns the snapshot stored by requirePermission.
func snapshotFrom(c fiber.Ctx) core.Snapshot {
	snap, _ := c.Locals(localSnapshot).(core.Snapshot)
	return snap
}

// pageData is what every template receives.
type pageData struct {
	Title   string
	Snap    core.Snapshot
	Nav     []core.NavEntry
	Route   core.Route
	Params  map[string]string
	Actions map[string]core.Action
	Columns []string
	Records []map[string]any
	Stats   *core.DashboardStats
	Error   string
	Email   string
}

func (a *Adapter) page(title string, snap core.Snapshot) pageData {
	return pageData{
		Title: title,
		Snap:  snap,
		Nav:   a.cfg.Navigator.ItemsFor(snap),
	}
}

func (a *Adapter) render(c fiber.Ctx, status int, name string, data pageData) error {
	var buf bytes.Buffer
	if err := a.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		a.log.WithError(err).WithField("template", name).Error("failed to render page")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render page")
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}

// requestContext bounds backend calls made while serving a page.
func (a *Adapter) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), a.cfg.RequestTimeout)
}

// handleAuthError maps login errors to appropriate HTTP responses
func (a *Adapter) handleAuthError(c fiber.Ctx, err error, email string) error {
	status := mapErrorToStatus(err)
	reason := errorReason(err)

	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{
			"error": reason,
		})
	}

	data := a.page("Sign in", core.Snapshot{})
	data.Error = reason
	data.Email = email
	return a.render(c, status, "login", data)
}

// mapErrorToStatus maps gate error types to HTTP status codes
func mapErrorToStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch {
	case errors.Is(err, core.ErrEmailRequired),
		errors.Is(err, core.ErrPasswordRequired):
		return http.StatusBadRequest

	case errors.Is(err, core.ErrLoginSuperseded):
		return http.StatusConflict

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, core.ErrAuthenticationFailed):
		return http.StatusUnauthorized

	default:
		return http.StatusInternalServerError
	}
}

// errorReason is the user-facing text for a login error.
func errorReason(err error) string {
	var authErr *core.AuthError
	switch {
	case errors.As(err, &authErr):
		return authErr.Reason
	case errors.Is(err, core.ErrLoginSuperseded):
		return "Login was replaced by a newer attempt"
	case errors.Is(err, context.DeadlineExceeded):
		return "Login timed out"
	default:
		return core.DefaultAuthReason
	}
}

func wantsJSON(c fiber.Ctx) bool {
	ct := c.Get(fiber.HeaderContentType)
	accept := c.Get(fiber.HeaderAccept)
	return hasPrefix(ct, fiber.MIMEApplicationJSON) || hasPrefix(accept, fiber.MIMEApplicationJSON)
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
