package fiber

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate/core"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type sessionResponse struct {
	Loading       bool              `json:"loading"`
	Authenticated bool              `json:"authenticated"`
	User          *core.UserProfile `json:"user,omitempty"`
	Permissions   []string          `json:"permissions"`
	Navigation    []core.NavEntry   `json:"navigation"`
}

// Table columns shown per resource. Unknown resources show only the id.
var resourceColumns = map[string][]string{
	"users":         {"id", "firstName", "lastName", "email", "isActive"},
	"roles":         {"id", "name", "description"},
	"permissions":   {"id", "name", "description"},
	"psychologists": {"id", "firstName", "lastName", "email"},
	"patients":      {"id", "firstName", "lastName", "email"},
	"assessments":   {"id", "title", "status"},
}

func (a *Adapter) loginPage(c fiber.Ctx) error {
	snap := a.cfg.Session.Snapshot()
	if snap.IsAuthenticated() {
		return c.Redirect().Status(fiber.StatusSeeOther).To("/")
	}
	return a.render(c, fiber.StatusOK, "login", a.page("Sign in", snap))
}

func (a *Adapter) login(c fiber.Ctx) error {
	var in loginRequest
	if err := c.Bind().Body(&in); err != nil {
		a.log.WithError(err).Debug("invalid login body")
		if wantsJSON(c) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		return a.render(c, fiber.StatusBadRequest, "login", a.page("Sign in", core.Snapshot{}))
	}

	// Use a context that isn't tied to the fasthttp request lifecycle
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.LoginTimeout)
	defer cancel()

	if err := a.cfg.Session.Login(ctx, in.Email, in.Password); err != nil {
		return a.handleAuthError(c, err, in.Email)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(a.sessionBody(a.cfg.Session.Snapshot()))
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To("/")
}

func (a *Adapter) logout(c fiber.Ctx) error {
	ctx, cancel := a.requestContext()
	defer cancel()

	a.cfg.Session.Logout(ctx)

	if wantsJSON(c) {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
		})
	}
	return c.Redirect().Status(fiber.StatusSeeOther).To(core.LoginPath)
}

func (a *Adapter) session(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(a.sessionBody(a.cfg.Session.Snapshot()))
}

func (a *Adapter) sessionBody(snap core.Snapshot) sessionResponse {
	perms := snap.PermissionNames()
	if perms == nil {
		perms = []string{}
	}
	return sessionResponse{
		Loading:       snap.Loading,
		Authenticated: snap.IsAuthenticated(),
		User:          snap.User,
		Permissions:   perms,
		Navigation:    a.cfg.Navigator.ItemsFor(snap),
	}
}

// handlerFor returns the view handler of a guarded route.
func (a *Adapter) handlerFor(route core.Route) fiber.Handler {
	switch route.View {
	case core.ViewDashboard:
		return a.dashboard(route)
	case core.ViewList:
		return a.list(route)
	case core.ViewAction:
		return a.deleteRecord(route)
	default:
		return a.view(route)
	}
}

func (a *Adapter) dashboard(route core.Route) fiber.Handler {
	return func(c fiber.Ctx) error {
		data := a.page(route.Title, snapshotFrom(c))
		data.Route = route

		if a.cfg.Backend != nil {
			ctx, cancel := a.requestContext()
			defer cancel()

			stats, err := a.cfg.Backend.DashboardStats(ctx)
			if err != nil {
				a.log.WithError(err).Warn("failed to load dashboard statistics")
				data.Error = "Failed to load dashboard statistics"
			} else {
				data.Stats = &stats
			}
		}

		return a.render(c, fiber.StatusOK, "dashboard", data)
	}
}

func (a *Adapter) list(route core.Route) fiber.Handler {
	columns, ok := resourceColumns[route.Resource]
	if !ok {
		columns = []string{"id"}
	}
	actions := make(map[string]core.Action)
	for _, action := range core.ResourceActions(route.Resource) {
		actions[action.Name] = action
	}

	return func(c fiber.Ctx) error {
		data := a.page(route.Title, snapshotFrom(c))
		data.Route = route
		data.Columns = columns
		data.Actions = actions

		if a.cfg.Backend != nil {
			ctx, cancel := a.requestContext()
			defer cancel()

			records, err := a.cfg.Backend.ListRecords(ctx, route.Resource)
			if err != nil {
				a.log.WithError(err).WithField("resource", route.Resource).Warn("failed to list records")
				data.Error = "Failed to load " + route.Title
			}
			data.Records = fillColumns(records, columns)
		}

		return a.render(c, fiber.StatusOK, "list", data)
	}
}

// fillColumns gives every record a value for each shown column.
func fillColumns(records []map[string]any, columns []string) []map[string]any {
	for _, rec := range records {
		for _, col := range columns {
			if rec[col] == nil {
				rec[col] = ""
			}
		}
	}
	return records
}

func (a *Adapter) view(route core.Route) fiber.Handler {
	return func(c fiber.Ctx) error {
		data := a.page(route.Title, snapshotFrom(c))
		data.Route = route
		if id := c.Params("id"); id != "" {
			data.Params = map[string]string{"id": id}
		}
		return a.render(c, fiber.StatusOK, "view", data)
	}
}

func (a *Adapter) deleteRecord(route core.Route) fiber.Handler {
	listPath := "/" + route.Resource

	return func(c fiber.Ctx) error {
		if a.cfg.Backend == nil {
			return fiber.NewError(fiber.StatusNotImplemented, "no backend configured")
		}

		id := c.Params("id")
		ctx, cancel := a.requestContext()
		defer cancel()

		if err := a.cfg.Backend.DeleteRecord(ctx, route.Resource, id); err != nil {
			a.log.WithError(err).WithFields(logrus.Fields{
				"resource": route.Resource,
				"id":       id,
			}).Error("failed to delete record")
			return fiber.NewError(http.StatusBadGateway, "failed to delete record")
		}

		return c.Redirect().Status(fiber.StatusSeeOther).To(listPath)
	}
}
