package fiber

import (
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/lborres/assessgate/core"
)

// requirePermission creates a Fiber middleware that evaluates the route guard
// and maps its decision to a response. On Allow the authorized snapshot is
// stored in the context for downstream handlers.
func (a *Adapter) requirePermission(route core.Route) fiber.Handler {
	req := route.Requirement()

	return func(c fiber.Ctx) error {
		decision, snap := a.cfg.Guard.CheckSnapshot(route.Path, req)

		switch decision {
		case core.DecisionPending:
			c.Set(fiber.HeaderRetryAfter, "1")
			return a.render(c, fiber.StatusServiceUnavailable, "loading", a.page("Loading...", snap))

		case core.DecisionRedirect:
			// 303 so the guarded URL is not replayed after signing in
			return c.Redirect().Status(fiber.StatusSeeOther).To(core.LoginPath)

		case core.DecisionDeny:
			a.log.WithFields(logrus.Fields{
				"route":      route.Path,
				"permission": route.Permission,
				"user_email": snap.User.Email,
			}).Info("access denied")
			return a.render(c, fiber.StatusForbidden, "denied", a.page("Access Denied", snap))
		}

		c.Locals(localSnapshot, snap)
		return c.Next()
	}
}
