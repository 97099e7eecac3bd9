package core

import (
	"net/http"
	"strings"
)

// Views a route can render.
const (
	ViewDashboard = "dashboard"
	ViewList      = "list"
	ViewForm      = "form"
	ViewDetail    = "detail"
	// ViewAction routes perform a change and redirect instead of rendering.
	ViewAction = "action"
)

// Route is a protected view of the administrative client.
type Route struct {
	Name       string
	Method     string
	Path       string
	Title      string
	View       string
	Resource   string
	Permission string
}

// Requirement returns the access requirement for the route.
func (r Route) Requirement() Requirement {
	return Requirement{Permission: r.Permission}
}

// Key identifies a route for conflict detection.
func (r Route) Key() string {
	return r.Method + ":" + r.Path
}

// Resources managed through list/new/edit screens, in sidebar order.
var crudResources = []struct {
	name  string
	title string
}{
	{"users", "Users"},
	{"roles", "Roles"},
	{"permissions", "Permissions"},
	{"psychologists", "Psychologists"},
	{"patients", "Patients"},
	{"assessments", "Assessments"},
}

// PermissionName builds a permission name from an action and a resource,
// e.g. ("read", "users") -> "READ_USERS".
func PermissionName(action, resource string) string {
	resource = strings.ReplaceAll(resource, "-", "_")
	return strings.ToUpper(action) + "_" + strings.ToUpper(resource)
}

// DefaultRoutes lists the client's protected views.
func DefaultRoutes() []Route {
	routes := []Route{
		{Name: "dashboard", Method: http.MethodGet, Path: "/", Title: "Dashboard", View: ViewDashboard},
	}

	for _, res := range crudResources {
		base := "/" + res.name
		routes = append(routes,
			Route{Name: res.name + ".list", Method: http.MethodGet, Path: base, Title: res.title, View: ViewList, Resource: res.name, Permission: PermissionName("read", res.name)},
			Route{Name: res.name + ".new", Method: http.MethodGet, Path: base + "/new", Title: "New " + res.title, View: ViewForm, Resource: res.name, Permission: PermissionName("create", res.name)},
			Route{Name: res.name + ".edit", Method: http.MethodGet, Path: base + "/edit/:id", Title: "Edit " + res.title, View: ViewForm, Resource: res.name, Permission: PermissionName("update", res.name)},
			Route{Name: res.name + ".delete", Method: http.MethodPost, Path: base + "/delete/:id", Title: "Delete " + res.title, View: ViewAction, Resource: res.name, Permission: PermissionName("delete", res.name)},
		)
	}

	routes = append(routes,
		Route{Name: "assessments.view", Method: http.MethodGet, Path: "/assessments/:id", Title: "Assessment", View: ViewDetail, Resource: "assessments", Permission: "READ_ASSESSMENTS"},
		Route{Name: "assessments.take", Method: http.MethodGet, Path: "/assessments/:id/take", Title: "Take Assessment", View: ViewForm, Resource: "assessments", Permission: "UPDATE_ASSESSMENTS"},
	)

	return routes
}

// Action is an element-level control on a resource screen.
type Action struct {
	Name       string
	Label      string
	Permission string
}

// ResourceActions returns the guarded Create, Edit and Delete controls of a resource screen.
func ResourceActions(resource string) []Action {
	return []Action{
		{Name: "create", Label: "Create", Permission: PermissionName("create", resource)},
		{Name: "edit", Label: "Edit", Permission: PermissionName("update", resource)},
		{Name: "delete", Label: "Delete", Permission: PermissionName("delete", resource)},
	}
}
