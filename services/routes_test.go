package services

import (
	"errors"
	"net/http"
	"testing"

	"github.com/lborres/assessgate/core"
)

// Requirement: the registry starts with the default routes in order.
func TestNewRouteRegistry(t *testing.T) {
	reg := NewRouteRegistry()

	routes := reg.Routes()
	defaults := core.DefaultRoutes()
	if len(routes) != len(defaults) {
		t.Fatalf("Routes() returned %d routes, want %d", len(routes), len(defaults))
	}
	for i := range defaults {
		if routes[i].Key() != defaults[i].Key() {
			t.Errorf("route %d = %s, want %s", i, routes[i].Key(), defaults[i].Key())
		}
	}

	rt, ok := reg.Lookup(http.MethodGet, "/users/new")
	if !ok || rt.Permission != "CREATE_USERS" {
		t.Errorf("Lookup(/users/new) = %+v, %v", rt, ok)
	}
}

// Requirement: plugin registration is all-or-nothing with METHOD:PATH conflict detection.
func TestRouteRegistry_RegisterPlugin(t *testing.T) {
	tests := []struct {
		name      string
		routes    []core.Route
		wantErr   bool
		wantAdded int
	}{
		{
			name: "new routes register",
			routes: []core.Route{
				{Name: "questions.list", Method: http.MethodGet, Path: "/questions", Permission: "READ_QUESTIONS"},
				{Name: "questions.new", Method: http.MethodGet, Path: "/questions/new", Permission: "CREATE_QUESTIONS"},
			},
			wantAdded: 2,
		},
		{
			name: "conflict with default route",
			routes: []core.Route{
				{Name: "questions.list", Method: http.MethodGet, Path: "/questions"},
				{Name: "users.shadow", Method: http.MethodGet, Path: "/users"},
			},
			wantErr: true,
		},
		{
			name: "duplicate within plugin",
			routes: []core.Route{
				{Name: "a", Method: http.MethodGet, Path: "/reports"},
				{Name: "b", Method: http.MethodGet, Path: "/reports"},
			},
			wantErr: true,
		},
		{
			name: "same path different method",
			routes: []core.Route{
				{Name: "users.import", Method: http.MethodPost, Path: "/users"},
			},
			wantAdded: 1,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			reg := NewRouteRegistry()
			before := len(reg.Routes())

			// Act
			err := reg.RegisterPlugin(test.routes)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("RegisterPlugin() error = %v, wantErr %v", err, test.wantErr)
			}
			if test.wantErr && !errors.Is(err, core.ErrRouteConflict) {
				t.Errorf("RegisterPlugin() error = %v, want ErrRouteConflict", err)
			}
			if got := len(reg.Routes()) - before; got != test.wantAdded {
				t.Errorf("registered %d routes, want %d", got, test.wantAdded)
			}
		})
	}
}
