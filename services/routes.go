package services

import (
	"fmt"
	"sync"

	"github.com/lborres/assessgate/core"
)

// RouteRegistry manages the protected routes of the client
// and handles conflict detection for duplicate METHOD:PATH combinations.
//
// It starts with core.DefaultRoutes and supports registration of
// additional plugin routes.
type RouteRegistry struct {
	mu sync.RWMutex
	// routes keyed by "METHOD:PATH"
	routes map[string]core.Route
	// order preserves registration order for rendering and mounting
	order []string
}

// NewRouteRegistry creates a new registry with all default routes pre-registered.
func NewRouteRegistry() *RouteRegistry {
	reg := &RouteRegistry{
		routes: make(map[string]core.Route),
	}

	for _, r := range core.DefaultRoutes() {
		reg.routes[r.Key()] = r
		reg.order = append(reg.order, r.Key())
	}

	return reg
}

// RegisterPlugin registers additional routes.
// Returns an error wrapping core.ErrRouteConflict if any route conflicts with
// existing routes or with another route in the same batch.
//
// If an error occurs, no routes from the plugin are registered.
func (r *RouteRegistry) RegisterPlugin(routes []core.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// First, check for conflicts with existing routes
	for _, rt := range routes {
		if _, exists := r.routes[rt.Key()]; exists {
			return fmt.Errorf("%w: %s %s", core.ErrRouteConflict, rt.Method, rt.Path)
		}
	}

	// Check for conflicts within the plugin set itself
	seen := make(map[string]bool)
	for _, rt := range routes {
		if seen[rt.Key()] {
			return fmt.Errorf("%w: plugin contains duplicate %s %s", core.ErrRouteConflict, rt.Method, rt.Path)
		}
		seen[rt.Key()] = true
	}

	for _, rt := range routes {
		r.routes[rt.Key()] = rt
		r.order = append(r.order, rt.Key())
	}

	return nil
}

// Routes returns all registered routes in registration order.
func (r *RouteRegistry) Routes() []core.Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]core.Route, 0, len(r.order))
	for _, key := range r.order {
		result = append(result, r.routes[key])
	}
	return result
}

// Lookup finds a route by method and path pattern.
func (r *RouteRegistry) Lookup(method, path string) (core.Route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.routes[method+":"+path]
	return rt, ok
}
