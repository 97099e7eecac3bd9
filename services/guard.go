package services

import (
	"sync"

	"github.com/lborres/assessgate/core"
)

// SessionReader is the read side of a SessionContext.
type SessionReader interface {
	Snapshot() core.Snapshot
	Subscribe(fn func(core.Snapshot)) (unsubscribe func())
}

var _ SessionReader = (*SessionContext)(nil)

// RouteGuard decides access to protected routes from the live session.
type RouteGuard struct {
	session SessionReader
	metrics *Metrics
}

func NewRouteGuard(session SessionReader, metrics *Metrics) *RouteGuard {
	return &RouteGuard{session: session, metrics: metrics}
}

// Check evaluates req against the latest snapshot. route only labels the metric.
func (g *RouteGuard) Check(route string, req core.Requirement) core.Decision {
	d, _ := g.CheckSnapshot(route, req)
	return d
}

// CheckSnapshot is Check that also returns the snapshot the decision was made on,
// so callers render with exactly the state that was authorized.
func (g *RouteGuard) CheckSnapshot(route string, req core.Requirement) (core.Decision, core.Snapshot) {
	snap := g.session.Snapshot()
	d := core.Evaluate(snap, req)
	g.metrics.recordDecision(route, d.String())
	return d, snap
}

// ElementGuard shows or hides a fragment depending on a single permission.
//
// Visible always re-derives from the latest snapshot; nothing is cached.
type ElementGuard struct {
	permission string
	session    SessionReader

	mu          sync.Mutex
	last        bool
	listeners   []func(bool)
	unsubscribe func()
}

func NewElementGuard(session SessionReader, permission string) *ElementGuard {
	g := &ElementGuard{
		permission: permission,
		session:    session,
	}
	g.last = g.Visible()
	g.unsubscribe = session.Subscribe(g.onSession)
	return g
}

func (g *ElementGuard) Permission() string {
	return g.permission
}

// Visible reports whether the fragment should be rendered right now.
func (g *ElementGuard) Visible() bool {
	return g.session.Snapshot().HasPermission(g.permission)
}

// Render returns fragment when visible, otherwise the empty string.
func (g *ElementGuard) Render(fragment string) string {
	if !g.Visible() {
		return ""
	}
	return fragment
}

// OnChange registers fn to be called with the new visibility whenever it flips.
func (g *ElementGuard) OnChange(fn func(visible bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Close stops listening for session changes.
func (g *ElementGuard) Close() {
	g.mu.Lock()
	unsub := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (g *ElementGuard) onSession(s core.Snapshot) {
	visible := s.HasPermission(g.permission)

	g.mu.Lock()
	if visible == g.last {
		g.mu.Unlock()
		return
	}
	g.last = visible
	listeners := make([]func(bool), len(g.listeners))
	copy(listeners, g.listeners)
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(visible)
	}
}
