package services

import (
	"github.com/lborres/assessgate/core"
)

// Navigator composes the visible menu from a fixed candidate list.
type Navigator struct {
	session    SessionReader
	candidates []core.NavEntry
}

// NewNavigator uses core.DefaultNavigation when candidates is empty.
func NewNavigator(session SessionReader, candidates []core.NavEntry) *Navigator {
	if len(candidates) == 0 {
		candidates = core.DefaultNavigation()
	}
	cp := make([]core.NavEntry, len(candidates))
	copy(cp, candidates)
	return &Navigator{session: session, candidates: cp}
}

// Items recomputes the menu from the latest snapshot.
func (n *Navigator) Items() []core.NavEntry {
	return core.ComposeNavigation(n.session.Snapshot(), n.candidates)
}

// ItemsFor composes the menu for a snapshot the caller already holds.
func (n *Navigator) ItemsFor(s core.Snapshot) []core.NavEntry {
	return core.ComposeNavigation(s, n.candidates)
}

// Subscribe calls fn with the recomputed menu after every session change.
func (n *Navigator) Subscribe(fn func([]core.NavEntry)) (unsubscribe func()) {
	return n.session.Subscribe(func(s core.Snapshot) {
		fn(core.ComposeNavigation(s, n.candidates))
	})
}
