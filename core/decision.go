package core

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// Decision is the outcome of evaluating a protected route.
type Decision int

const (
	// DecisionPending means the session is still hydrating; render a placeholder.
	DecisionPending Decision = iota
	// DecisionRedirect means navigate to LoginPath, replacing the current history entry.
	DecisionRedirect
	// DecisionDeny means render the access-denied view without changing the URL.
	DecisionDeny
	// DecisionAllow means render the protected content.
	DecisionAllow
)

func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionRedirect:
		return "redirect"
	case DecisionDeny:
		return "deny"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Requirement describes what a protected route needs.
// An empty Permission only requires an authenticated session.
type Requirement struct {
	Permission string
}

// Evaluate decides access for a route. The checks run in strict priority:
// loading, then authentication, then permission.
func Evaluate(s Snapshot, req Requirement) Decision {
	if s.Loading {
		return DecisionPending
	}
	if !s.IsAuthenticated() {
		return DecisionRedirect
	}
	if req.Permission != "" && !s.HasPermission(req.Permission) {
		return DecisionDeny
	}
	return DecisionAllow
}
