package core

// NavEntry is a candidate navigation item.
// An entry with no RequiredAny is always shown.
type NavEntry struct {
	Label       string   `json:"label" yaml:"label"`
	Path        string   `json:"path" yaml:"path"`
	Icon        string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	RequiredAny []string `json:"requiredAny,omitempty" yaml:"requiredAny,omitempty"`
}

// ComposeNavigation filters candidates down to what the session may see, keeping order.
//
// While loading or signed out only unrestricted entries survive.
func ComposeNavigation(s Snapshot, candidates []NavEntry) []NavEntry {
	out := make([]NavEntry, 0, len(candidates))
	for _, entry := range candidates {
		if len(entry.RequiredAny) == 0 || s.HasAnyPermission(entry.RequiredAny) {
			out = append(out, entry)
		}
	}
	return out
}

// DefaultNavigation is the administrative sidebar.
func DefaultNavigation() []NavEntry {
	return []NavEntry{
		{Label: "Dashboard", Path: "/", Icon: "dashboard"},
		{Label: "Users", Path: "/users", Icon: "people", RequiredAny: []string{"READ_USERS"}},
		{Label: "Roles", Path: "/roles", Icon: "security", RequiredAny: []string{"READ_ROLES"}},
		{Label: "Permissions", Path: "/permissions", Icon: "lock", RequiredAny: []string{"READ_PERMISSIONS"}},
		{Label: "Psychologists", Path: "/psychologists", Icon: "psychology", RequiredAny: []string{"READ_PSYCHOLOGISTS"}},
		{Label: "Patients", Path: "/patients", Icon: "person", RequiredAny: []string{"READ_PATIENTS"}},
		{Label: "Assessments", Path: "/assessments", Icon: "assignment", RequiredAny: []string{"READ_ASSESSMENTS"}},
	}
}
