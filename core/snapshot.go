package core

// Snapshot is an immutable view of the session handed to guards and navigation.
//
// Readers receive their own copy of the profile, so holding a Snapshot across
// a login or logout never observes a half-updated state.
type Snapshot struct {
	Loading bool
	Token   string
	User    *UserProfile
}

// IsAuthenticated is true iff both token and user are present.
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

// HasPermission is false whenever there is no user.
func (s Snapshot) HasPermission(name string) bool {
	if s.User == nil {
		return false
	}
	return HasPermission(s.User.Permissions, name)
}

func (s Snapshot) HasAnyPermission(names []string) bool {
	if s.User == nil {
		return false
	}
	return HasAnyPermission(s.User.Permissions, names)
}

// Can is HasPermission under a shorter name for use inside templates.
func (s Snapshot) Can(name string) bool {
	return s.HasPermission(name)
}

// PermissionNames returns the held permission names, or nil without a user.
func (s Snapshot) PermissionNames() []string {
	if s.User == nil {
		return nil
	}
	return PermissionNames(s.User.Permissions)
}
