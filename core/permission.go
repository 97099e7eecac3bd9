package core

// HasPermission reports whether perms contains a permission named exactly name.
//
// Names are opaque, case-sensitive literals. "ALL_USERS" does not imply
// "READ_USERS"; it only matches itself.
func HasPermission(perms []Permission, name string) bool {
	for _, p := range perms {
		if p.Name == name {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one of names is held. Empty names is always false.
func HasAnyPermission(perms []Permission, names []string) bool {
	for _, name := range names {
		if HasPermission(perms, name) {
			return true
		}
	}
	return false
}

// PermissionNames lists the names of perms in their original order.
func PermissionNames(perms []Permission) []string {
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	return names
}
