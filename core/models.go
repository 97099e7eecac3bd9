package core

import (
	"encoding/json"
	"fmt"
)

// Well-known keys of the two persisted session entries.
const (
	TokenKey = "authToken"
	UserKey  = "authUser"
)

// Role is the role reference attached to a user profile
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Permission is a granted permission.
//
// Name is the unique identifier checked by guards (e.g. "READ_USERS").
// Resource and Action are informational only.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// UserProfile represents the signed-in operator as returned by the backend
//
// This is the "identity" plus everything the gate needs to authorize
type UserProfile struct {
	ID          int64        `json:"id"`
	Email       string       `json:"email"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	RoleID      int64        `json:"roleId,omitempty"`
	IsActive    bool         `json:"isActive"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// FullName returns "First Last", trimmed of missing parts
func (u *UserProfile) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Clone returns a deep copy so readers can never mutate session-owned state.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	out := *u
	if u.Permissions != nil {
		out.Permissions = make([]Permission, len(u.Permissions))
		copy(out.Permissions, u.Permissions)
	}
	return &out
}

// Session is the persisted authentication state: an opaque token and the profile it belongs to.
type Session struct {
	Token string
	User  *UserProfile
}

// IsComplete reports whether both token and user are present.
func (s Session) IsComplete() bool {
	return s.Token != "" && s.User != nil
}

// IsEmpty reports whether neither token nor user are present.
func (s Session) IsEmpty() bool {
	return s.Token == "" && s.User == nil
}

// LoginResult is the authentication collaborator's success payload
type LoginResult struct {
	Token string       `json:"token"`
	User  *UserProfile `json:"user"`
}

// Credentials are sent to the authentication collaborator
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EncodeUser serializes a profile into its persisted form.
func EncodeUser(user *UserProfile) (string, error) {
	if user == nil {
		return "", fmt.Errorf("cannot encode nil user")
	}
	b, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("failed to encode user: %w", err)
	}
	return string(b), nil
}

// DecodeSession rebuilds a Session from the two persisted entries.
//
// A malformed user entry yields an empty Session and an error wrapping ErrHydration.
// Partial state (only one entry present) is returned as-is; normalizing it is the
// session context's job.
func DecodeSession(token, rawUser string) (Session, error) {
	if rawUser == "" {
		return Session{Token: token}, nil
	}

	var user UserProfile
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrHydration, err)
	}

	return Session{Token: token, User: &user}, nil
}

// DashboardStats are the landing page counters.
type DashboardStats struct {
	Psychologists        int `json:"psychologists"`
	Patients             int `json:"patients"`
	Assessments          int `json:"assessments"`
	CompletedAssessments int `json:"completedAssessments"`
}
