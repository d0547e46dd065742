package domain

import "time"

// Role is an actor's primary role
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleResortManager Role = "resort_manager"
	RoleGuest         Role = "guest"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleResortManager, RoleGuest:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Actor is an authenticated identity with exactly one primary role.
// Resort managers additionally carry the set of resorts they manage.
type Actor struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             Role      `json:"role"`
	ManagedResortIDs []string  `json:"managed_resort_ids,omitempty"`
	APIKeyHash       string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ResourceKind implements Resource; actors are governed as users
func (a *Actor) ResourceKind() ResourceKind {
	return KindUser
}

// IsAdmin returns true for the admin role
func (a *Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsResortManager returns true for the resort manager role
func (a *Actor) IsResortManager() bool {
	return a.Role == RoleResortManager
}

// Manages reports whether the actor manages the given resort
func (a *Actor) Manages(resortID string) bool {
	if resortID == "" {
		return false
	}
	for _, id := range a.ManagedResortIDs {
		if id == resortID {
			return true
		}
	}
	return false
}

// ManagerAssignment links a resort manager to one of their managed resorts
type ManagerAssignment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ResortID  string    `json:"resort_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ResourceKind implements Resource
func (m *ManagerAssignment) ResourceKind() ResourceKind {
	return KindManagerAssignment
}
