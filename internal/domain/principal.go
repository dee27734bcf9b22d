package domain

import "github.com/google/uuid"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

// Principal is the authenticated caller resolved by the auth middleware.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

func (p Principal) IsManager() bool {
	return p.Role == RoleManager
}
