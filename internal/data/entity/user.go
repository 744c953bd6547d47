package entity

import "github.com/google/uuid"

type UserRole string

const (
	RoleArtist   UserRole = "ARTIST"
	RoleEngineer UserRole = "ENGINEER"
	RoleAdmin    UserRole = "ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleArtist, RoleEngineer, RoleAdmin:
		return true
	}
	return false
}

// Actor is the caller identity handed to the core by the identity provider.
type Actor struct {
	UserID uuid.UUID
	Role   UserRole
	Email  string
}
