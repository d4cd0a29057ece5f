package domain

import "time"

// Role is the coarse authorization level carried in credentials. The
// storefront only distinguishes shoppers from back-office admins.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // argon2id encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
