package domain

import "time"

type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            string
	Permissions     []string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EmailVerified reports whether the verification timestamp has been stamped.
func (u User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil && !u.EmailVerifiedAt.IsZero()
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func IsValidRole(r string) bool {
	return r == string(RoleUser) || r == string(RoleAdmin)
}
