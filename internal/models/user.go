package models

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents a registered account.
type User struct {
	ID             int       `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // Never serialize password hash
	Role           Role      `json:"role"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegisterRequest carries the registration form fields.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest carries the login form fields. Login accepts either a
// username or an email address.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the profile form fields. Password fields are
// optional; all three must be present to change the password.
type UpdateProfileRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	ProfilePicture  string `json:"profile_picture,omitempty"`
}
