package domain

import "time"

// Role enumerates what a user may do in the hostel system.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role may triage tickets.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// User is a hostel resident, staff member or administrator.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	RoomNumber   string
	HostelBlock  string
	PhoneNumber  *string
	PushToken    *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserSummary is the subset of a user attached to tickets in responses.
type UserSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	RoomNumber string `json:"roomNumber,omitempty"`
	Role       Role   `json:"role,omitempty"`
}

// Summary returns the public projection of the user.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		RoomNumber: u.RoomNumber,
		Role:       u.Role,
	}
}
