package dto

import (
	"time"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

// UserRegisterRequest payload for new students.
type UserRegisterRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	RoomNumber  string  `json:"roomNumber"`
	HostelBlock string  `json:"hostelBlock"`
	PhoneNumber *string `json:"phoneNumber"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PushTokenRequest registers a device for push notifications.
type PushTokenRequest struct {
	PushToken string `json:"pushToken"`
}

// RoleChangeRequest payload for admins.
type RoleChangeRequest struct {
	Role domain.Role `json:"role"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	RoomNumber  string      `json:"roomNumber"`
	HostelBlock string      `json:"hostelBlock"`
	PhoneNumber *string     `json:"phoneNumber,omitempty"`
	Active      bool        `json:"isActive"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// UserListResponse is one page of accounts.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// NewUserResponse renders u without credentials.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		RoomNumber:  u.RoomNumber,
		HostelBlock: u.HostelBlock,
		PhoneNumber: u.PhoneNumber,
		Active:      u.Active,
		CreatedAt:   u.CreatedAt,
	}
}
