package dto

import (
	"time"

	"github.com/nextread/library-service/internal/domain"
)

// UserRegisterRequest payload for new members.
type UserRegisterRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	StudentID string `json:"studentId" validate:"max=64"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"max=32"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

// UserLoginRequest payload for login.
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest is the payload of PUT /api/users/:id. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=255"`
	StudentID *string `json:"studentId" validate:"omitempty,max=64"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse is the public shape of a member. The password hash never leaves the service.
type UserResponse struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	StudentID        string    `json:"studentId"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Role             string    `json:"role"`
	MembershipStatus string    `json:"membershipStatus"`
	JoinDate         time.Time `json:"joinDate"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		Name:             u.Name,
		StudentID:        u.StudentID,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             string(u.Role),
		MembershipStatus: u.MembershipStatus,
		JoinDate:         u.JoinDate,
	}
}

// NewUserResponses maps a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
