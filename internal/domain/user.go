package domain

import "time"

// UserRole enumerates library account roles.
type UserRole string

const (
	UserRoleStudent UserRole = "STUDENT"
	UserRoleAdmin   UserRole = "ADMIN"
)

// MembershipActive is the membership status given to new accounts.
const MembershipActive = "Active"

// User is a library member.
type User struct {
	ID               int64
	Name             string
	StudentID        string
	Email            string
	Phone            string
	PasswordHash     string
	Role             UserRole
	MembershipStatus string
	JoinDate         time.Time
}
