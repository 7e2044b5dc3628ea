package domain

import "time"

// RoleUser is the default role assigned at registration.
const RoleUser = "user"

// User represents a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}
