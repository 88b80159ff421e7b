package domain

import "time"

// RoleAdmin is the role assigned to registered users unless another one is requested.
const RoleAdmin = "admin"

// User represents an account able to authenticate against the API.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the identity decoded from a verified bearer token.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
