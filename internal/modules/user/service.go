package user

import "context"

// Service defines user account business logic.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
}

// RegisterRequest holds data for creating an account.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"is_admin"`
}
