package auth

import (
	"context"
	"time"
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Logout(ctx context.Context, token string, expiresAt time.Time) error
	RegisterEmployee(ctx context.Context, req RegisterEmployeeRequest) (EmployeeResponse, error)
}
