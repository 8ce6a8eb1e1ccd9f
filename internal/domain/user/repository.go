package user

import (
	"context"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmployeeCode(ctx context.Context, code string) (User, error)
	ListActive(ctx context.Context) ([]User, error)
	ListByRoles(ctx context.Context, roles []Role) ([]User, error)
	Create(ctx context.Context, newUser User) (User, error)
}
