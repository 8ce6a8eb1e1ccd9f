package user

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmployeeCodeExists    = errors.New("employee code already registered")
	ErrInvalidRole           = errors.New("invalid role")
	ErrPermissionDenied      = errors.New("insufficient permissions")
	ErrInactiveUser          = errors.New("user is inactive")
	ErrInvalidPasswordLength = errors.New("password must be at least 8 characters")
)
