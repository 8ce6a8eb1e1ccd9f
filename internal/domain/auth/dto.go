package auth

import (
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/validator"
)

const minPasswordLength = 8

type LoginRequest struct {
	EmployeeCode string `json:"employee_code"`
	Password     string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_code",
			Message: "employee_code is required",
		})
	}
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	UserID      string `json:"user_id"`
	Role        string `json:"role"`
}

// RegisterEmployeeRequest links a chat transport account to a new employee.
type RegisterEmployeeRequest struct {
	UserID       string  `json:"user_id"`
	EmployeeCode string  `json:"employee_code"`
	Name         string  `json:"name"`
	Department   *string `json:"department,omitempty"`
	Role         string  `json:"role"`
	Password     string  `json:"password"`
}

func (r *RegisterEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{Field: "user_id", Message: "user_id is required"})
	}
	if validator.IsEmpty(r.EmployeeCode) {
		errs = append(errs, validator.ValidationError{Field: "employee_code", Message: "employee_code is required"})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if !user.Role(r.Role).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "role", Message: "role must be one of admin, hr, manager, employee"})
	}
	if len(r.Password) < minPasswordLength {
		errs = append(errs, validator.ValidationError{Field: "password", Message: "password must be at least 8 characters"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeResponse struct {
	UserID       string  `json:"user_id"`
	EmployeeCode string  `json:"employee_code"`
	Name         string  `json:"name"`
	Department   *string `json:"department,omitempty"`
	Role         string  `json:"role"`
}
