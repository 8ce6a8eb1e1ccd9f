package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	userRepository user.UserRepository
	jwtService     jwt.Service
}

func NewAuthService(userRepository user.UserRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		userRepository: userRepository,
		jwtService:     jwtService,
	}
}

func (a *AuthServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login implements auth.AuthService. Unknown codes, accounts without a
// password and deactivated accounts all fail the same way.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	userData, err := a.userRepository.GetByEmployeeCode(ctx, strings.TrimSpace(req.EmployeeCode))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get employee by code: %w", err)
	}

	if userData.PasswordHash == nil || !userData.IsActive {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := a.jwtService.GenerateAccessToken(userData.ID, userData.EmployeeCode, userData.Role)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	slog.Info("employee logged in", "user_id", userData.ID, "role", userData.Role)

	return auth.TokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		UserID:      userData.ID,
		Role:        string(userData.Role),
	}, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string, expiresAt time.Time) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	if a.jwtService.IsTokenRevoked(token) {
		return nil
	}
	a.jwtService.RevokeToken(token, expiresAt)
	return nil
}

// RegisterEmployee implements auth.AuthService.
func (a *AuthServiceImpl) RegisterEmployee(ctx context.Context, req auth.RegisterEmployeeRequest) (auth.EmployeeResponse, error) {
	hash, err := a.hashPassword(req.Password)
	if err != nil {
		return auth.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := a.userRepository.Create(ctx, user.User{
		ID:           strings.TrimSpace(req.UserID),
		EmployeeCode: strings.TrimSpace(req.EmployeeCode),
		Name:         strings.TrimSpace(req.Name),
		Department:   req.Department,
		Role:         user.Role(req.Role),
		PasswordHash: &hash,
		IsActive:     true,
	})
	if err != nil {
		return auth.EmployeeResponse{}, fmt.Errorf("failed to create employee: %w", err)
	}

	slog.Info("employee registered", "user_id", created.ID, "employee_code", created.EmployeeCode, "role", created.Role)

	return auth.EmployeeResponse{
		UserID:       created.ID,
		EmployeeCode: created.EmployeeCode,
		Name:         created.Name,
		Department:   created.Department,
		Role:         string(created.Role),
	}, nil
}
