package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-chatbot-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-chatbot-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type userRow struct {
	ID           string    `db:"id"`
	EmployeeCode string    `db:"employee_code"`
	Name         string    `db:"name"`
	Department   *string   `db:"department"`
	Role         string    `db:"role"`
	PasswordHash *string   `db:"password_hash"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toEntity() user.User {
	return user.User{
		ID:           r.ID,
		EmployeeCode: r.EmployeeCode,
		Name:         r.Name,
		Department:   r.Department,
		Role:         user.Role(r.Role),
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

const userColumns = `id, employee_code, name, department, role, password_hash, is_active, created_at, updated_at`

type userRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) getOne(ctx context.Context, where string, arg any) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT `+userColumns+` FROM employees WHERE `+where, arg)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to query employee: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to scan employee: %w", err)
	}
	return row.toEntity(), nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *userRepository) GetByEmployeeCode(ctx context.Context, code string) (user.User, error) {
	return r.getOne(ctx, `employee_code = $1`, code)
}

func (r *userRepository) list(ctx context.Context, query string, args ...any) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	collected, err := pgx.CollectRows(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan employees: %w", err)
	}

	users := make([]user.User, 0, len(collected))
	for _, row := range collected {
		users = append(users, row.toEntity())
	}
	return users, nil
}

func (r *userRepository) ListActive(ctx context.Context) ([]user.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM employees WHERE is_active ORDER BY employee_code`)
}

func (r *userRepository) ListByRoles(ctx context.Context, roles []user.Role) ([]user.User, error) {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	return r.list(ctx, `SELECT `+userColumns+` FROM employees WHERE is_active AND role = ANY($1) ORDER BY employee_code`, names)
}

func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO employees (id, employee_code, name, department, role, password_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	rows, err := q.Query(ctx, query,
		newUser.ID, newUser.EmployeeCode, newUser.Name, newUser.Department,
		string(newUser.Role), newUser.PasswordHash, newUser.IsActive,
	)
	if err != nil {
		return user.User{}, fmt.Errorf("failed to create employee: %w", err)
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		if strings.Contains(err.Error(), "uk_employees_code") {
			return user.User{}, user.ErrEmployeeCodeExists
		}
		return user.User{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return row.toEntity(), nil
}
