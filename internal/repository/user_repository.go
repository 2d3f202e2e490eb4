package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/application-tracker/internal/domain"
)

// UserRepository defines persistence access for the identity store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByRoleAndDepartment resolves the receiving handler for an
	// application. Both fields must match; ties break on lowest id.
	FindByRoleAndDepartment(ctx context.Context, role domain.UserRole, department string) (*domain.User, error)
	FindByRole(ctx context.Context, role domain.UserRole) (*domain.User, error)
	SetEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, role, department, email, email_verified, password_hash, created_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, role, department, email, email_verified, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		user.Name,
		user.Role,
		user.Department,
		user.Email,
		user.EmailVerified,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) FindByRoleAndDepartment(ctx context.Context, role domain.UserRole, department string) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE role=$1 AND department=$2
        ORDER BY id ASC LIMIT 1`
	return r.fetchSingle(ctx, query, role, department)
}

func (r *userRepository) FindByRole(ctx context.Context, role domain.UserRole) (*domain.User, error) {
	const query = `
        SELECT ` + userColumns + `
        FROM users WHERE role=$1
        ORDER BY id ASC LIMIT 1`
	return r.fetchSingle(ctx, query, role)
}

func (r *userRepository) SetEmailVerified(ctx context.Context, id string) error {
	const query = `UPDATE users SET email_verified=TRUE WHERE id=$1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1 WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.Department,
		&user.Email,
		&user.EmailVerified,
		&user.PasswordHash,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
