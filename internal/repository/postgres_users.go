package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"emstrack-acl/internal/domain"
)

// PostgresUsersRepository reads auth_user
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

func (r *PostgresUsersRepository) GetActiveUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, fmt.Errorf("user %w: empty username", ErrNotFound)
	}

	query := `
		SELECT id, username, is_active, is_superuser, is_staff
		FROM auth_user
		WHERE username = $1 AND is_active = TRUE
	`

	var u domain.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID,
		&u.Username,
		&u.IsActive,
		&u.IsSuperuser,
		&u.IsStaff,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %w: username=%s", ErrNotFound, username)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}
