package repository

import (
	"context"
	"database/sql"

	"homestay/internal/database"
	"homestay/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, email, password_hash, first_name, surname, registered_at, is_active
		FROM users
		WHERE email = $1`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.UserID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.Surname,
		&user.RegisteredAt,
		&user.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, email, password_hash, first_name, surname, registered_at, is_active
		FROM users
		WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.Surname,
		&user.RegisteredAt,
		&user.IsActive,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}
