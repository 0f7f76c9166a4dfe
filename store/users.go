package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"notesapi/db"
	"notesapi/models"
)

type SQLUserRepository struct {
	db db.DBTX
}

func NewSQLUserRepository(conn db.DBTX) *SQLUserRepository {
	return &SQLUserRepository{db: conn}
}

func (r *SQLUserRepository) Create(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users_table (user_email, user_password, user_username)
		 VALUES ($1, $2, $3)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query, user.Email, user.PasswordHash, user.Username).Scan(&user.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, user_email, user_password, user_username FROM users_table
		 WHERE user_email = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// FindByEmail returns every user row matching email, without password
// hashes. The result is empty, not nil, when nothing matches.
func (r *SQLUserRepository) FindByEmail(ctx context.Context, email string) ([]models.User, error) {
	query :=
		`SELECT id, user_email, user_username FROM users_table
		 WHERE user_email = $1
		 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}
