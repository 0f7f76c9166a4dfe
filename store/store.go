// Package store is the credential store: users_table and notes_table behind
// plain SQL that runs unchanged on SQLite and Postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"notesapi/db"
	"notesapi/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// UserRepository is the user half of the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) ([]models.User, error)
}

// NoteRepository holds owner-scoped note operations. Every mutation is
// filtered by both owner and note id.
type NoteRepository interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Note, error)
	Create(ctx context.Context, note *models.Note) error
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, ownerID, noteID int64) error
}

type Store struct {
	conn  *sql.DB
	users *SQLUserRepository
	notes *SQLNoteRepository
}

func New(conn *sql.DB) *Store {
	return &Store{
		conn:  conn,
		users: NewSQLUserRepository(conn),
		notes: NewSQLNoteRepository(conn),
	}
}

func (s *Store) Users() UserRepository { return s.users }

func (s *Store) Notes() NoteRepository { return s.notes }

// Register inserts user unless the email is taken. The lookup and insert
// share one transaction and the UNIQUE constraint on user_email settles any
// race that slips past the lookup. hashPassword, when set, runs only once
// the email is known to be free and fills user.PasswordHash.
func (s *Store) Register(ctx context.Context, user *models.User, hashPassword func() (string, error)) error {
	return db.WithTx(ctx, s.conn, nil, func(ctx context.Context, tx db.DBTX) error {
		users := NewSQLUserRepository(tx)

		_, err := users.GetByEmail(ctx, user.Email)
		switch {
		case err == nil:
			return ErrDuplicateEmail
		case !errors.Is(err, ErrNotFound):
			return err
		}

		if hashPassword != nil {
			hash, err := hashPassword()
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user.PasswordHash = hash
		}

		return users.Create(ctx, user)
	})
}
