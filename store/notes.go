package store

import (
	"context"
	"fmt"

	"notesapi/db"
	"notesapi/models"
)

type SQLNoteRepository struct {
	db db.DBTX
}

func NewSQLNoteRepository(conn db.DBTX) *SQLNoteRepository {
	return &SQLNoteRepository{db: conn}
}

func (r *SQLNoteRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Note, error) {
	query :=
		`SELECT note_id, user_id, note_title, note_content, datetimedetails FROM notes_table
		 WHERE user_id = $1
		 ORDER BY note_id ASC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Content, &n.Status); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return notes, nil
}

func (r *SQLNoteRepository) Create(ctx context.Context, note *models.Note) error {
	query :=
		`INSERT INTO notes_table (user_id, note_title, note_content, datetimedetails)
		 VALUES ($1, $2, $3, $4)
		 RETURNING note_id`

	err := r.db.QueryRowContext(ctx, query, note.OwnerID, note.Title, note.Content, note.Status).Scan(&note.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update rewrites title, content and status of the note matching both ids.
// user_id is never part of the SET list.
func (r *SQLNoteRepository) Update(ctx context.Context, note *models.Note) error {
	query :=
		`UPDATE notes_table SET note_title = $1, note_content = $2, datetimedetails = $3
		 WHERE note_id = $4 AND user_id = $5`

	res, err := r.db.ExecContext(ctx, query, note.Title, note.Content, note.Status, note.ID, note.OwnerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectRows(res)
}

func (r *SQLNoteRepository) Delete(ctx context.Context, ownerID, noteID int64) error {
	query :=
		`DELETE FROM notes_table
		 WHERE note_id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectRows(res)
}

func expectRows(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
