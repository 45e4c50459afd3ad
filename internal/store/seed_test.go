package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/tmater/waitlist/internal/proto"
)

// NewEntry holds the fields needed to create a waitlist entry.
type NewEntry struct {
	FullName          string
	Email             string
	EntryType         proto.EntryType
	MoveInDate        string
	MoveInDateEnd     *string
	ExtendedRetention bool
}

// CreateEntry inserts a waitlist entry and returns its id.
func (s *Store) CreateEntry(ctx context.Context, e NewEntry) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO waitlist_entries (full_name, email, entry_type, move_in_date, move_in_date_end, extended_retention)
		VALUES ($1, NULLIF($2, ''), $3, $4::date, $5::date, $6)
		RETURNING id
	`, e.FullName, e.Email, string(e.EntryType), e.MoveInDate, e.MoveInDateEnd, e.ExtendedRetention).Scan(&id)
	return id, err
}
