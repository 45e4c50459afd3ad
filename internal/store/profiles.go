package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is a staff member's permission level.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleViewer:
		return true
	}
	return false
}

// Profile is the application-side record of an identity provider user.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProfile inserts a profile. Returns ErrConflict if the id or email is taken.
func (s *Store) CreateProfile(ctx context.Context, p Profile) (*Profile, error) {
	if p.Role == "" {
		p.Role = RoleStaff
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, p.ID, p.Email, p.FullName, string(p.Role)).Scan(&p.CreatedAt)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("profile %s: %w", p.Email, ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProfile returns the profile with the given id, or nil if there is none.
func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	var role string
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, full_name, role, created_at FROM profiles WHERE id = $1
	`, id).Scan(&p.ID, &p.Email, &p.FullName, &role, &p.CreatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Role = Role(role)
	return &p, nil
}

// ListProfiles returns all profiles ordered by email.
func (s *Store) ListProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, email, full_name, role, created_at FROM profiles ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		var role string
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &role, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Role = Role(role)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateRole changes a profile's role. Returns ErrNotFound if no profile has id.
func (s *Store) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProfile removes a profile by id. Idempotent.
func (s *Store) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	return err
}

// CountAdmins returns the number of profiles with the admin role.
func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(1) FROM profiles WHERE role = 'admin'`).Scan(&n)
	return n, err
}
