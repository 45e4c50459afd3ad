package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestCreateProfile_DefaultsToStaff(t *testing.T) {
	s := newTestStore(t)

	p, err := s.CreateProfile(context.Background(), Profile{ID: uuid.New(), Email: "alice@example.com", FullName: "Alice"})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if p.Role != RoleStaff {
		t.Errorf("expected role staff, got %q", p.Role)
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestCreateProfile_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateProfile(ctx, Profile{ID: uuid.New(), Email: "bob@example.com", FullName: "Bob"}); err != nil {
		t.Fatalf("first CreateProfile: %v", err)
	}
	_, err := s.CreateProfile(ctx, Profile{ID: uuid.New(), Email: "bob@example.com", FullName: "Bob Two"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}
}

func TestGetProfile_Unknown(t *testing.T) {
	s := newTestStore(t)

	p, err := s.GetProfile(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetProfile returned unexpected error: %v", err)
	}
	if p != nil {
		t.Fatalf("expected nil for unknown id, got %+v", p)
	}
}

func TestUpdateRole(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProfile(ctx, Profile{ID: uuid.New(), Email: "carol@example.com", FullName: "Carol"})
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}

	if err := s.UpdateRole(ctx, p.ID, RoleAdmin); err != nil {
		t.Fatalf("UpdateRole: %v", err)
	}
	got, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Role != RoleAdmin {
		t.Errorf("expected admin, got %q", got.Role)
	}

	n, err := s.CountAdmins(ctx)
	if err != nil {
		t.Fatalf("CountAdmins: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 admin, got %d", n)
	}

	if err := s.UpdateRole(ctx, p.ID, Role("owner")); err == nil {
		t.Error("expected error for invalid role")
	}
	if err := s.UpdateRole(ctx, uuid.New(), RoleViewer); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestListAndDeleteProfiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	zed, err := s.CreateProfile(ctx, Profile{ID: uuid.New(), Email: "zed@example.com", FullName: "Zed"})
	if err != nil {
		t.Fatalf("CreateProfile zed: %v", err)
	}
	if _, err := s.CreateProfile(ctx, Profile{ID: uuid.New(), Email: "amy@example.com", FullName: "Amy", Role: RoleViewer}); err != nil {
		t.Fatalf("CreateProfile amy: %v", err)
	}

	all, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(all) != 2 || all[0].Email != "amy@example.com" {
		t.Fatalf("expected two profiles ordered by email, got %+v", all)
	}

	if err := s.DeleteProfile(ctx, zed.ID); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if err := s.DeleteProfile(ctx, zed.ID); err != nil {
		t.Fatalf("DeleteProfile is not idempotent: %v", err)
	}
	all, _ = s.ListProfiles(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 profile after delete, got %d", len(all))
	}
}
