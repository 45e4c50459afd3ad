package store

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/tmater/waitlist/internal/proto"
)

// testDSN is empty when no database container could be started; store tests
// skip in that case.
var testDSN string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("waitlist"),
		postgres.WithUsername("waitlist"),
		postgres.WithPassword("waitlist"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "store tests: postgres container unavailable: %s\n", err)
		os.Exit(m.Run())
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err == nil {
		err = Migrate(dsn)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "store tests: setup failed: %s\n", err)
	} else {
		testDSN = dsn
	}

	code := m.Run()
	_ = ctr.Terminate(ctx)
	os.Exit(code)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testDSN == "" {
		t.Skip("postgres not available")
	}
	ctx := context.Background()
	s, err := New(ctx, testDSN)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(s.Close)
	if _, err := s.pool.Exec(ctx, `TRUNCATE waitlist_entries, profiles, cleanup_runs`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return s
}

func strp(s string) *string { return &s }

func createEntry(t *testing.T, s *Store, e NewEntry) uuid.UUID {
	t.Helper()
	id, err := s.CreateEntry(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	return id
}

func TestMigrate_Idempotent(t *testing.T) {
	if testDSN == "" {
		t.Skip("postgres not available")
	}
	if err := Migrate(testDSN); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestListProspects_FiltersByType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createEntry(t, s, NewEntry{FullName: "Ann", EntryType: proto.EntryProspect, MoveInDate: "2024-01-01"})
	createEntry(t, s, NewEntry{FullName: "Ben", EntryType: proto.EntrySigned, MoveInDate: "2024-01-01"})
	createEntry(t, s, NewEntry{FullName: "Cy", EntryType: proto.EntryProspect, MoveInDate: "2024-02-01", MoveInDateEnd: strp("2024-03-15"), ExtendedRetention: true})

	entries, err := s.ListProspects(ctx)
	if err != nil {
		t.Fatalf("ListProspects: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 prospects, got %d", len(entries))
	}

	byName := make(map[string]proto.WaitlistEntry)
	for _, e := range entries {
		byName[e.FullName] = e
	}
	ann, cy := byName["Ann"], byName["Cy"]
	if ann.MoveInDate != "2024-01-01" || ann.MoveInDateEnd != nil {
		t.Errorf("Ann: unexpected dates %q / %v", ann.MoveInDate, ann.MoveInDateEnd)
	}
	if cy.MoveInDateEnd == nil || *cy.MoveInDateEnd != "2024-03-15" {
		t.Errorf("Cy: expected move_in_date_end 2024-03-15, got %v", cy.MoveInDateEnd)
	}
	if !cy.ExtendedRetention {
		t.Error("Cy: expected extended_retention=true")
	}
	if cy.ID == uuid.Nil {
		t.Error("Cy: expected non-nil id")
	}
}

func TestDeleteEntries_BatchAndIgnoreUnknown(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := createEntry(t, s, NewEntry{FullName: "A", EntryType: proto.EntryProspect, MoveInDate: "2023-01-01"})
	b := createEntry(t, s, NewEntry{FullName: "B", EntryType: proto.EntryProspect, MoveInDate: "2023-01-02"})
	createEntry(t, s, NewEntry{FullName: "C", EntryType: proto.EntryProspect, MoveInDate: "2023-01-03"})

	if err := s.DeleteEntries(ctx, []uuid.UUID{a, b, uuid.New()}); err != nil {
		t.Fatalf("DeleteEntries: %v", err)
	}
	// Deleting already deleted rows is a no-op.
	if err := s.DeleteEntries(ctx, []uuid.UUID{a}); err != nil {
		t.Fatalf("DeleteEntries again: %v", err)
	}
	if err := s.DeleteEntries(ctx, nil); err != nil {
		t.Fatalf("DeleteEntries(nil): %v", err)
	}

	entries, err := s.ListProspects(ctx)
	if err != nil {
		t.Fatalf("ListProspects: %v", err)
	}
	if len(entries) != 1 || entries[0].FullName != "C" {
		t.Fatalf("expected only C to remain, got %+v", entries)
	}
}

func TestCleanupRuns_RecordAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 3, 0, 0, 0, time.UTC)
	if err := s.RecordCleanupRun(ctx, proto.CleanupRun{RanAt: base, Deleted: 2, StandardCutoff: "2024-02-01", ExtendedCutoff: "2023-03-01"}); err != nil {
		t.Fatalf("RecordCleanupRun: %v", err)
	}
	if err := s.RecordCleanupRun(ctx, proto.CleanupRun{RanAt: base.Add(time.Hour), Error: "fetch prospect entries: boom"}); err != nil {
		t.Fatalf("RecordCleanupRun (failed run): %v", err)
	}

	runs, err := s.ListCleanupRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListCleanupRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Error == "" || runs[0].StandardCutoff != "" {
		t.Errorf("runs[0]: expected newest failed run first, got %+v", runs[0])
	}
	if runs[1].Deleted != 2 || runs[1].StandardCutoff != "2024-02-01" {
		t.Errorf("runs[1]: unexpected %+v", runs[1])
	}
}
