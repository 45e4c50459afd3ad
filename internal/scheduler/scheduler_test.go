package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmater/waitlist/internal/logging"
)

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(logging.Discard(), Job{Name: "cleanup", Spec: "every tuesday", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestNew_EmptySpecSkipsJob(t *testing.T) {
	s, err := New(logging.Discard(),
		Job{Name: "cleanup", Spec: "0 3 * * *", Run: func(context.Context) error { return nil }},
		Job{Name: "match-alerts", Spec: "", Run: func(context.Context) error { return nil }},
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !s.Scheduled("cleanup") {
		t.Error("expected cleanup to be scheduled")
	}
	if s.Scheduled("match-alerts") {
		t.Error("expected match-alerts to be skipped")
	}
}

func TestRunJob_SurvivesErrors(t *testing.T) {
	s, err := New(logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	calls := 0
	j := Job{Name: "failing", Run: func(ctx context.Context) error {
		calls++
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected job context to carry a deadline")
		}
		return errors.New("boom")
	}}
	s.runJob(j)
	s.runJob(j)
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestStart_RunsScheduledJob(t *testing.T) {
	ran := make(chan struct{}, 1)
	s, err := New(logging.Discard(), Job{Name: "tick", Spec: "@every 1s", Run: func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	if _, ok := s.NextRun("tick"); !ok {
		t.Error("expected a next run for a started job")
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job did not run")
	}
}

func TestStart_CancelStopsRunningJob(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan error, 1)
	s, err := New(logging.Discard(), Job{Name: "slow", Spec: "@every 1s", Run: func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
			return nil
		}
		<-ctx.Done()
		finished <- ctx.Err()
		return ctx.Err()
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not start")
	}
	cancel()

	select {
	case err := <-finished:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelling the scheduler context did not cancel the job")
	}
	s.Stop()
}
