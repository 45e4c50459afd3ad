package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tmater/waitlist/internal/metrics"
	"github.com/tmater/waitlist/internal/proto"
	"github.com/tmater/waitlist/internal/retention"
)

var (
	ErrFetch  = errors.New("fetch prospect entries")
	ErrDelete = errors.New("delete expired entries")
)

const (
	MessageNoProspects = "No prospect entries found"
	MessageNoExpired   = "No expired entries found"
)

// Store is the external store the cleanup reads from and deletes in.
type Store interface {
	ListProspects(ctx context.Context) ([]proto.WaitlistEntry, error)
	DeleteEntries(ctx context.Context, ids []uuid.UUID) error
}

// RunRecorder persists an audit record of each run. Optional.
type RunRecorder interface {
	RecordCleanupRun(ctx context.Context, run proto.CleanupRun) error
}

// DeletedEntry is the audit view of a deleted waitlist row.
type DeletedEntry struct {
	Name              string  `json:"name"`
	MoveInDate        string  `json:"move_in_date"`
	MoveInDateEnd     *string `json:"move_in_date_end"`
	ExtendedRetention bool    `json:"extended_retention"`
}

// Result summarizes one cleanup pass.
type Result struct {
	Deleted        int            `json:"deleted"`
	Message        string         `json:"message,omitempty"`
	StandardCutoff string         `json:"standardCutoff,omitempty"`
	ExtendedCutoff string         `json:"extendedCutoff,omitempty"`
	DeletedEntries []DeletedEntry `json:"deletedEntries,omitempty"`
}

// Runner deletes prospect entries that are past their retention cutoff.
type Runner struct {
	store   Store
	runs    RunRecorder
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a Runner. If store also implements RunRecorder every run is
// recorded through it.
func New(store Store, log logrus.FieldLogger, m *metrics.Metrics) *Runner {
	r := &Runner{
		store:   store,
		log:     log.WithField("component", "expiry"),
		metrics: m,
		now:     time.Now,
	}
	if rec, ok := store.(RunRecorder); ok {
		r.runs = rec
	}
	return r
}

// Run performs one cleanup: one read, and at most one batched delete.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := r.now()
	began := time.Now()
	defer func() { r.metrics.ObserveCleanupDuration(time.Since(began)) }()

	entries, err := r.store.ListProspects(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetch, err)
		r.fail(ctx, start, retention.Cutoffs{}, err)
		return nil, err
	}
	if len(entries) == 0 {
		r.log.Info("cleanup: no prospect entries found")
		r.metrics.RecordCleanup("noop", 0)
		return &Result{Deleted: 0, Message: MessageNoProspects}, nil
	}

	eval := retention.Evaluate(civil.DateOf(start), entries)
	res := &Result{
		StandardCutoff: eval.Standard.String(),
		ExtendedCutoff: eval.Extended.String(),
	}
	if len(eval.Expired) == 0 {
		res.Message = MessageNoExpired
		r.log.WithFields(logrus.Fields{
			"candidates":      len(entries),
			"standard_cutoff": res.StandardCutoff,
			"extended_cutoff": res.ExtendedCutoff,
		}).Info("cleanup: no expired entries")
		r.record(ctx, start, res, "")
		r.metrics.RecordCleanup("noop", 0)
		return res, nil
	}

	ids := make([]uuid.UUID, 0, len(eval.Expired))
	for _, e := range eval.Expired {
		ids = append(ids, e.ID)
	}
	if err := r.store.DeleteEntries(ctx, ids); err != nil {
		err = fmt.Errorf("%w: %w", ErrDelete, err)
		r.fail(ctx, start, eval.Cutoffs, err)
		return nil, err
	}

	res.Deleted = len(eval.Expired)
	res.DeletedEntries = make([]DeletedEntry, 0, len(eval.Expired))
	for _, e := range eval.Expired {
		res.DeletedEntries = append(res.DeletedEntries, DeletedEntry{
			Name:              e.FullName,
			MoveInDate:        e.MoveInDate,
			MoveInDateEnd:     e.MoveInDateEnd,
			ExtendedRetention: e.ExtendedRetention,
		})
	}

	r.log.WithFields(logrus.Fields{
		"deleted":         res.Deleted,
		"candidates":      len(entries),
		"standard_cutoff": res.StandardCutoff,
		"extended_cutoff": res.ExtendedCutoff,
	}).Info("cleanup: deleted expired entries")
	r.record(ctx, start, res, "")
	r.metrics.RecordCleanup("deleted", res.Deleted)
	return res, nil
}

func (r *Runner) fail(ctx context.Context, start time.Time, c retention.Cutoffs, err error) {
	r.log.WithError(err).Error("cleanup: run failed")
	res := &Result{}
	if !c.Standard.IsZero() {
		res.StandardCutoff = c.Standard.String()
		res.ExtendedCutoff = c.Extended.String()
	}
	r.record(ctx, start, res, err.Error())
	r.metrics.RecordCleanup("error", 0)
}

// record writes the audit row; failures are logged and otherwise ignored.
func (r *Runner) record(ctx context.Context, start time.Time, res *Result, errMsg string) {
	if r.runs == nil {
		return
	}
	run := proto.CleanupRun{
		RanAt:          start.UTC(),
		Deleted:        res.Deleted,
		StandardCutoff: res.StandardCutoff,
		ExtendedCutoff: res.ExtendedCutoff,
		Error:          errMsg,
	}
	if err := r.runs.RecordCleanupRun(ctx, run); err != nil {
		r.log.WithError(err).Warn("cleanup: failed to record run")
	}
}
