package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 10 * time.Minute

// Job is a named task run on a standard 5-field cron schedule.
type Job struct {
	Name string
	Spec string // empty disables the job
	Run  func(ctx context.Context) error
}

// Scheduler runs the cleanup and match-alert jobs in-process.
type Scheduler struct {
	cron    *cron.Cron
	log     logrus.FieldLogger
	mu      sync.Mutex
	entries map[string]cron.EntryID
	running bool
	base    context.Context // written by Start only while no job can run
}

// New validates and registers jobs. An invalid spec is an error; a job with
// an empty spec is skipped.
func New(log logrus.FieldLogger, jobs ...Job) (*Scheduler, error) {
	log = log.WithField("component", "scheduler")
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log)))),
		log:     log,
		entries: make(map[string]cron.EntryID),
		base:    context.Background(),
	}
	for _, j := range jobs {
		if j.Spec == "" {
			log.WithField("job", j.Name).Info("scheduler: job not scheduled")
			continue
		}
		if _, err := cron.ParseStandard(j.Spec); err != nil {
			return nil, fmt.Errorf("scheduler: invalid schedule %q for %s: %w", j.Spec, j.Name, err)
		}
		id, err := s.cron.AddJob(j.Spec, s.wrap(j))
		if err != nil {
			return nil, fmt.Errorf("scheduler: add %s: %w", j.Name, err)
		}
		s.entries[j.Name] = id
	}
	return s, nil
}

// jobFunc adapts a Job to cron.Job.
type jobFunc struct {
	s   *Scheduler
	job Job
}

func (s *Scheduler) wrap(j Job) cron.Job {
	return jobFunc{s: s, job: j}
}

func (f jobFunc) Run() {
	f.s.runJob(f.job)
}

func (s *Scheduler) runJob(j Job) {
	ctx, cancel := context.WithTimeout(s.base, jobTimeout)
	defer cancel()

	lg := s.log.WithField("job", j.Name)
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		lg.WithError(err).Error("scheduler: job failed")
		return
	}
	lg.WithField("took", time.Since(start).Round(time.Millisecond)).Info("scheduler: job done")
}

// Start begins running jobs until ctx is cancelled or Stop is called. Jobs
// run with contexts derived from ctx, so cancelling it also cancels any job
// in flight.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.base = ctx
	s.cron.Start()
	s.running = true
	s.log.WithField("jobs", len(s.entries)).Info("scheduler: started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("scheduler: stopped")
}

// Scheduled reports whether a job with the given name was registered.
func (s *Scheduler) Scheduled(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// NextRun returns the next activation of the named job, if scheduled and the
// scheduler is running.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	e := s.cron.Entry(id)
	if !e.Valid() || e.Next.IsZero() {
		return time.Time{}, false
	}
	return e.Next, true
}
