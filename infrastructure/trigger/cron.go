package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"content-scheduler/infrastructure/logger"

	"github.com/robfig/cron/v3"
)

// Job is a named periodic task. Run receives a context bounded by Timeout.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type entry struct {
	job Job
	id  cron.EntryID
}

// Trigger drives named jobs from cron specs; overlapping runs of one job are skipped.
type Trigger struct {
	mu     sync.Mutex
	parser cron.Parser
	c      *cron.Cron
	jobs   map[string]*entry
	ctx    context.Context
}

func New(loc *time.Location) *Trigger {
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cronLog := cron.PrintfLogger(logger.ForComponent("cron"))
	return &Trigger{
		parser: parser,
		c: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		jobs: make(map[string]*entry),
		ctx:  context.Background(),
	}
}

func (t *Trigger) Add(job Job) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.jobs[job.Name]; ok {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	e := &entry{job: job}
	if err := t.scheduleLocked(e); err != nil {
		return err
	}
	t.jobs[job.Name] = e
	return nil
}

// Reschedule swaps the spec of a registered job. The job keeps its previous spec on error.
func (t *Trigger) Reschedule(name, spec string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[name]
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	if e.job.Spec == spec {
		return nil
	}
	if _, err := t.parser.Parse(spec); err != nil {
		return fmt.Errorf("job %q: invalid spec %q: %w", name, spec, err)
	}
	t.c.Remove(e.id)
	e.job.Spec = spec
	if err := t.scheduleLocked(e); err != nil {
		return err
	}
	logger.ForComponent("cron").WithField("job", name).WithField("spec", spec).Info("Job rescheduled")
	return nil
}

// Next returns the next activation of the job, zero when unknown or not started.
func (t *Trigger) Next(name string) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.jobs[name]
	if !ok {
		return time.Time{}
	}
	return t.c.Entry(e.id).Next
}

// Start runs the jobs until ctx is cancelled or Stop is called.
func (t *Trigger) Start(ctx context.Context) {
	t.mu.Lock()
	t.ctx = ctx
	t.mu.Unlock()
	t.c.Start()
}

// Stop prevents new runs; the returned context is done once running jobs finish.
func (t *Trigger) Stop() context.Context {
	return t.c.Stop()
}

func (t *Trigger) scheduleLocked(e *entry) error {
	job := e.job
	id, err := t.c.AddFunc(job.Spec, func() { t.run(job) })
	if err != nil {
		return fmt.Errorf("job %q: invalid spec %q: %w", job.Name, job.Spec, err)
	}
	e.id = id
	return nil
}

func (t *Trigger) run(job Job) {
	t.mu.Lock()
	parent := t.ctx
	t.mu.Unlock()

	ctx := parent
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, job.Timeout)
		defer cancel()
	}

	log := logger.ForComponent("cron").WithField("job", job.Name)
	started := time.Now()
	if err := job.Run(ctx); err != nil {
		log.WithField("error", err).WithField("duration", time.Since(started).String()).Error("Job failed")
		return
	}
	log.WithField("duration", time.Since(started).String()).Debug("Job finished")
}
