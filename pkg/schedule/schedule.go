// Package schedule runs recurring tasks on robfig/cron.
//
// Usage:
//
//	s := schedule.New(logger.L)
//	err := s.Cron("0 3 * * *").Name("refresh-prices").WithoutOverlapping().Run(refresh)
//	err = s.Every(15 * time.Minute).Name("warm-cache").Run(warm)
//
//	s.Start(ctx) // blocks until ctx is done, then waits for running tasks
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is the function signature for a scheduled task. ctx is cancelled
// when the scheduler shuts down.
type Task func(ctx context.Context)

// Scheduler owns a cron runner and its named entries.
type Scheduler struct {
	cron *cron.Cron
	log  *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]entry
}

type entry struct {
	id   cron.EntryID
	spec string
}

// New builds a scheduler that recovers task panics and logs through log.
func New(log *slog.Logger, opts ...cron.Option) *Scheduler {
	cl := cronLogger{log: log}
	base := []cron.Option{
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	}
	return &Scheduler{
		cron:    cron.New(append(base, opts...)...),
		log:     log,
		ctx:     context.Background(),
		entries: make(map[string]entry),
	}
}

// Schedule is a fluent builder for a single entry before it is registered.
type Schedule struct {
	s         *Scheduler
	spec      string
	name      string
	noOverlap bool
	before    Task
	after     Task
}

// Cron schedules using a 5-field cron expression (min hour dom mon dow) or a
// descriptor such as "@daily".
func (s *Scheduler) Cron(expr string) *Schedule {
	return &Schedule{s: s, spec: expr}
}

// Every schedules the task at a fixed interval.
func (s *Scheduler) Every(d time.Duration) *Schedule {
	return &Schedule{s: s, spec: "@every " + d.String()}
}

// Daily runs the task every day at midnight.
func (s *Scheduler) Daily() *Schedule { return s.Cron("@daily") }

// Name gives the entry an identifier for logs, List and RunNow.
func (sc *Schedule) Name(id string) *Schedule {
	sc.name = id
	return sc
}

// WithoutOverlapping skips a run while the previous one is still executing.
func (sc *Schedule) WithoutOverlapping() *Schedule {
	sc.noOverlap = true
	return sc
}

// Before registers a hook that fires before the task.
func (sc *Schedule) Before(fn Task) *Schedule {
	sc.before = fn
	return sc
}

// After registers a hook that fires after the task, even when it panics.
func (sc *Schedule) After(fn Task) *Schedule {
	sc.after = fn
	return sc
}

// Run registers the task. It fails on an invalid spec or a duplicate name.
func (sc *Schedule) Run(fn Task) error {
	s := sc.s
	s.mu.Lock()
	defer s.mu.Unlock()

	name := sc.name
	if name == "" {
		name = fmt.Sprintf("task-%d", len(s.entries)+1)
	}
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("schedule: task %q already registered", name)
	}

	var job cron.Job = cron.FuncJob(func() {
		ctx := s.context()
		start := time.Now()
		s.log.Info("schedule: running task", "id", name)
		if sc.before != nil {
			sc.before(ctx)
		}
		if sc.after != nil {
			defer sc.after(ctx)
		}
		fn(ctx)
		s.log.Info("schedule: task finished", "id", name, "duration", time.Since(start).String())
	})
	if sc.noOverlap {
		job = cron.NewChain(cron.SkipIfStillRunning(cronLogger{log: s.log})).Then(job)
	}

	id, err := s.cron.AddJob(sc.spec, job)
	if err != nil {
		return fmt.Errorf("schedule: task %q: invalid spec %q: %w", name, sc.spec, err)
	}
	s.entries[name] = entry{id: id, spec: sc.spec}
	return nil
}

// Start dispatches tasks until ctx is done, then waits for running tasks
// to return.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.log.Info("schedule: scheduler started", "tasks", len(s.List()))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("schedule: scheduler stopped")
}

// RunNow runs a registered task synchronously, through the same overlap
// guard and panic recovery as a scheduled run.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("schedule: task %q not registered", name)
	}
	s.cron.Entry(e.id).WrappedJob.Run()
	return nil
}

// Info describes one registered entry.
type Info struct {
	Name string
	Spec string
	Next time.Time
}

// List returns every registered entry sorted by name. Next is zero until
// the scheduler has started.
func (s *Scheduler) List() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, 0, len(s.entries))
	for name, e := range s.entries {
		out = append(out, Info{Name: name, Spec: e.spec, Next: s.cron.Entry(e.id).Next})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// cronLogger adapts slog to cron.Logger. cron's own chatter goes to DEBUG.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
