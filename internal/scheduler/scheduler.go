package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"IndexVault/internal/notifier"
	"IndexVault/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Runner performs one synchronization.
type Runner interface {
	Run(ctx context.Context) (*recorder.RunRecord, error)
}

// Scheduler triggers synchronization runs on a cron schedule and on demand.
// At most one run is in flight; a trigger arriving during a run is skipped.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Recorder recorder.Recorder
	Ctx      context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, runner Runner, rec recorder.Recorder) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// Register adds the sync task under a six-field cron expression.
func (s *Scheduler) Register(syncCron string) error {
	if _, err := s.Cron.AddFunc(syncCron, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register sync task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running sync to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes a sync immediately. It returns false without running when
// another sync is still in progress.
func (s *Scheduler) RunNow() bool {
	if !s.running.TryLock() {
		log.Println("[WARN] sync already running, trigger skipped")
		return false
	}
	defer s.running.Unlock()

	log.Println("[INFO] running sync task")
	if _, err := s.Runner.Run(s.Ctx); err != nil {
		log.Printf("[ERROR] sync: %v", err)
	}
	return true
}

// HandleCommand processes a chat command and returns a reply. The summary of
// a triggered sync is delivered by the runner itself.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/sync":
		if !s.RunNow() {
			return "A sync is already running."
		}
		return ""
	case "/status":
		run, err := s.Recorder.LastRun()
		if err != nil {
			log.Printf("[ERROR] last run: %v", err)
			return fmt.Sprintf("Status unavailable: %v", err)
		}
		if run == nil {
			return "No sync recorded yet."
		}
		return notifier.FormatRunSummary(run)
	default:
		return "Commands:\n/sync - synchronize the archive now\n/status - last sync summary"
	}
}
