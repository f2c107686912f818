package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/config"
	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/repository"
	"outreach-engine-go/internal/replyprobe"
)

// Store is the persistence the sweeps read from.
type Store interface {
	OwnerIDs() ([]uint, error)
	CountDueEmails(ownerID uint, stage string, now time.Time) (int64, error)
	ActiveRecipients(ownerID uint) ([]repository.ActiveRecipient, error)
}

// Governor recomputes sender reputation; satisfied by *quota.Governor.
type Governor interface {
	RecalculateReputation(ownerID uint) (*model.ReputationRecord, error)
}

// Lifecycle closes out recipients who replied; satisfied by
// *lifecycle.Engine.
type Lifecycle interface {
	CompleteRecipient(ownerID uint, address, name string) error
}

// Scheduler runs the periodic campaign sweeps: the nightly reputation
// recompute, the hourly due-email gauge refresh, and the reply probe.
type Scheduler struct {
	cron      *cron.Cron
	config    *config.SchedulerConfig
	store     Store
	governor  Governor
	lifecycle Lifecycle
	probe     replyprobe.Probe
	metrics   *metrics.Metrics
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	lastRun   time.Time
	entryIDs  []cron.EntryID
	mu        sync.RWMutex
}

// NewScheduler creates a new scheduler. probe may be nil when no IMAP
// mailbox is configured; the reply sweep is skipped in that case.
func NewScheduler(cfg *config.SchedulerConfig, store Store, governor Governor, lc Lifecycle,
	probe replyprobe.Probe, m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		config:    cfg,
		store:     store,
		governor:  governor,
		lifecycle: lc,
		probe:     probe,
		metrics:   m,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the cron entries and starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	entries := []struct {
		spec string
		name string
		fn   func()
	}{
		{s.config.ReputationSpec, "reputation sweep", s.runReputationSweep},
		{s.config.DueSweepSpec, "due sweep", s.runDueSweep},
		{s.config.ReplySweepSpec, "reply sweep", s.runReplySweep},
	}

	for _, e := range entries {
		id, err := s.cron.AddFunc(e.spec, e.fn)
		if err != nil {
			return fmt.Errorf("failed to schedule %s (%q): %w", e.name, e.spec, err)
		}
		s.entryIDs = append(s.entryIDs, id)
	}

	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started: reputation %q, due sweep %q, reply sweep %q",
		s.config.ReputationSpec, s.config.DueSweepSpec, s.config.ReplySweepSpec)
	return nil
}

// Stop stops the cron scheduler and waits for running sweeps.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.isRunning = false
	return nil
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOnce runs every sweep immediately (for manual triggering).
func (s *Scheduler) RunOnce() error {
	logrus.Info("Running all sweeps once")
	s.runReputationSweep()
	s.runDueSweep()
	s.runReplySweep()
	return nil
}

// GetNextRun returns the time of the next scheduled sweep.
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	var next time.Time
	for _, id := range s.entryIDs {
		entry := s.cron.Entry(id)
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next
}

// GetLastRun returns the time of the last completed sweep.
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

func (s *Scheduler) markRun() {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()
}

// runReputationSweep recomputes every owner's reputation score.
func (s *Scheduler) runReputationSweep() {
	s.wg.Add(1)
	defer s.wg.Done()
	defer s.markRun()

	startTime := time.Now()
	logrus.Info("Starting reputation sweep")

	ids, err := s.store.OwnerIDs()
	if err != nil {
		logrus.Errorf("Reputation sweep: failed to list owners: %v", err)
		return
	}

	for _, ownerID := range ids {
		select {
		case <-s.ctx.Done():
			logrus.Info("Reputation sweep cancelled")
			return
		default:
		}

		if _, err := s.governor.RecalculateReputation(ownerID); err != nil {
			logrus.Errorf("Reputation sweep: owner %d: %v", ownerID, err)
		}
	}

	logrus.Infof("Reputation sweep completed for %d owners in %v", len(ids), time.Since(startTime))
}

// runDueSweep refreshes the due-email gauge across all owners.
func (s *Scheduler) runDueSweep() {
	s.wg.Add(1)
	defer s.wg.Done()
	defer s.markRun()

	ids, err := s.store.OwnerIDs()
	if err != nil {
		logrus.Errorf("Due sweep: failed to list owners: %v", err)
		return
	}

	now := time.Now()
	var total int64
	for _, ownerID := range ids {
		for _, stage := range []string{model.StageFollowup, model.StageLastchance} {
			n, err := s.store.CountDueEmails(ownerID, stage, now)
			if err != nil {
				logrus.Errorf("Due sweep: owner %d stage %s: %v", ownerID, stage, err)
				continue
			}
			total += n
		}
	}

	s.metrics.RecipientsDueSend.Set(float64(total))
	logrus.Debugf("Due sweep: %d emails due across %d owners", total, len(ids))
}

// runReplySweep probes the inbox for replies and closes out recipients
// who wrote back, so later stages never reach them.
func (s *Scheduler) runReplySweep() {
	s.wg.Add(1)
	defer s.wg.Done()
	defer s.markRun()

	if s.probe == nil {
		logrus.Debug("Reply sweep skipped: no probe configured")
		return
	}

	startTime := time.Now()
	logrus.Info("Starting reply sweep")

	ids, err := s.store.OwnerIDs()
	if err != nil {
		logrus.Errorf("Reply sweep: failed to list owners: %v", err)
		return
	}

	completed := 0
	for _, ownerID := range ids {
		recipients, err := s.store.ActiveRecipients(ownerID)
		if err != nil {
			logrus.Errorf("Reply sweep: owner %d: %v", ownerID, err)
			continue
		}

		for _, rcpt := range recipients {
			select {
			case <-s.ctx.Done():
				logrus.Info("Reply sweep cancelled")
				return
			default:
			}

			replied, err := s.probe.HasReplied(s.ctx, rcpt.Address, rcpt.FirstSentAt)
			if err != nil {
				logrus.Warnf("Reply sweep: probe failed for %s: %v", rcpt.Address, err)
				continue
			}
			if !replied {
				continue
			}

			if err := s.lifecycle.CompleteRecipient(ownerID, rcpt.Address, rcpt.Name); err != nil {
				logrus.Errorf("Reply sweep: failed to complete %s: %v", rcpt.Address, err)
				continue
			}
			completed++
			logrus.Infof("Reply sweep: %s replied, campaign closed", rcpt.Address)
		}
	}

	logrus.Infof("Reply sweep completed in %v: %d recipients closed", time.Since(startTime), completed)
}
