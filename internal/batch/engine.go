package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/dedupe"
	"outreach-engine-go/internal/delivery"
	"outreach-engine-go/internal/generator"
	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/progress"
	"outreach-engine-go/internal/quota"
)

// JobStore is the job persistence the engine needs.
type JobStore interface {
	CreateJob(j *model.Job) error
	Job(id string) (*model.Job, error)
	UpdateJobProgress(id string, processed, success int) error
	SetJobPaused(id string, paused bool) error
	SetJobWarning(id, message string) error
	FinishJob(id, status, errorMessage string) error
}

// EmailStore is the email persistence the engine needs.
type EmailStore interface {
	CreateEmail(e *model.Email) error
	Email(id uint) (*model.Email, error)
}

// Governor gates sends and books usage; satisfied by *quota.Governor.
type Governor interface {
	CanSend(ownerID uint, recipientCount int) (*quota.Decision, error)
	RecordSend(ownerID uint, recipients []string) error
	RecordBounce(ownerID uint) error
}

// Lifecycle advances the stage machine after a delivery; satisfied by
// *lifecycle.Engine.
type Lifecycle interface {
	Advance(owner *model.Owner, email *model.Email) (*model.Email, error)
}

// Dedupe builds the already-contacted filter; satisfied by *dedupe.Index.
type Dedupe interface {
	BuildAlreadyContacted(ownerID uint, includeCollaborators bool) (*dedupe.Set, error)
}

// PreconditionError is a synchronous validation failure: the job is
// never created and the caller sees the reason directly.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return e.Reason
}

// QuotaDeniedError is returned by the single-send path when the
// governor refuses the dispatch.
type QuotaDeniedError struct {
	Reason string
}

func (e *QuotaDeniedError) Error() string {
	return fmt.Sprintf("send denied by quota: %s", e.Reason)
}

// Engine runs generation and send batches as cancellable background
// work. Nothing inside a running job propagates to the caller that
// started it; all outcomes are read back off the Job record.
type Engine struct {
	jobs      JobStore
	emails    EmailStore
	governor  Governor
	lifecycle Lifecycle
	dedupe    Dedupe
	generator generator.Generator
	deliverer delivery.Deliverer
	sink      progress.Sink
	metrics   *metrics.Metrics

	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	resume map[string]chan struct{}
}

// New creates a new batch engine. pollInterval bounds how long a paused
// job waits between re-reads of its pause flag.
func New(jobs JobStore, emails EmailStore, gov Governor, lc Lifecycle, dd Dedupe, gen generator.Generator,
	del delivery.Deliverer, sink progress.Sink, m *metrics.Metrics, pollInterval time.Duration) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		jobs:         jobs,
		emails:       emails,
		governor:     gov,
		lifecycle:    lc,
		dedupe:       dd,
		generator:    gen,
		deliverer:    del,
		sink:         sink,
		metrics:      m,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
		resume:       make(map[string]chan struct{}),
	}
}

// Stop cancels the engine context and waits for running jobs to wind
// down. The in-flight item is allowed to finish; remaining items are
// skipped and the job is closed with an error.
func (e *Engine) Stop() {
	e.cancel()
	e.wg.Wait()
}

// Pause sets the cooperative pause flag. Valid only while the job is
// processing; concurrent pause/resume calls are last-write-wins.
func (e *Engine) Pause(jobID string) error {
	return e.setPaused(jobID, true)
}

// Resume clears the pause flag and wakes the waiting worker.
func (e *Engine) Resume(jobID string) error {
	if err := e.setPaused(jobID, false); err != nil {
		return err
	}
	e.mu.Lock()
	ch, ok := e.resume[jobID]
	e.mu.Unlock()
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (e *Engine) setPaused(jobID string, paused bool) error {
	job, err := e.jobs.Job(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}
	if job.Terminal() {
		return fmt.Errorf("job %s is %s; pause/resume only applies while processing", jobID, job.Status)
	}
	return e.jobs.SetJobPaused(jobID, paused)
}

func (e *Engine) resumeChan(jobID string) chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch, ok := e.resume[jobID]
	if !ok {
		ch = make(chan struct{}, 1)
		e.resume[jobID] = ch
	}
	return ch
}

func (e *Engine) dropResumeChan(jobID string) {
	e.mu.Lock()
	delete(e.resume, jobID)
	e.mu.Unlock()
}

// waitWhilePaused blocks while the job's pause flag is set, re-reading
// job state every cycle. It wakes early on resume or engine shutdown.
func (e *Engine) waitWhilePaused(jobID string) error {
	ch := e.resumeChan(jobID)
	for {
		job, err := e.jobs.Job(jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return fmt.Errorf("job %s disappeared", jobID)
		}
		if !job.Paused {
			return nil
		}
		select {
		case <-e.ctx.Done():
			return e.ctx.Err()
		case <-ch:
		case <-time.After(e.pollInterval):
		}
	}
}

// publish pushes a progress event; the sink is fire-and-forget and can
// never fail the job.
func (e *Engine) publish(ownerID uint, stage string, current, total, success int) {
	e.sink.Publish(ownerID, progress.Event{
		Current:      current,
		Total:        total,
		SuccessCount: success,
		FailureCount: current - success,
		Stage:        stage,
	})
}

// finish moves the job to a terminal status and records metrics.
func (e *Engine) finish(jobID, status, errorMessage string, started time.Time) {
	if err := e.jobs.FinishJob(jobID, status, errorMessage); err != nil {
		logrus.Errorf("Failed to finish job %s: %v", jobID, err)
	}
	if status == model.JobStatusError {
		e.metrics.JobsFailed.Inc()
	}
	e.metrics.JobDuration.Observe(time.Since(started).Seconds())
}
