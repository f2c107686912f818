package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/delivery"
	"outreach-engine-go/internal/model"
)

// StartSendJob dispatches the given emails in id order in the
// background. Quota denials and delivery failures mark single items
// failed and move on; only an engine-level fault ends the job early.
func (e *Engine) StartSendJob(owner *model.Owner, emailIDs []uint, stage, groupID string) (*model.Job, error) {
	if len(emailIDs) == 0 {
		return nil, &PreconditionError{Reason: "no emails are due to send for this stage and group"}
	}

	job := &model.Job{
		ID:         uuid.NewString(),
		OwnerID:    owner.ID,
		Kind:       model.JobKindSend,
		Stage:      stage,
		GroupID:    groupID,
		TotalItems: len(emailIDs),
		Status:     model.JobStatusProcessing,
	}
	if err := e.jobs.CreateJob(job); err != nil {
		return nil, err
	}
	e.metrics.JobsStarted.Inc()

	e.wg.Add(1)
	go e.runSend(owner, job, emailIDs, stage)

	return job, nil
}

// runSend is the send worker. Before each item it waits out a pause
// and asks the governor for permission; after each item it persists
// progress and pushes an event.
func (e *Engine) runSend(owner *model.Owner, job *model.Job, emailIDs []uint, stage string) {
	defer e.wg.Done()
	defer e.dropResumeChan(job.ID)
	e.metrics.ActiveJobs.Inc()
	defer e.metrics.ActiveJobs.Dec()

	started := time.Now()
	processed, success := 0, 0

	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Send job %s panicked: %v", job.ID, r)
			e.finish(job.ID, model.JobStatusError, fmt.Sprintf("engine error: %v", r), started)
		}
	}()

	logrus.Infof("Send job %s started: %d emails, stage %s", job.ID, len(emailIDs), stage)

	for _, id := range emailIDs {
		select {
		case <-e.ctx.Done():
			e.finish(job.ID, model.JobStatusError, "interrupted by engine shutdown", started)
			return
		default:
		}
		if err := e.waitWhilePaused(job.ID); err != nil {
			e.finish(job.ID, model.JobStatusError, fmt.Sprintf("interrupted while paused: %v", err), started)
			return
		}

		if e.sendOne(owner, job, id) {
			success++
		}
		processed++

		if err := e.jobs.UpdateJobProgress(job.ID, processed, success); err != nil {
			logrus.Errorf("Send job %s: failed to persist progress: %v", job.ID, err)
		}
		e.publish(owner.ID, stage, processed, job.TotalItems, success)
	}

	e.finish(job.ID, model.JobStatusCompleted, "", started)
	logrus.Infof("Send job %s completed: %d/%d delivered", job.ID, success, processed)
}

func (e *Engine) sendOne(owner *model.Owner, job *model.Job, emailID uint) bool {
	email, err := e.emails.Email(emailID)
	if err != nil {
		logrus.Errorf("Send job %s: failed to load email %d: %v", job.ID, emailID, err)
		return false
	}
	if email == nil || !email.Sendable() {
		logrus.Debugf("Send job %s: email %d missing or not sendable, skipping", job.ID, emailID)
		return false
	}

	decision, err := e.governor.CanSend(owner.ID, 1)
	if err != nil {
		logrus.Errorf("Send job %s: quota check failed for email %d: %v", job.ID, emailID, err)
		return false
	}
	if !decision.Allowed {
		logrus.Warnf("Send job %s: email %d denied by quota: %s", job.ID, emailID, decision.Reason)
		e.metrics.QuotaDenials.Inc()
		return false
	}
	if decision.Reason != "" {
		logrus.Infof("Send job %s: quota warning: %s", job.ID, decision.Reason)
	}

	_, err = e.deliverer.Deliver(e.ctx, delivery.Message{
		FromName:  owner.Name,
		FromEmail: owner.Email,
		To:        email.RecipientAddress,
		Subject:   email.Subject,
		Body:      email.Body,
	})
	if err != nil {
		e.metrics.DeliveryFailures.Inc()
		logrus.Errorf("Send job %s: delivery to %s failed: %v", job.ID, email.RecipientAddress, err)
		if delivery.IsCredential(err) {
			// Every later item will likely hit the same wall; surface a
			// job-level warning but keep going.
			if werr := e.jobs.SetJobWarning(job.ID, "delivery credentials rejected; remaining sends will likely fail"); werr != nil {
				logrus.Errorf("Send job %s: failed to record credential warning: %v", job.ID, werr)
			}
		} else if berr := e.governor.RecordBounce(owner.ID); berr != nil {
			logrus.Errorf("Send job %s: failed to record bounce: %v", job.ID, berr)
		}
		return false
	}

	if err := e.governor.RecordSend(owner.ID, []string{email.RecipientAddress}); err != nil {
		logrus.Errorf("Send job %s: failed to record quota usage for %s: %v", job.ID, email.RecipientAddress, err)
	}
	if _, err := e.lifecycle.Advance(owner, email); err != nil {
		logrus.Errorf("Send job %s: failed to advance email %d: %v", job.ID, email.ID, err)
	}

	e.metrics.EmailsSent.Inc()
	return true
}

// SendOne is the synchronous single-email path behind
// POST /emails/:id/send. It walks the same governor-then-lifecycle
// sequence as the send worker.
func (e *Engine) SendOne(owner *model.Owner, emailID uint) (*model.Email, error) {
	email, err := e.emails.Email(emailID)
	if err != nil {
		return nil, err
	}
	if email == nil {
		return nil, fmt.Errorf("email %d not found", emailID)
	}
	if email.OwnerID != owner.ID {
		return nil, fmt.Errorf("email %d does not belong to owner %d", emailID, owner.ID)
	}
	if !email.Sendable() {
		return nil, fmt.Errorf("email %d is not sendable (status %s)", emailID, email.Status)
	}

	decision, err := e.governor.CanSend(owner.ID, 1)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		e.metrics.QuotaDenials.Inc()
		return nil, &QuotaDeniedError{Reason: decision.Reason}
	}

	if _, err := e.deliverer.Deliver(e.ctx, delivery.Message{
		FromName:  owner.Name,
		FromEmail: owner.Email,
		To:        email.RecipientAddress,
		Subject:   email.Subject,
		Body:      email.Body,
	}); err != nil {
		e.metrics.DeliveryFailures.Inc()
		if !delivery.IsCredential(err) {
			if berr := e.governor.RecordBounce(owner.ID); berr != nil {
				logrus.Errorf("Failed to record bounce for owner %d: %v", owner.ID, berr)
			}
		}
		return nil, err
	}

	if err := e.governor.RecordSend(owner.ID, []string{email.RecipientAddress}); err != nil {
		logrus.Errorf("Failed to record quota usage for %s: %v", email.RecipientAddress, err)
	}
	advanced, err := e.lifecycle.Advance(owner, email)
	if err != nil {
		return nil, err
	}
	e.metrics.EmailsSent.Inc()
	return advanced, nil
}
