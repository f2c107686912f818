package batch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/dedupe"
	"outreach-engine-go/internal/model"
)

// StartGenerationJob validates preconditions synchronously, then drafts
// one email per usable contact in the background. The returned job is
// already persisted with status processing.
func (e *Engine) StartGenerationJob(owner *model.Owner, contacts []model.Contact, tmpl *model.Template,
	stage string, avoidDuplicates bool) (*model.Job, error) {

	if !owner.ProfileComplete() {
		return nil, &PreconditionError{Reason: "owner profile is incomplete; name, email and company are required"}
	}
	if tmpl == nil {
		return nil, &PreconditionError{Reason: fmt.Sprintf("no %s template available", stage)}
	}

	var contacted *dedupe.Set
	if avoidDuplicates {
		set, err := e.dedupe.BuildAlreadyContacted(owner.ID, true)
		if err != nil {
			return nil, fmt.Errorf("failed to build dedup index: %w", err)
		}
		contacted = set
	} else {
		// Still catch duplicates inside the batch itself.
		contacted = dedupe.NewSet()
	}

	job := &model.Job{
		ID:         uuid.NewString(),
		OwnerID:    owner.ID,
		Kind:       model.JobKindGenerate,
		Stage:      stage,
		GroupID:    uuid.NewString(),
		TotalItems: len(contacts),
		Status:     model.JobStatusProcessing,
	}
	if err := e.jobs.CreateJob(job); err != nil {
		return nil, err
	}
	e.metrics.JobsStarted.Inc()

	e.wg.Add(1)
	go e.runGeneration(owner, job, contacts, tmpl, stage, contacted, avoidDuplicates)

	return job, nil
}

// runGeneration is the generation worker. Every contact bumps the
// processed counter whether it succeeded or not, so progress always
// reaches 100%; only drafted emails bump the success counter. It
// honors the same pause flag as the send worker.
func (e *Engine) runGeneration(owner *model.Owner, job *model.Job, contacts []model.Contact,
	tmpl *model.Template, stage string, contacted *dedupe.Set, avoidDuplicates bool) {

	defer e.wg.Done()
	defer e.dropResumeChan(job.ID)
	e.metrics.ActiveJobs.Inc()
	defer e.metrics.ActiveJobs.Dec()

	started := time.Now()
	processed, success := 0, 0

	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Generation job %s panicked: %v", job.ID, r)
			e.finish(job.ID, model.JobStatusError, fmt.Sprintf("engine error: %v", r), started)
		}
	}()

	logrus.Infof("Generation job %s started: %d contacts, stage %s, dedup=%v",
		job.ID, len(contacts), stage, avoidDuplicates)

	for _, contact := range contacts {
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

		ok := e.generateOne(owner, job, contact, tmpl, stage, contacted)
		processed++
		if ok {
			success++
		}
		if err := e.jobs.UpdateJobProgress(job.ID, processed, success); err != nil {
			logrus.Errorf("Generation job %s: failed to persist progress: %v", job.ID, err)
		}
		e.publish(owner.ID, stage, processed, job.TotalItems, success)
	}

	e.finish(job.ID, model.JobStatusCompleted, "", started)
	logrus.Infof("Generation job %s completed: %d/%d drafted", job.ID, success, processed)
}

func (e *Engine) generateOne(owner *model.Owner, job *model.Job, contact model.Contact,
	tmpl *model.Template, stage string, contacted *dedupe.Set) bool {

	if !contact.Valid() {
		logrus.Debugf("Generation job %s: skipping contact without valid address (%q)", job.ID, contact.Name)
		e.metrics.ContactsSkipped.Inc()
		return false
	}
	if contacted.Has(contact.Address) {
		logrus.Debugf("Generation job %s: %s already contacted, skipping", job.ID, contact.Address)
		e.metrics.ContactsSkipped.Inc()
		return false
	}

	content, err := e.generator.Generate(contact, owner, tmpl, stage)
	if err != nil {
		logrus.Warnf("Generation job %s: content generation failed for %s: %v", job.ID, contact.Address, err)
		return false
	}

	email := &model.Email{
		OwnerID:          owner.ID,
		RecipientAddress: contact.Address,
		RecipientName:    contact.Name,
		RecipientCompany: contact.Company,
		Subject:          content.Subject,
		Body:             content.Body,
		Stage:            stage,
		Status:           model.StatusDraft,
		GroupID:          job.GroupID,
		TemplateID:       &tmpl.ID,
	}
	if err := e.emails.CreateEmail(email); err != nil {
		logrus.Warnf("Generation job %s: failed to persist draft for %s: %v", job.ID, contact.Address, err)
		return false
	}

	contacted.Add(contact.Address)
	e.metrics.EmailsGenerated.Inc()
	return true
}
