package lifecycle

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/generator"
	"outreach-engine-go/internal/model"
)

// EmailStore is the persistence the lifecycle engine needs.
type EmailStore interface {
	CreateEmail(e *model.Email) error
	SaveEmail(e *model.Email) error
	EmailsByRecipient(ownerID uint, address string) ([]model.Email, error)
	DeleteEmailsByRecipient(ownerID uint, address string) error
	HasCompletionRecord(ownerID uint, address string) (bool, error)
	CreateCompletionRecord(rec *model.CompletionRecord) error
}

// TemplateStore resolves the template used to draft the next stage.
type TemplateStore interface {
	DefaultTemplate(ownerID uint, category string) (*model.Template, error)
}

// Engine owns the per-recipient email state machine: which statuses a
// send moves an email through, when the next stage is drafted, and when
// a fully worked recipient is archived and purged.
type Engine struct {
	emails    EmailStore
	templates TemplateStore
	generator generator.Generator

	followupDays   int
	lastchanceDays int

	now func() time.Time
}

// New creates a lifecycle engine with the given default stage intervals.
// Owners can override the intervals on their profile.
func New(emails EmailStore, templates TemplateStore, gen generator.Generator, followupDays, lastchanceDays int) *Engine {
	return &Engine{
		emails:         emails,
		templates:      templates,
		generator:      gen,
		followupDays:   followupDays,
		lastchanceDays: lastchanceDays,
		now:            time.Now,
	}
}

// Advance records a successful dispatch of the email and applies the
// stage transition's side effects. Calling it again on an already
// advanced email is a no-op returning the current state, so retried
// requests cannot double-spawn the next stage.
//
// Drafting the next stage is best-effort: its failure is logged but the
// send stays recorded, and the draft can be regenerated manually.
func (e *Engine) Advance(owner *model.Owner, email *model.Email) (*model.Email, error) {
	sentStatus := model.SentStatus(email.Stage)
	if email.Status == sentStatus || email.Status == model.StatusCompleted {
		logrus.Debugf("Email %d already advanced (status %s), skipping", email.ID, email.Status)
		return email, nil
	}

	now := e.now()
	email.SentAt = &now
	email.Status = sentStatus
	if err := e.emails.SaveEmail(email); err != nil {
		return nil, fmt.Errorf("failed to record send for email %d: %w", email.ID, err)
	}

	if email.Stage == model.StageLastchance {
		if err := e.CompleteRecipient(owner.ID, email.RecipientAddress, email.RecipientName); err != nil {
			logrus.Errorf("Cleanup after lastchance email %d failed: %v", email.ID, err)
		}
		return email, nil
	}

	if err := e.spawnNextStage(owner, email, now); err != nil {
		logrus.Errorf("Failed to draft %s email for %s: %v",
			model.NextStage(email.Stage), email.RecipientAddress, err)
	}
	return email, nil
}

// spawnNextStage drafts the email for the stage that follows the one
// just sent, with due dates counted from the send time.
func (e *Engine) spawnNextStage(owner *model.Owner, sent *model.Email, now time.Time) error {
	next := model.NextStage(sent.Stage)

	tmpl, err := e.templates.DefaultTemplate(owner.ID, next)
	if err != nil {
		return err
	}
	if tmpl == nil {
		return fmt.Errorf("owner %d has no %s template", owner.ID, next)
	}

	contact := model.Contact{
		Address: sent.RecipientAddress,
		Name:    sent.RecipientName,
		Company: sent.RecipientCompany,
	}
	content, err := e.generator.Generate(contact, owner, tmpl, next)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	draft := &model.Email{
		OwnerID:          owner.ID,
		RecipientAddress: sent.RecipientAddress,
		RecipientName:    sent.RecipientName,
		RecipientCompany: sent.RecipientCompany,
		Subject:          content.Subject,
		Body:             content.Body,
		Stage:            next,
		Status:           model.StatusDraft,
		GroupID:          sent.GroupID,
		TemplateID:       &tmpl.ID,
	}

	switch next {
	case model.StageFollowup:
		followupDue := now.AddDate(0, 0, e.intervalDays(owner, model.StageFollowup))
		lastchanceDue := now.AddDate(0, 0, e.intervalDays(owner, model.StageLastchance))
		draft.FollowupDueAt = &followupDue
		draft.LastchanceDueAt = &lastchanceDue
	case model.StageLastchance:
		// The lastchance due date was fixed when the followup was drafted.
		due := sent.LastchanceDueAt
		if due == nil {
			fallback := now.AddDate(0, 0, e.intervalDays(owner, model.StageLastchance)-e.intervalDays(owner, model.StageFollowup))
			due = &fallback
		}
		draft.LastchanceDueAt = due
	}

	if err := e.emails.CreateEmail(draft); err != nil {
		return err
	}
	logrus.Infof("Drafted %s email %d for %s", next, draft.ID, draft.RecipientAddress)
	return nil
}

// CompleteRecipient marks every email of the pair completed and runs
// cleanup. Also used when a reply ends the sequence early.
func (e *Engine) CompleteRecipient(ownerID uint, address, name string) error {
	emails, err := e.emails.EmailsByRecipient(ownerID, address)
	if err != nil {
		return err
	}
	for i := range emails {
		if emails[i].Status == model.StatusCompleted {
			continue
		}
		emails[i].Status = model.StatusCompleted
		if err := e.emails.SaveEmail(&emails[i]); err != nil {
			return fmt.Errorf("failed to complete email %d: %w", emails[i].ID, err)
		}
	}
	return e.Cleanup(ownerID, address, name)
}

// Cleanup archives and purges a fully worked recipient: once every
// email of the pair is completed it writes the completion record
// (idempotently) and hard-deletes the email rows. The record is what
// keeps the recipient out of future batches.
func (e *Engine) Cleanup(ownerID uint, address, name string) error {
	emails, err := e.emails.EmailsByRecipient(ownerID, address)
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		return nil
	}
	for _, email := range emails {
		if email.Status != model.StatusCompleted {
			return nil
		}
	}

	exists, err := e.emails.HasCompletionRecord(ownerID, address)
	if err != nil {
		return err
	}
	if !exists {
		rec := &model.CompletionRecord{
			OwnerID:          ownerID,
			RecipientAddress: address,
			RecipientName:    name,
			CompletedAt:      e.now(),
		}
		if err := e.emails.CreateCompletionRecord(rec); err != nil {
			return fmt.Errorf("failed to write completion record: %w", err)
		}
	}

	if err := e.emails.DeleteEmailsByRecipient(ownerID, address); err != nil {
		return fmt.Errorf("failed to purge completed emails: %w", err)
	}
	logrus.Infof("Recipient %s completed all stages for owner %d", address, ownerID)
	return nil
}

func (e *Engine) intervalDays(owner *model.Owner, stage string) int {
	if stage == model.StageFollowup {
		if owner.FollowupIntervalDays > 0 {
			return owner.FollowupIntervalDays
		}
		return e.followupDays
	}
	if owner.LastchanceIntervalDays > 0 {
		return owner.LastchanceIntervalDays
	}
	return e.lastchanceDays
}
