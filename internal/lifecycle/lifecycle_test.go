package lifecycle

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach-engine-go/internal/generator"
	"outreach-engine-go/internal/model"
)

// fakeStore is an in-memory EmailStore + TemplateStore
type fakeStore struct {
	nextID      uint
	emails      map[uint]*model.Email
	completions []model.CompletionRecord
	templates   map[string]*model.Template
	failCreate  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		emails: make(map[uint]*model.Email),
		templates: map[string]*model.Template{
			model.StageFollowup:   {ID: 2, Category: model.StageFollowup, Subject: "Following up, {{name}}", Body: "Just checking in."},
			model.StageLastchance: {ID: 3, Category: model.StageLastchance, Subject: "Last chance, {{name}}", Body: "Closing the loop."},
		},
	}
}

func (s *fakeStore) CreateEmail(e *model.Email) error {
	if s.failCreate {
		return fmt.Errorf("simulated create failure")
	}
	s.nextID++
	e.ID = s.nextID
	cp := *e
	s.emails[e.ID] = &cp
	return nil
}

func (s *fakeStore) SaveEmail(e *model.Email) error {
	cp := *e
	s.emails[e.ID] = &cp
	return nil
}

func (s *fakeStore) EmailsByRecipient(ownerID uint, address string) ([]model.Email, error) {
	var out []model.Email
	for id := uint(1); id <= s.nextID; id++ {
		e, ok := s.emails[id]
		if ok && e.OwnerID == ownerID && strings.EqualFold(e.RecipientAddress, address) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteEmailsByRecipient(ownerID uint, address string) error {
	for id, e := range s.emails {
		if e.OwnerID == ownerID && strings.EqualFold(e.RecipientAddress, address) {
			delete(s.emails, id)
		}
	}
	return nil
}

func (s *fakeStore) HasCompletionRecord(ownerID uint, address string) (bool, error) {
	for _, rec := range s.completions {
		if rec.OwnerID == ownerID && strings.EqualFold(rec.RecipientAddress, address) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreateCompletionRecord(rec *model.CompletionRecord) error {
	s.completions = append(s.completions, *rec)
	return nil
}

func (s *fakeStore) DefaultTemplate(ownerID uint, category string) (*model.Template, error) {
	return s.templates[category], nil
}

func (s *fakeStore) byStage(stage string) []*model.Email {
	var out []*model.Email
	for id := uint(1); id <= s.nextID; id++ {
		if e, ok := s.emails[id]; ok && e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

func testEngine(store *fakeStore) *Engine {
	e := New(store, store, generator.NewTemplateGenerator(), 3, 6)
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }
	return e
}

func testOwner() *model.Owner {
	return &model.Owner{ID: 1, Email: "me@acme.io", Name: "Mina Okafor", Company: "Acme"}
}

func seedOutreach(store *fakeStore) *model.Email {
	e := &model.Email{
		OwnerID:          1,
		RecipientAddress: "lee@example.com",
		RecipientName:    "Lee Park",
		RecipientCompany: "Example Co",
		Stage:            model.StageOutreach,
		Status:           model.StatusDraft,
		GroupID:          "group-1",
	}
	store.CreateEmail(e)
	return store.emails[e.ID]
}

func TestAdvanceOutreachSpawnsFollowup(t *testing.T) {
	store := newFakeStore()
	engine := testEngine(store)
	email := seedOutreach(store)

	advanced, err := engine.Advance(testOwner(), email)
	require.NoError(t, err)

	assert.Equal(t, model.StatusFollowupDue, advanced.Status)
	require.NotNil(t, advanced.SentAt)

	followups := store.byStage(model.StageFollowup)
	require.Len(t, followups, 1)
	fu := followups[0]
	assert.Equal(t, model.StatusDraft, fu.Status)
	assert.Equal(t, "lee@example.com", fu.RecipientAddress)
	assert.Equal(t, "group-1", fu.GroupID)
	assert.Equal(t, "Following up, Lee", fu.Subject)
	require.NotNil(t, fu.FollowupDueAt)
	require.NotNil(t, fu.LastchanceDueAt)
	assert.True(t, fu.FollowupDueAt.After(*advanced.SentAt))
	assert.Equal(t, advanced.SentAt.AddDate(0, 0, 3), *fu.FollowupDueAt)
	assert.Equal(t, advanced.SentAt.AddDate(0, 0, 6), *fu.LastchanceDueAt)
}

func TestAdvanceIsIdempotent(t *testing.T) {
	store := newFakeStore()
	engine := testEngine(store)
	email := seedOutreach(store)

	first, err := engine.Advance(testOwner(), email)
	require.NoError(t, err)

	again, err := engine.Advance(testOwner(), store.emails[email.ID])
	require.NoError(t, err)

	assert.Equal(t, first.Status, again.Status)
	assert.Len(t, store.byStage(model.StageFollowup), 1)
}

func TestFullStageChain(t *testing.T) {
	store := newFakeStore()
	engine := testEngine(store)
	owner := testOwner()
	email := seedOutreach(store)

	_, err := engine.Advance(owner, email)
	require.NoError(t, err)

	followups := store.byStage(model.StageFollowup)
	require.Len(t, followups, 1)
	precomputedDue := *followups[0].LastchanceDueAt

	_, err = engine.Advance(owner, followups[0])
	require.NoError(t, err)

	lastchances := store.byStage(model.StageLastchance)
	require.Len(t, lastchances, 1)
	require.NotNil(t, lastchances[0].LastchanceDueAt)
	assert.Equal(t, precomputedDue, *lastchances[0].LastchanceDueAt)

	_, err = engine.Advance(owner, lastchances[0])
	require.NoError(t, err)

	assert.Empty(t, store.emails, "all email rows should be purged after completion")
	require.Len(t, store.completions, 1)
	assert.Equal(t, "lee@example.com", store.completions[0].RecipientAddress)
	assert.Equal(t, "Lee Park", store.completions[0].RecipientName)
}

func TestSpawnFailureDoesNotRollBackSend(t *testing.T) {
	store := newFakeStore()
	engine := testEngine(store)
	email := seedOutreach(store)

	store.failCreate = true
	advanced, err := engine.Advance(testOwner(), email)
	require.NoError(t, err)

	assert.Equal(t, model.StatusFollowupDue, advanced.Status)
	assert.NotNil(t, advanced.SentAt)
	assert.Empty(t, store.byStage(model.StageFollowup))
}

func TestCleanupSkipsExistingCompletionRecord(t *testing.T) {
	store := newFakeStore()
	engine := testEngine(store)

	store.completions = append(store.completions, model.CompletionRecord{
		OwnerID:          1,
		RecipientAddress: "lee@example.com",
	})
	e := &model.Email{
		OwnerID:          1,
		RecipientAddress: "LEE@example.com",
		Stage:            model.StageLastchance,
		Status:           model.StatusCompleted,
	}
	store.CreateEmail(e)

	require.NoError(t, engine.Cleanup(1, "lee@example.com", "Lee Park"))
	assert.Len(t, store.completions, 1)
	assert.Empty(t, store.emails)
}

func TestCleanupWaitsForAllStages(t *testing.T) {
	store := newFakeStore()
	engine := testEngine(store)

	store.CreateEmail(&model.Email{OwnerID: 1, RecipientAddress: "lee@example.com", Stage: model.StageOutreach, Status: model.StatusCompleted})
	store.CreateEmail(&model.Email{OwnerID: 1, RecipientAddress: "lee@example.com", Stage: model.StageFollowup, Status: model.StatusDraft})

	require.NoError(t, engine.Cleanup(1, "lee@example.com", "Lee Park"))
	assert.Empty(t, store.completions)
	assert.Len(t, store.emails, 2)
}
