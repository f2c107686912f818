package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach-engine-go/internal/model"
)

// fakeQuotaStore is an in-memory Store
type fakeQuotaStore struct {
	usage         map[string]*model.QuotaRecord
	counted       map[string]bool
	reputation    *model.ReputationRecord
	activeDays    int
	windowSent    int
	windowBounced int
}

func newFakeQuotaStore() *fakeQuotaStore {
	return &fakeQuotaStore{
		usage:      make(map[string]*model.QuotaRecord),
		counted:    make(map[string]bool),
		reputation: &model.ReputationRecord{OwnerID: 1, Score: 5.0, WarmupStatus: model.WarmupNew},
	}
}

func (s *fakeQuotaStore) QuotaForDay(ownerID uint, day string) (*model.QuotaRecord, error) {
	if rec, ok := s.usage[day]; ok {
		cp := *rec
		return &cp, nil
	}
	return &model.QuotaRecord{OwnerID: ownerID, Day: day}, nil
}

func (s *fakeQuotaStore) AddUsage(ownerID uint, day string, sent, newUnique int) error {
	rec, ok := s.usage[day]
	if !ok {
		rec = &model.QuotaRecord{OwnerID: ownerID, Day: day}
		s.usage[day] = rec
	}
	rec.EmailsSent += sent
	rec.UniqueRecipients += newUnique
	return nil
}

func (s *fakeQuotaStore) AddBounce(ownerID uint, day string) error {
	rec, ok := s.usage[day]
	if !ok {
		rec = &model.QuotaRecord{OwnerID: ownerID, Day: day}
		s.usage[day] = rec
	}
	rec.EmailsBounced++
	s.windowBounced++
	return nil
}

func (s *fakeQuotaStore) RecipientCounted(ownerID uint, day, address string) (bool, error) {
	return s.counted[day+"/"+address], nil
}

func (s *fakeQuotaStore) CountRecipient(ownerID uint, day, address string) error {
	s.counted[day+"/"+address] = true
	return nil
}

func (s *fakeQuotaStore) Reputation(ownerID uint) (*model.ReputationRecord, error) {
	cp := *s.reputation
	return &cp, nil
}

func (s *fakeQuotaStore) SaveReputation(rec *model.ReputationRecord) error {
	cp := *rec
	s.reputation = &cp
	return nil
}

func (s *fakeQuotaStore) LimitRules() ([]model.LimitRule, error) {
	return []model.LimitRule{
		{RuleType: model.RuleDailySend, DefaultValue: 200, WarmupValue: 50, MaxValue: 500},
		{RuleType: model.RuleUniqueRecipients, DefaultValue: 100, WarmupValue: 25, MaxValue: 250},
	}, nil
}

func (s *fakeQuotaStore) ActivityWindow(ownerID uint, since time.Time) (int, int, int, error) {
	return s.activeDays, s.windowSent, s.windowBounced, nil
}

func testGovernor(store *fakeQuotaStore) *Governor {
	g := New(store, 50)
	g.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }
	return g
}

func TestComputeLimitsTiers(t *testing.T) {
	tests := []struct {
		name       string
		warmup     string
		score      float64
		wantDaily  int
		wantUnique int
	}{
		{"new identity gets warmup values", model.WarmupNew, 5.0, 50, 25},
		{"high score gets max values", model.WarmupActive, 8.0, 500, 250},
		{"everyone else gets defaults", model.WarmupWarming, 6.5, 200, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeQuotaStore()
			store.reputation.WarmupStatus = tt.warmup
			store.reputation.Score = tt.score

			limits, err := testGovernor(store).ComputeLimits(1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDaily, limits.DailyLimit)
			assert.Equal(t, tt.wantUnique, limits.RecipientLimit)
		})
	}
}

func TestCanSendDeniesAtDailyLimit(t *testing.T) {
	store := newFakeQuotaStore()
	store.usage["2025-06-02"] = &model.QuotaRecord{EmailsSent: 50, UniqueRecipients: 20}

	decision, err := testGovernor(store).CanSend(1, 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "daily send limit")
}

func TestCanSendDeniesAtRecipientLimit(t *testing.T) {
	store := newFakeQuotaStore()
	store.usage["2025-06-02"] = &model.QuotaRecord{EmailsSent: 30, UniqueRecipients: 25}

	decision, err := testGovernor(store).CanSend(1, 1)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "recipient limit")
}

func TestCanSendAllowsUpToBoundary(t *testing.T) {
	store := newFakeQuotaStore()
	store.usage["2025-06-02"] = &model.QuotaRecord{EmailsSent: 48, UniqueRecipients: 10}

	g := testGovernor(store)

	decision, err := g.CanSend(1, 2)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = g.CanSend(1, 3)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCanSendWarnsDuringWarmup(t *testing.T) {
	store := newFakeQuotaStore()

	decision, err := testGovernor(store).CanSend(1, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "warming up")
}

func TestCanSendWarnsOnLowRemainingQuota(t *testing.T) {
	store := newFakeQuotaStore()
	store.reputation.WarmupStatus = model.WarmupActive
	store.usage["2025-06-02"] = &model.QuotaRecord{EmailsSent: 160, UniqueRecipients: 10}

	decision, err := testGovernor(store).CanSend(1, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Contains(t, decision.Reason, "remaining today")
}

func TestRecordSendCountsUniquesOnce(t *testing.T) {
	store := newFakeQuotaStore()
	g := testGovernor(store)

	require.NoError(t, g.RecordSend(1, []string{"a@x.com"}))
	require.NoError(t, g.RecordSend(1, []string{"A@X.COM"}))
	require.NoError(t, g.RecordSend(1, []string{"b@x.com"}))

	rec := store.usage["2025-06-02"]
	require.NotNil(t, rec)
	assert.Equal(t, 3, rec.EmailsSent)
	assert.Equal(t, 2, rec.UniqueRecipients)
	assert.Equal(t, 3, store.reputation.TotalSent)
}

func TestRecalculateReputationScenario(t *testing.T) {
	// 25 active days in 30, 200 sent, 3 bounced: base 5.0 plus the
	// activity credit, no bounce penalty at 1.5%.
	store := newFakeQuotaStore()
	store.activeDays = 25
	store.windowSent = 200
	store.windowBounced = 3
	store.reputation.TotalSent = 200
	store.reputation.WarmupStatus = model.WarmupWarming

	rep, err := testGovernor(store).RecalculateReputation(1)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, rep.Score, 0.001)
	assert.Equal(t, model.WarmupWarming, rep.WarmupStatus)
}

func TestRecalculateReputationBouncePenalties(t *testing.T) {
	tests := []struct {
		name    string
		sent    int
		bounced int
		days    int
		want    float64
	}{
		{"heavy bounces", 100, 12, 5, 3.0},
		{"moderate bounces", 100, 7, 5, 4.0},
		{"volume credit for quiet senders", 150, 2, 5, 6.5},
		{"half activity credit minus heavy bounces", 100, 12, 10, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeQuotaStore()
			store.activeDays = tt.days
			store.windowSent = tt.sent
			store.windowBounced = tt.bounced

			rep, err := testGovernor(store).RecalculateReputation(1)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, rep.Score, 0.001)
		})
	}
}

func TestRecalculateReputationIgnoresBouncesOutsideWindow(t *testing.T) {
	// Lifetime bounces from long ago must not count against the
	// trailing 30 days; only windowed bounces set the rate.
	store := newFakeQuotaStore()
	store.activeDays = 25
	store.windowSent = 200
	store.windowBounced = 0
	store.reputation.TotalBounced = 50
	store.reputation.TotalSent = 2000
	store.reputation.WarmupStatus = model.WarmupActive

	rep, err := testGovernor(store).RecalculateReputation(1)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, rep.Score, 0.001)
}

func TestRecordBounceBooksTodaysRow(t *testing.T) {
	store := newFakeQuotaStore()
	g := testGovernor(store)

	require.NoError(t, g.RecordBounce(1))
	require.NoError(t, g.RecordBounce(1))

	rec := store.usage["2025-06-02"]
	require.NotNil(t, rec)
	assert.Equal(t, 2, rec.EmailsBounced)
	assert.Equal(t, 2, store.reputation.TotalBounced)
}

func TestWarmupPromotion(t *testing.T) {
	store := newFakeQuotaStore()
	store.activeDays = 8
	store.windowSent = 120
	store.reputation.TotalSent = 120

	rep, err := testGovernor(store).RecalculateReputation(1)
	require.NoError(t, err)
	assert.Equal(t, model.WarmupWarming, rep.WarmupStatus)

	store.activeDays = 30
	store.reputation.TotalSent = 600
	rep, err = testGovernor(store).RecalculateReputation(1)
	require.NoError(t, err)
	assert.Equal(t, model.WarmupActive, rep.WarmupStatus)
}

func TestRestrictedIsNeverAutoPromoted(t *testing.T) {
	store := newFakeQuotaStore()
	store.reputation.WarmupStatus = model.WarmupRestricted
	store.activeDays = 30
	store.reputation.TotalSent = 600

	rep, err := testGovernor(store).RecalculateReputation(1)
	require.NoError(t, err)
	assert.Equal(t, model.WarmupRestricted, rep.WarmupStatus)
}
