package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach-engine-go/internal/config"
	"outreach-engine-go/internal/metrics"
	"outreach-engine-go/internal/model"
	"outreach-engine-go/internal/repository"
)

var testMetrics = metrics.NewMetrics()

func testConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		ReputationSpec: "0 0 3 * * *",
		DueSweepSpec:   "0 0 * * * *",
		ReplySweepSpec: "0 30 * * * *",
	}
}

type fakeStore struct {
	owners     []uint
	due        map[uint]int64
	recipients map[uint][]repository.ActiveRecipient
}

func (s *fakeStore) OwnerIDs() ([]uint, error) { return s.owners, nil }

func (s *fakeStore) CountDueEmails(ownerID uint, stage string, now time.Time) (int64, error) {
	return s.due[ownerID], nil
}

func (s *fakeStore) ActiveRecipients(ownerID uint) ([]repository.ActiveRecipient, error) {
	return s.recipients[ownerID], nil
}

type fakeGovernor struct {
	recalculated []uint
}

func (g *fakeGovernor) RecalculateReputation(ownerID uint) (*model.ReputationRecord, error) {
	g.recalculated = append(g.recalculated, ownerID)
	return &model.ReputationRecord{OwnerID: ownerID, Score: 5.0}, nil
}

type fakeLifecycle struct {
	completed []string
}

func (l *fakeLifecycle) CompleteRecipient(ownerID uint, address, name string) error {
	l.completed = append(l.completed, address)
	return nil
}

// fakeProbe reports a reply for the addresses in replied.
type fakeProbe struct {
	replied map[string]bool
}

func (p *fakeProbe) HasReplied(ctx context.Context, recipient string, since time.Time) (bool, error) {
	return p.replied[recipient], nil
}

func (p *fakeProbe) Close() error { return nil }

func TestSchedulerStartStop(t *testing.T) {
	sched := NewScheduler(testConfig(), &fakeStore{}, &fakeGovernor{}, &fakeLifecycle{}, nil, testMetrics)

	require.NoError(t, sched.Start())
	assert.True(t, sched.IsRunning())
	assert.Error(t, sched.Start(), "double start must be rejected")
	assert.False(t, sched.GetNextRun().IsZero())

	require.NoError(t, sched.Stop())
	assert.False(t, sched.IsRunning())
	assert.NoError(t, sched.Stop(), "stopping a stopped scheduler is a no-op")
}

func TestReputationSweepCoversAllOwners(t *testing.T) {
	store := &fakeStore{owners: []uint{1, 2, 3}}
	gov := &fakeGovernor{}
	sched := NewScheduler(testConfig(), store, gov, &fakeLifecycle{}, nil, testMetrics)

	sched.runReputationSweep()

	assert.Equal(t, []uint{1, 2, 3}, gov.recalculated)
	assert.False(t, sched.GetLastRun().IsZero())
}

func TestReplySweepCompletesResponders(t *testing.T) {
	store := &fakeStore{
		owners: []uint{1},
		recipients: map[uint][]repository.ActiveRecipient{
			1: {
				{Address: "quiet@example.com", Name: "Quiet", FirstSentAt: time.Now().Add(-48 * time.Hour)},
				{Address: "replied@example.com", Name: "Replied", FirstSentAt: time.Now().Add(-48 * time.Hour)},
			},
		},
	}
	lc := &fakeLifecycle{}
	probe := &fakeProbe{replied: map[string]bool{"replied@example.com": true}}
	sched := NewScheduler(testConfig(), store, &fakeGovernor{}, lc, probe, testMetrics)

	sched.runReplySweep()

	assert.Equal(t, []string{"replied@example.com"}, lc.completed)
}

func TestReplySweepSkippedWithoutProbe(t *testing.T) {
	store := &fakeStore{
		owners: []uint{1},
		recipients: map[uint][]repository.ActiveRecipient{
			1: {{Address: "a@example.com"}},
		},
	}
	lc := &fakeLifecycle{}
	sched := NewScheduler(testConfig(), store, &fakeGovernor{}, lc, nil, testMetrics)

	sched.runReplySweep()

	assert.Empty(t, lc.completed)
}

func TestStartRejectsBadCronSpec(t *testing.T) {
	cfg := testConfig()
	cfg.DueSweepSpec = "not a cron spec"
	sched := NewScheduler(cfg, &fakeStore{}, &fakeGovernor{}, &fakeLifecycle{}, nil, testMetrics)

	assert.Error(t, sched.Start())
}
