package quota

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/model"
)

// Store is the persistence the governor needs.
type Store interface {
	QuotaForDay(ownerID uint, day string) (*model.QuotaRecord, error)
	AddUsage(ownerID uint, day string, sent, newUnique int) error
	AddBounce(ownerID uint, day string) error
	RecipientCounted(ownerID uint, day, address string) (bool, error)
	CountRecipient(ownerID uint, day, address string) error
	Reputation(ownerID uint) (*model.ReputationRecord, error)
	SaveReputation(rec *model.ReputationRecord) error
	LimitRules() ([]model.LimitRule, error)
	ActivityWindow(ownerID uint, since time.Time) (activeDays, totalSent, totalBounced int, err error)
}

// Limits is the quota snapshot for one owner right now.
type Limits struct {
	DailyLimit         int
	RecipientLimit     int
	SentToday          int
	UniqueToday        int
	RemainingDaily     int
	RemainingRecipient int
	ReputationScore    float64
	WarmupStatus       string
}

// Decision is the governor's answer to "can N recipients be emailed now".
// Reason carries the denial reason, or a soft warning on an allow.
type Decision struct {
	Allowed bool
	Reason  string
}

// Governor gates every outbound send against the owner's daily quota
// and maintains the reputation score the quota tiers derive from.
//
// CanSend followed by RecordSend is the only synchronization point
// between concurrent jobs of one owner; the per-owner mutex keeps each
// call consistent, while cross-process races may overshoot by a bounded
// amount, which is accepted.
type Governor struct {
	store           Store
	lowQuotaWarning int

	mu     sync.Mutex
	owners map[uint]*sync.Mutex

	now func() time.Time
}

// New creates a new Governor
func New(store Store, lowQuotaWarning int) *Governor {
	return &Governor{
		store:           store,
		lowQuotaWarning: lowQuotaWarning,
		owners:          make(map[uint]*sync.Mutex),
		now:             time.Now,
	}
}

func (g *Governor) ownerMu(ownerID uint) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.owners[ownerID]
	if !ok {
		m = &sync.Mutex{}
		g.owners[ownerID] = m
	}
	return m
}

func (g *Governor) day() string {
	return g.now().Format("2006-01-02")
}

// ComputeLimits resolves the owner's current limits and usage. The
// limit tier follows reputation: brand-new identities get the warm-up
// values, a score of 8 or better earns the maximum values, everyone
// else gets the defaults.
func (g *Governor) ComputeLimits(ownerID uint) (*Limits, error) {
	rep, err := g.store.Reputation(ownerID)
	if err != nil {
		return nil, err
	}

	rules, err := g.store.LimitRules()
	if err != nil {
		return nil, err
	}

	daily, recipients := 0, 0
	for _, rule := range rules {
		value := rule.DefaultValue
		if rep.WarmupStatus == model.WarmupNew {
			value = rule.WarmupValue
		} else if rep.Score >= 8 {
			value = rule.MaxValue
		}
		switch rule.RuleType {
		case model.RuleDailySend:
			daily = value
		case model.RuleUniqueRecipients:
			recipients = value
		}
	}
	if daily == 0 || recipients == 0 {
		return nil, fmt.Errorf("limit rules are not seeded")
	}

	usage, err := g.store.QuotaForDay(ownerID, g.day())
	if err != nil {
		return nil, err
	}

	limits := &Limits{
		DailyLimit:         daily,
		RecipientLimit:     recipients,
		SentToday:          usage.EmailsSent,
		UniqueToday:        usage.UniqueRecipients,
		RemainingDaily:     daily - usage.EmailsSent,
		RemainingRecipient: recipients - usage.UniqueRecipients,
		ReputationScore:    rep.Score,
		WarmupStatus:       rep.WarmupStatus,
	}
	if limits.RemainingDaily < 0 {
		limits.RemainingDaily = 0
	}
	if limits.RemainingRecipient < 0 {
		limits.RemainingRecipient = 0
	}
	return limits, nil
}

// CanSend decides whether recipientCount more recipients may be emailed
// now. An allow may carry a soft warning when the identity is still
// warming up or the remaining quota is low.
func (g *Governor) CanSend(ownerID uint, recipientCount int) (*Decision, error) {
	mu := g.ownerMu(ownerID)
	mu.Lock()
	defer mu.Unlock()

	limits, err := g.ComputeLimits(ownerID)
	if err != nil {
		return nil, err
	}

	if limits.SentToday+recipientCount > limits.DailyLimit {
		return &Decision{
			Allowed: false,
			Reason: fmt.Sprintf("daily send limit reached (%d/%d)",
				limits.SentToday, limits.DailyLimit),
		}, nil
	}
	if limits.UniqueToday+recipientCount > limits.RecipientLimit {
		return &Decision{
			Allowed: false,
			Reason: fmt.Sprintf("daily recipient limit reached (%d/%d)",
				limits.UniqueToday, limits.RecipientLimit),
		}, nil
	}

	decision := &Decision{Allowed: true}
	if limits.WarmupStatus == model.WarmupNew {
		decision.Reason = "sending identity is still warming up; limits are reduced"
	} else if limits.RemainingDaily-recipientCount <= g.lowQuotaWarning {
		decision.Reason = fmt.Sprintf("only %d sends remaining today", limits.RemainingDaily-recipientCount)
	}
	return decision, nil
}

// RecordSend books a successful dispatch against today's quota. Call it
// once per delivery, after the transport confirms, never before.
func (g *Governor) RecordSend(ownerID uint, recipients []string) error {
	mu := g.ownerMu(ownerID)
	mu.Lock()
	defer mu.Unlock()

	day := g.day()
	newUnique := 0
	for _, addr := range recipients {
		addr = strings.ToLower(addr)
		counted, err := g.store.RecipientCounted(ownerID, day, addr)
		if err != nil {
			return err
		}
		if counted {
			continue
		}
		if err := g.store.CountRecipient(ownerID, day, addr); err != nil {
			return err
		}
		newUnique++
	}

	if err := g.store.AddUsage(ownerID, day, len(recipients), newUnique); err != nil {
		return err
	}

	rep, err := g.store.Reputation(ownerID)
	if err != nil {
		return err
	}
	rep.TotalSent += len(recipients)
	rep.SuccessfulDeliveries += len(recipients)
	return g.store.SaveReputation(rep)
}

// RecordBounce books a delivery failure classified as a bounce against
// today's usage row and the lifetime tally; the next reputation
// recompute folds the windowed count into the score.
func (g *Governor) RecordBounce(ownerID uint) error {
	mu := g.ownerMu(ownerID)
	mu.Lock()
	defer mu.Unlock()

	day := g.now().Format("2006-01-02")
	if err := g.store.AddBounce(ownerID, day); err != nil {
		return err
	}

	rep, err := g.store.Reputation(ownerID)
	if err != nil {
		return err
	}
	rep.TotalBounced++
	return g.store.SaveReputation(rep)
}

// RecalculateReputation recomputes the owner's score over the trailing
// 30-day window and promotes the warm-up status when the activity
// thresholds are met. New and restricted identities are never promoted
// past the thresholds automatically; demotion is an explicit action.
func (g *Governor) RecalculateReputation(ownerID uint) (*model.ReputationRecord, error) {
	mu := g.ownerMu(ownerID)
	mu.Lock()
	defer mu.Unlock()

	rep, err := g.store.Reputation(ownerID)
	if err != nil {
		return nil, err
	}

	since := g.now().AddDate(0, 0, -30)
	activeDays, windowSent, windowBounced, err := g.store.ActivityWindow(ownerID, since)
	if err != nil {
		return nil, err
	}

	// Activity credit and the high-volume credit do not stack: the
	// volume bonus is the alternative path for senders without enough
	// active days yet.
	score := 5.0
	bounced := windowBounced
	switch {
	case activeDays >= 20:
		score += 1.0
	case activeDays >= 10:
		score += 0.5
	case windowSent > 100 && bounced < 5:
		score += 1.5
	}

	if windowSent > 0 {
		bounceRate := float64(bounced) / float64(windowSent) * 100
		if bounceRate > 10 {
			score -= 2.0
		} else if bounceRate > 5 {
			score -= 1.0
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	rep.Score = score
	switch {
	case activeDays >= 30 && rep.TotalSent >= 500:
		if rep.WarmupStatus != model.WarmupRestricted {
			rep.WarmupStatus = model.WarmupActive
		}
	case activeDays >= 7 && rep.TotalSent >= 100:
		if rep.WarmupStatus == model.WarmupNew {
			rep.WarmupStatus = model.WarmupWarming
		}
	}
	rep.LastCalculated = g.now()

	if err := g.store.SaveReputation(rep); err != nil {
		return nil, err
	}
	logrus.Infof("Recalculated reputation for owner %d: score=%.1f warmup=%s (active days %d, window sent %d, bounced %d)",
		ownerID, rep.Score, rep.WarmupStatus, activeDays, windowSent, bounced)
	return rep, nil
}
