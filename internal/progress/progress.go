package progress

import (
	"github.com/sirupsen/logrus"
)

// Event is one progress update pushed to the UI channel after every
// processed batch item.
type Event struct {
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	SuccessCount int    `json:"success_count"`
	FailureCount int    `json:"failure_count"`
	Stage        string `json:"stage"`
}

// Sink receives progress events. Delivery is fire-and-forget: a sink
// must never return an error to the job loop.
type Sink interface {
	Publish(ownerID uint, event Event)
}

// LogSink writes progress events to the application log. It stands in
// wherever no push channel is wired up.
type LogSink struct{}

// NewLogSink creates a new LogSink
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Publish logs the event at debug level.
func (s *LogSink) Publish(ownerID uint, event Event) {
	logrus.WithFields(logrus.Fields{
		"owner_id": ownerID,
		"current":  event.Current,
		"total":    event.Total,
		"success":  event.SuccessCount,
		"failure":  event.FailureCount,
		"stage":    event.Stage,
	}).Debug("job progress")
}
