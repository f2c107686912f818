package delivery

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// LogSender is the dry-run deliverer used when no transport is
// configured: it logs the message and reports success.
type LogSender struct {
	seq uint64
}

// NewLogSender creates a new LogSender
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Deliver logs the message instead of sending it.
func (s *LogSender) Deliver(ctx context.Context, msg Message) (string, error) {
	id := atomic.AddUint64(&s.seq, 1)
	logrus.Infof("Dry-run delivery to %s: %q", msg.To, msg.Subject)
	return fmt.Sprintf("dry-run-%d", id), nil
}

// Close is a no-op.
func (s *LogSender) Close() error {
	return nil
}
