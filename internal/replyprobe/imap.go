package replyprobe

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"

	"outreach-engine-go/internal/config"
)

// Probe answers whether a recipient has written back since a given
// time. A positive answer short-circuits the remaining stages for that
// recipient.
type Probe interface {
	HasReplied(ctx context.Context, recipient string, since time.Time) (bool, error)
	Close() error
}

// IMAPProbe checks the owner's inbox over IMAP. It only searches
// envelopes; message bodies are never fetched.
type IMAPProbe struct {
	client *client.Client
}

// NewIMAPProbe connects and logs in to the configured IMAP server.
func NewIMAPProbe(cfg *config.IMAPConfig) (*IMAPProbe, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.User, cfg.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	logrus.Infof("Reply probe connected to %s as %s", cfg.Host, cfg.User)
	return &IMAPProbe{client: c}, nil
}

// HasReplied searches INBOX for any message from the recipient
// received after since.
func (p *IMAPProbe) HasReplied(ctx context.Context, recipient string, since time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := p.client.Select("INBOX", true); err != nil {
		return false, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	criteria.Header.Add("From", recipient)

	uids, err := p.client.Search(criteria)
	if err != nil {
		return false, fmt.Errorf("failed to search for replies from %s: %w", recipient, err)
	}

	return len(uids) > 0, nil
}

// Close logs out of the IMAP session.
func (p *IMAPProbe) Close() error {
	return p.client.Logout()
}
