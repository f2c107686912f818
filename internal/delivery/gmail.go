package delivery

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"outreach-engine-go/internal/config"
)

// GmailSender delivers messages through the Gmail API.
type GmailSender struct {
	service   *gmail.Service
	userEmail string
}

// NewGmailSender creates a new Gmail API sender
func NewGmailSender(cfg *config.GmailConfig) (*GmailSender, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}

	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailSender{
		service:   service,
		userEmail: cfg.UserEmail,
	}, nil
}

// Deliver sends one message, retrying transient failures.
func (s *GmailSender) Deliver(ctx context.Context, msg Message) (string, error) {
	raw := s.buildRawMessage(msg)
	encoded := base64.URLEncoding.EncodeToString([]byte(raw))
	message := &gmail.Message{Raw: encoded}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		sent, err := s.service.Users.Messages.Send(s.userEmail, message).Context(ctx).Do()
		if err == nil {
			logrus.Debugf("Delivered message %s to %s", sent.Id, msg.To)
			return sent.Id, nil
		}
		lastErr = err
		if classify(err) == KindCredential {
			return "", &Error{Kind: KindCredential, Err: err}
		}
		if attempt < 3 {
			logrus.Warnf("Delivery attempt %d to %s failed, retrying: %v", attempt, msg.To, err)
			select {
			case <-ctx.Done():
				return "", &Error{Kind: KindTransient, Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return "", &Error{Kind: classify(lastErr), Err: lastErr}
}

// Close releases transport resources. The Gmail client has none.
func (s *GmailSender) Close() error {
	return nil
}

func (s *GmailSender) buildRawMessage(msg Message) string {
	var b strings.Builder
	if msg.FromName != "" {
		fmt.Fprintf(&b, "From: %s <%s>\r\n", msg.FromName, msg.FromEmail)
	} else {
		fmt.Fprintf(&b, "From: %s\r\n", msg.FromEmail)
	}
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}

func classify(err error) string {
	if gerr, ok := err.(*googleapi.Error); ok {
		if gerr.Code == 401 || gerr.Code == 403 {
			return KindCredential
		}
	}
	if err != nil && strings.Contains(err.Error(), "invalid_grant") {
		return KindCredential
	}
	return KindTransient
}
