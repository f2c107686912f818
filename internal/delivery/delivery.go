package delivery

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Credential errors deserve a job-level warning because
// every following item will likely fail the same way.
const (
	KindTransient  = "transient"
	KindCredential = "credential"
)

// Error is a delivery failure with a coarse classification.
type Error struct {
	Kind string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCredential reports whether err is a credential-class delivery error.
func IsCredential(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == KindCredential
}

// Message is one outbound email.
type Message struct {
	FromName  string
	FromEmail string
	To        string
	Subject   string
	Body      string
}

// Deliverer hands a message to the transport and returns its message ID.
type Deliverer interface {
	Deliver(ctx context.Context, msg Message) (string, error)
	Close() error
}
