// Package delivery forwards assembled payloads to the downstream automation
// webhook and, when configured, to Kafka.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"leadpipe/pkg/model"
)

// Sender delivers a payload to one destination.
type Sender interface {
	Send(ctx context.Context, payload *model.Payload) error
	Name() string
}

// DeliveryError describes a failed delivery attempt.
type DeliveryError struct {
	Sender     string
	StatusCode int
	Body       string
	Err        error
	Temporary  bool
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s delivery failed: %v", e.Sender, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s delivery failed: status %d: %s", e.Sender, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s delivery failed", e.Sender)
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether another attempt could succeed. Errors that are
// not DeliveryErrors are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Temporary
	}
	return true
}
