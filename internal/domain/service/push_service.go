package service

import (
	"context"

	"goldmarket/internal/domain/entity"
)

// DeliveryResult is the transport's verdict for one token of a multicast.
type DeliveryResult struct {
	Token     string
	MessageID string
	Err       error
	// Permanent is set when the transport will never accept this token
	// again (unregistered, wrong sender). Only these get pruned.
	Permanent bool
}

func (r DeliveryResult) Success() bool {
	return r.Err == nil
}

// PushTransport submits one notification to many tokens as a single batch.
// A non-nil error means the whole batch failed and results are meaningless.
// Results are returned in the same order as tokens.
type PushTransport interface {
	SendMulticast(ctx context.Context, tokens []string, notification entity.Notification) ([]DeliveryResult, error)
}
