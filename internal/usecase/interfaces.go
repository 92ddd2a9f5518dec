package usecase

import (
	"context"

	"goldmarket/internal/domain/entity"
)

// Notifier delivers a push notification to every device of a user. It never
// fails the caller; delivery problems are logged by the implementation.
type Notifier interface {
	NotifyUser(ctx context.Context, eventID, userID string, notification entity.Notification) DispatchReport
}
