package ports

import "context"

// EventPublisher notifies other instances about auth state changes.
type EventPublisher interface {
	PublishLogout(ctx context.Context, username string, userID int64) error
	PublishGrant(ctx context.Context, userID, contactID int64) error
}
