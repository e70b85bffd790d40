package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/calyx-labs/rolodex/ports"
)

const TopicLogout = "rolodex.auth.logout"
const TopicGrant = "rolodex.contacts.grant"

// LogoutEvent is published when a session token is revoked
type LogoutEvent struct {
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
}

// GrantEvent is published when a capability token redemption grants a user
// access to a contact card
type GrantEvent struct {
	UserID    int64 `json:"user_id"`
	ContactID int64 `json:"contact_id"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill-backed publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, username string, userID int64) error {
	return p.publish(TopicLogout, LogoutEvent{Username: username, UserID: userID})
}

// PublishGrant publishes a grant event
func (p *WatermillPublisher) PublishGrant(ctx context.Context, userID, contactID int64) error {
	return p.publish(TopicGrant, GrantEvent{UserID: userID, ContactID: contactID})
}

func (p *WatermillPublisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
