package service

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/ports"
)

// GrantTokenTTL is the lifetime of a capability token. Capability tokens
// are never explicitly revoked; the lifetime is their only bound.
const GrantTokenTTL = 24 * time.Hour

// PersonaShareService mints and redeems persona capability tokens. A
// redeemed token grants the redeemer access to the contact card backing
// the persona.
type PersonaShareService struct {
	tokenizer ports.Tokenizer
	repo      ports.Repository
	eventPub  ports.EventPublisher
	logger    *log.Logger

	now func() time.Time
}

// NewPersonaShareService creates a new persona sharing service
func NewPersonaShareService(
	tokenizer ports.Tokenizer,
	repo ports.Repository,
	eventPub ports.EventPublisher,
	logger *log.Logger,
) *PersonaShareService {
	return &PersonaShareService{
		tokenizer: tokenizer,
		repo:      repo,
		eventPub:  eventPub,
		logger:    logger,
		now:       time.Now,
	}
}

// Share mints a capability token for a persona the caller owns
func (s *PersonaShareService) Share(ctx context.Context, ownerID, personaID int64) (string, error) {
	persona, err := s.repo.PersonaByID(ctx, personaID)
	if err != nil {
		return "", err
	}
	if persona.UserID != ownerID {
		return "", core.ErrNotOwner
	}

	return s.Authorize(ctx, personaID)
}

// Authorize mints a capability token for the persona id
func (s *PersonaShareService) Authorize(ctx context.Context, personaID int64) (string, error) {
	now := s.now()
	return s.tokenizer.PersonaGrantToToken(&core.GrantClaims{
		ResourceID: personaID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(GrantTokenTTL),
	})
}

// Verify validates a persona capability token. There is no revocation
// check: capability tokens are bounded purely by their lifetime.
func (s *PersonaShareService) Verify(ctx context.Context, token string) (*core.GrantClaims, error) {
	return s.tokenizer.TokenToPersonaGrant(token)
}

// Redeem resolves the persona against the current store and grants the
// redeeming user access to its contact card. A persona deleted after the
// token was minted fails resolution here. Redeeming twice performs the
// grant twice; deduplication is the repository's concern.
func (s *PersonaShareService) Redeem(ctx context.Context, token string, user core.Identity) error {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return err
	}

	persona, err := s.repo.PersonaByID(ctx, claims.ResourceID)
	if err != nil {
		return err
	}

	contact, err := s.repo.ContactOfPersona(ctx, persona.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Grant(ctx, user.UserID, contact.ID); err != nil {
		return err
	}

	if err := s.eventPub.PublishGrant(ctx, user.UserID, contact.ID); err != nil {
		s.logger.Warn("failed to publish grant event", "user_id", user.UserID, "error", err)
	}

	return nil
}

// Blacklist is a permanent no-op: persona capability tokens cannot be
// revoked, only outlived.
func (s *PersonaShareService) Blacklist(ctx context.Context, token string) error {
	return nil
}

// IsBlacklisted always reports false for persona capability tokens
func (s *PersonaShareService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return false, nil
}

// ContactShareService mints and redeems contact capability tokens. Unlike
// persona tokens, these reference the contact card directly.
type ContactShareService struct {
	tokenizer ports.Tokenizer
	repo      ports.Repository
	eventPub  ports.EventPublisher
	logger    *log.Logger

	now func() time.Time
}

// NewContactShareService creates a new contact sharing service
func NewContactShareService(
	tokenizer ports.Tokenizer,
	repo ports.Repository,
	eventPub ports.EventPublisher,
	logger *log.Logger,
) *ContactShareService {
	return &ContactShareService{
		tokenizer: tokenizer,
		repo:      repo,
		eventPub:  eventPub,
		logger:    logger,
		now:       time.Now,
	}
}

// Share mints a capability token for a contact the caller holds a grant on
func (s *ContactShareService) Share(ctx context.Context, sharerID, contactID int64) (string, error) {
	if _, err := s.repo.ContactByID(ctx, contactID); err != nil {
		return "", err
	}

	held, err := s.repo.HasGrant(ctx, sharerID, contactID)
	if err != nil {
		return "", err
	}
	if !held {
		return "", core.ErrNotOwner
	}

	return s.Authorize(ctx, contactID)
}

// Authorize mints a capability token for the contact id
func (s *ContactShareService) Authorize(ctx context.Context, contactID int64) (string, error) {
	now := s.now()
	return s.tokenizer.ContactGrantToToken(&core.GrantClaims{
		ResourceID: contactID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(GrantTokenTTL),
	})
}

// Verify validates a contact capability token; no revocation check.
func (s *ContactShareService) Verify(ctx context.Context, token string) (*core.GrantClaims, error) {
	return s.tokenizer.TokenToContactGrant(token)
}

// Redeem resolves the contact and grants the redeeming user access to it
func (s *ContactShareService) Redeem(ctx context.Context, token string, user core.Identity) error {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return err
	}

	contact, err := s.repo.ContactByID(ctx, claims.ResourceID)
	if err != nil {
		return err
	}

	if err := s.repo.Grant(ctx, user.UserID, contact.ID); err != nil {
		return err
	}

	if err := s.eventPub.PublishGrant(ctx, user.UserID, contact.ID); err != nil {
		s.logger.Warn("failed to publish grant event", "user_id", user.UserID, "error", err)
	}

	return nil
}

// Blacklist is a permanent no-op: contact capability tokens cannot be
// revoked, only outlived.
func (s *ContactShareService) Blacklist(ctx context.Context, token string) error {
	return nil
}

// IsBlacklisted always reports false for contact capability tokens
func (s *ContactShareService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return false, nil
}

var _ ports.Verifier[*core.GrantClaims] = (*PersonaShareService)(nil)
var _ ports.Verifier[*core.GrantClaims] = (*ContactShareService)(nil)
