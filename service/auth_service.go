package service

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/ports"
)

const (
	// LoginTokenTTL is the lifetime of an identity token
	LoginTokenTTL = 2 * time.Hour

	// RenewalWindow is the trailing part of the lifetime during which
	// verification demands a refresh. The boundary is inclusive: a token
	// with exactly RenewalWindow remaining already requires renewal.
	RenewalWindow = 10 * time.Minute
)

// AuthService owns the identity token lifecycle: credential login, per-
// request verification, rolling refresh and revocation on logout.
type AuthService struct {
	tokenizer ports.Tokenizer
	blacklist ports.Blacklist
	repo      ports.Repository
	eventPub  ports.EventPublisher
	logger    *log.Logger

	now func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	tokenizer ports.Tokenizer,
	blacklist ports.Blacklist,
	repo ports.Repository,
	eventPub ports.EventPublisher,
	logger *log.Logger,
) *AuthService {
	return &AuthService{
		tokenizer: tokenizer,
		blacklist: blacklist,
		repo:      repo,
		eventPub:  eventPub,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates an account with a hardened password, plus the default
// persona and its backing contact card.
func (s *AuthService) Register(ctx context.Context, u core.NewUser) (*core.User, error) {
	if _, err := s.repo.UserByUsername(ctx, u.Username); err == nil {
		return nil, core.ErrUsernameTaken
	} else if !errors.Is(err, core.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashed, err := hashPassword(u.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u.Password = hashed

	user, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}

	persona, err := s.repo.CreatePersona(ctx, core.DefaultPersona(user.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create default persona: %w", err)
	}

	if _, err := s.repo.CreateContact(ctx, core.DefaultContactFor(persona.ID)); err != nil {
		return nil, fmt.Errorf("failed to create default contact: %w", err)
	}

	return user, nil
}

// Login checks credentials and mints a fresh identity token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *core.User, error) {
	user, err := s.repo.UserByUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(prehash(password))); err != nil {
		return "", nil, core.ErrWrongPassword
	}

	token, err := s.Authorize(ctx, core.IdentityOf(user))
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// Verify validates a presented identity token: signature and expiry via
// the codec, then the revocation list, then the renewal window.
func (s *AuthService) Verify(ctx context.Context, token string) (*core.LoginClaims, error) {
	claims, err := s.verifyIgnoringRenewal(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt.Sub(s.now()) <= RenewalWindow {
		return nil, core.ErrRenewalRequired
	}

	return claims, nil
}

// verifyIgnoringRenewal is Verify without the renewal-window restriction.
// Revocation and hard expiry are still enforced.
func (s *AuthService) verifyIgnoringRenewal(ctx context.Context, token string) (*core.LoginClaims, error) {
	claims, err := s.tokenizer.TokenToLogin(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.Contains(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, core.ErrTokenRevoked
	}

	return claims, nil
}

// Authorize mints a fresh identity token. Pure function of the identity
// and the current time; the revocation list is untouched.
func (s *AuthService) Authorize(ctx context.Context, identity core.Identity) (string, error) {
	now := s.now()
	return s.tokenizer.LoginToToken(&core.LoginClaims{
		Username:  identity.Username,
		UserID:    identity.UserID,
		IssuedAt:  now,
		ExpiresAt: now.Add(LoginTokenTTL),
	})
}

// Reauthorize exchanges a still-valid token for a fresh one. The renewal
// window is deliberately ignored here (the window firing is the reason a
// client reauthorizes); revoked or genuinely expired tokens still fail.
func (s *AuthService) Reauthorize(ctx context.Context, token string) (string, error) {
	claims, err := s.verifyIgnoringRenewal(ctx, token)
	if err != nil {
		return "", err
	}

	return s.Authorize(ctx, core.Identity{Username: claims.Username, UserID: claims.UserID})
}

// Blacklist revokes a token until its natural expiry. Idempotent: revoking
// an already-revoked token is a harmless duplicate.
func (s *AuthService) Blacklist(ctx context.Context, token string) error {
	claims, err := s.tokenizer.TokenToLogin(token)
	if err != nil {
		return err
	}

	if err := s.blacklist.Insert(ctx, core.RevokedToken{
		ExpiresAt: claims.ExpiresAt,
		Token:     token,
	}); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}

	return nil
}

// IsBlacklisted reports whether a token has been revoked
func (s *AuthService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.blacklist.Contains(ctx, token)
}

// Logout revokes the presented token and announces the logout. Event
// publish failures are logged, not propagated: the revocation already
// happened, which is the part that matters.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokenizer.TokenToLogin(token)
	if err != nil {
		return err
	}

	if err := s.blacklist.Insert(ctx, core.RevokedToken{
		ExpiresAt: claims.ExpiresAt,
		Token:     token,
	}); err != nil {
		return fmt.Errorf("failed to record revocation: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, claims.Username, claims.UserID); err != nil {
		s.logger.Warn("failed to publish logout event", "username", claims.Username, "error", err)
	}

	return nil
}

// prehash applies the legacy client-compatible pre-hash: five rounds of
// SHA-512, base64 between rounds.
func prehash(password string) string {
	out := password
	for i := 0; i < 5; i++ {
		sum := sha512.Sum512([]byte(out))
		out = base64.StdEncoding.EncodeToString(sum[:])
	}
	return out
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(prehash(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

var _ ports.Verifier[*core.LoginClaims] = (*AuthService)(nil)
var _ ports.Renewable = (*AuthService)(nil)
