package tokenizer

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/ports"
)

const AudienceLogin = "rolodex:login"
const AudiencePersonaGrant = "rolodex:grant:persona"
const AudienceContactGrant = "rolodex:grant:contact"

// JWTTokenizer implements the Tokenizer interface with HS256-signed JWTs.
// The key is symmetric and server-side only; possession of a token proves
// nothing about the key.
type JWTTokenizer struct {
	key []byte
}

// NewJWTTokenizer creates a tokenizer around the given signing key
func NewJWTTokenizer(key []byte) ports.Tokenizer {
	return &JWTTokenizer{key: key}
}

// LoginToToken signs an identity claims payload into a token string
func (j *JWTTokenizer) LoginToToken(claims *core.LoginClaims) (string, error) {
	payload := loginClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Username,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
			Audience:  jwt.ClaimStrings{AudienceLogin},
		},
		Username: claims.Username,
		UserID:   claims.UserID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign login token: %w", err)
	}

	return signed, nil
}

// TokenToLogin verifies a token string and extracts the identity claims.
// The MAC is checked before any embedded field, including expiry, is
// trusted.
func (j *JWTTokenizer) TokenToLogin(tokenStr string) (*core.LoginClaims, error) {
	claims := &loginClaims{}
	if err := j.parse(tokenStr, claims, AudienceLogin); err != nil {
		return nil, err
	}

	return &core.LoginClaims{
		Username:  claims.Username,
		UserID:    claims.UserID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// PersonaGrantToToken signs a persona capability payload into a token
func (j *JWTTokenizer) PersonaGrantToToken(claims *core.GrantClaims) (string, error) {
	payload := personaClaims{
		RegisteredClaims: registeredGrant(claims, AudiencePersonaGrant),
		PersonaID:        claims.ResourceID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign persona grant token: %w", err)
	}

	return signed, nil
}

// TokenToPersonaGrant verifies a persona capability token
func (j *JWTTokenizer) TokenToPersonaGrant(tokenStr string) (*core.GrantClaims, error) {
	claims := &personaClaims{}
	if err := j.parse(tokenStr, claims, AudiencePersonaGrant); err != nil {
		return nil, err
	}

	return &core.GrantClaims{
		ResourceID: claims.PersonaID,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

// ContactGrantToToken signs a contact capability payload into a token
func (j *JWTTokenizer) ContactGrantToToken(claims *core.GrantClaims) (string, error) {
	payload := contactClaims{
		RegisteredClaims: registeredGrant(claims, AudienceContactGrant),
		ContactID:        claims.ResourceID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign contact grant token: %w", err)
	}

	return signed, nil
}

// TokenToContactGrant verifies a contact capability token
func (j *JWTTokenizer) TokenToContactGrant(tokenStr string) (*core.GrantClaims, error) {
	claims := &contactClaims{}
	if err := j.parse(tokenStr, claims, AudienceContactGrant); err != nil {
		return nil, err
	}

	return &core.GrantClaims{
		ResourceID: claims.ContactID,
		IssuedAt:   claims.IssuedAt.Time,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}

func registeredGrant(claims *core.GrantClaims, audience string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		Audience:  jwt.ClaimStrings{audience},
	}
}

// parse verifies the signature and the standard temporal claims, mapping
// library failures onto the core error taxonomy.
func (j *JWTTokenizer) parse(tokenStr string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.key, nil
	}, jwt.WithAudience(audience))

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return core.ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", core.ErrMalformedToken, err)
	default:
		return fmt.Errorf("%w: %v", core.ErrMalformedToken, err)
	}

	if !token.Valid {
		return core.ErrMalformedToken
	}

	return nil
}
