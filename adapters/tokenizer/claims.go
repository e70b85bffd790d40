package tokenizer

import "github.com/golang-jwt/jwt/v5"

// loginClaims combines standard claims with the identity payload
type loginClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
}

// personaClaims carries a bare persona reference
type personaClaims struct {
	jwt.RegisteredClaims
	PersonaID int64 `json:"persona_id"`
}

// contactClaims carries a bare contact reference
type contactClaims struct {
	jwt.RegisteredClaims
	ContactID int64 `json:"contact_id"`
}
