package core

import "errors"

var (
	// ErrMalformedToken is returned when a token cannot be parsed at all
	ErrMalformedToken = errors.New("malformed token")

	// ErrInvalidSignature is returned when the token MAC does not verify
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenExpired is returned when a token's expiry has elapsed
	ErrTokenExpired = errors.New("token has expired")

	// ErrRenewalRequired is returned when an identity token is still valid
	// but inside its renewal window and must be reauthorized
	ErrRenewalRequired = errors.New("token renewal required")

	// ErrTokenRevoked is returned when a token has been blacklisted
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrWrongPassword is returned when credentials do not match
	ErrWrongPassword = errors.New("password is incorrect")

	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrUserNotFound is returned when no account matches the lookup
	ErrUserNotFound = errors.New("user not found")

	// ErrPersonaNotFound is returned when a persona id resolves to nothing
	ErrPersonaNotFound = errors.New("persona not found")

	// ErrContactNotFound is returned when a contact id resolves to nothing
	ErrContactNotFound = errors.New("contact not found")

	// ErrNotOwner is returned when a user acts on a resource they do not own
	ErrNotOwner = errors.New("resource is not owned by this user")
)

// IsAuthError reports whether err belongs to the token error taxonomy. The
// transport layer collapses every member to a single unauthorized response;
// the distinction only drives logging and renew-versus-relogin behavior.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrRenewalRequired) ||
		errors.Is(err, ErrTokenRevoked)
}
