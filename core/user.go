package core

// User is a registered account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"-"` // bcrypt hash, never serialized
}

// NewUser carries the fields of an account being registered. Password holds
// the client-side pre-hash on arrival and the bcrypt hash after hardening.
type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is the subject a fresh login token is minted for.
type Identity struct {
	Username string
	UserID   int64
}

// IdentityOf extracts the token subject from an account row.
func IdentityOf(u *User) Identity {
	return Identity{Username: u.Username, UserID: u.ID}
}
