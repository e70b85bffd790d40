package ports

import (
	"context"

	"github.com/calyx-labs/rolodex/core"
)

// Repository is the relational store behind users, personas, contacts and
// their free-form info fields. Lookups that match nothing return the
// corresponding core not-found sentinel.
type Repository interface {
	CreateUser(ctx context.Context, u core.NewUser) (*core.User, error)
	UserByUsername(ctx context.Context, username string) (*core.User, error)
	UserByID(ctx context.Context, id int64) (*core.User, error)

	CreatePersona(ctx context.Context, p core.NewPersona) (*core.Persona, error)
	PersonaByID(ctx context.Context, id int64) (*core.Persona, error)
	PersonasOfUser(ctx context.Context, userID int64) ([]core.PersonaCard, error)

	CreateContact(ctx context.Context, c core.NewContact) (*core.Contact, error)
	ContactByID(ctx context.Context, id int64) (*core.Contact, error)
	ContactOfPersona(ctx context.Context, personaID int64) (*core.Contact, error)
	ContactsOfUser(ctx context.Context, userID int64) ([]core.Contact, error)
	DeleteContact(ctx context.Context, id int64) error

	// Grant relation between users and contact cards. Grant is idempotent
	// at this layer: granting an already-granted pair is a no-op.
	Grant(ctx context.Context, userID, contactID int64) error
	HasGrant(ctx context.Context, userID, contactID int64) (bool, error)

	InfoOf(ctx context.Context, contactID int64) (map[string]string, error)
	UpsertInfo(ctx context.Context, contactID int64, key, value string) error
	DeleteInfo(ctx context.Context, contactID int64, keys []string) error
}
