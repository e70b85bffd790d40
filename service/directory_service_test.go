package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calyx-labs/rolodex/core"
)

func TestAddContactsGrantsCreator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := registerAlice(t, f)

	created, err := f.directory.AddContacts(ctx, user.ID, []core.NewContact{
		{Name: "Carol"},
		{Name: "Dave"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	contacts, err := f.directory.Contacts(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestRemoveContactRequiresGrant(t *testing.T) {
	f, alice, bob, card := shareFixture(t)
	ctx := context.Background()

	err := f.directory.RemoveContact(ctx, bob.ID, card.Contact.ID)
	assert.ErrorIs(t, err, core.ErrNotOwner)

	require.NoError(t, f.repo.Grant(ctx, alice.ID, card.Contact.ID))
	require.NoError(t, f.directory.RemoveContact(ctx, alice.ID, card.Contact.ID))

	_, err = f.repo.ContactByID(ctx, card.Contact.ID)
	assert.ErrorIs(t, err, core.ErrContactNotFound)
}

func TestPersonasOfHidesPrivateFromOthers(t *testing.T) {
	f, alice, bob, _ := shareFixture(t)
	ctx := context.Background()

	_, err := f.directory.AddPersona(ctx, alice.ID, "work", false)
	require.NoError(t, err)
	_, err = f.directory.AddPersona(ctx, alice.ID, "secret", true)
	require.NoError(t, err)

	own, err := f.directory.PersonasOf(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, own, 3) // default + work + secret

	seen, err := f.directory.PersonasOf(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, seen, 2)
	for _, card := range seen {
		assert.False(t, card.Persona.Private)
	}
}

func TestPersonasOfUnknownUser(t *testing.T) {
	f := newFixture(t)
	user := registerAlice(t, f)

	_, err := f.directory.PersonasOf(context.Background(), user.ID, 9999)
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestAddPersonaCreatesBackingContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := registerAlice(t, f)

	card, err := f.directory.AddPersona(ctx, user.ID, "work", false)
	require.NoError(t, err)
	assert.Equal(t, "work", card.Persona.Name)
	require.NotNil(t, card.Contact.PersonaID)
	assert.Equal(t, card.Persona.ID, *card.Contact.PersonaID)
}

func TestInfoLifecycle(t *testing.T) {
	f, alice, bob, card := shareFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.Grant(ctx, alice.ID, card.Contact.ID))

	fields := map[string]string{"phone": "555-0100", "city": "Porto"}
	require.NoError(t, f.directory.PutInfo(ctx, alice.ID, card.Contact.ID, fields))

	got, err := f.directory.Info(ctx, alice.ID, card.Contact.ID)
	require.NoError(t, err)
	assert.Equal(t, fields, got)

	// Upsert overwrites in place.
	require.NoError(t, f.directory.PutInfo(ctx, alice.ID, card.Contact.ID, map[string]string{"city": "Lisbon"}))
	got, err = f.directory.Info(ctx, alice.ID, card.Contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", got["city"])

	require.NoError(t, f.directory.RemoveInfo(ctx, alice.ID, card.Contact.ID, []string{"phone"}))
	got, err = f.directory.Info(ctx, alice.ID, card.Contact.ID)
	require.NoError(t, err)
	assert.NotContains(t, got, "phone")

	// A user without a grant sees nothing and writes nothing.
	_, err = f.directory.Info(ctx, bob.ID, card.Contact.ID)
	assert.ErrorIs(t, err, core.ErrNotOwner)
	err = f.directory.PutInfo(ctx, bob.ID, card.Contact.ID, map[string]string{"x": "y"})
	assert.ErrorIs(t, err, core.ErrNotOwner)
}
