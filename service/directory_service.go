package service

import (
	"context"
	"fmt"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/ports"
)

// DirectoryService is the contacts/personas/info layer. It gates every
// mutation on the caller's grant relation before touching the repository.
type DirectoryService struct {
	repo ports.Repository
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(repo ports.Repository) *DirectoryService {
	return &DirectoryService{repo: repo}
}

// Contacts lists every contact card the user holds a grant for
func (s *DirectoryService) Contacts(ctx context.Context, userID int64) ([]core.Contact, error) {
	return s.repo.ContactsOfUser(ctx, userID)
}

// AddContacts creates contact cards and grants them to their creator
func (s *DirectoryService) AddContacts(ctx context.Context, userID int64, entries []core.NewContact) ([]core.Contact, error) {
	created := make([]core.Contact, 0, len(entries))
	for _, entry := range entries {
		contact, err := s.repo.CreateContact(ctx, entry)
		if err != nil {
			return nil, fmt.Errorf("failed to create contact: %w", err)
		}
		if err := s.repo.Grant(ctx, userID, contact.ID); err != nil {
			return nil, err
		}
		created = append(created, *contact)
	}
	return created, nil
}

// RemoveContact deletes a contact card the user holds a grant for
func (s *DirectoryService) RemoveContact(ctx context.Context, userID, contactID int64) error {
	if err := s.requireGrant(ctx, userID, contactID); err != nil {
		return err
	}
	return s.repo.DeleteContact(ctx, contactID)
}

// PersonasOf lists the personas of ownerID as seen by viewerID. Private
// personas are visible to their owner only.
func (s *DirectoryService) PersonasOf(ctx context.Context, viewerID, ownerID int64) ([]core.PersonaCard, error) {
	if _, err := s.repo.UserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	cards, err := s.repo.PersonasOfUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if viewerID == ownerID {
		return cards, nil
	}

	visible := cards[:0]
	for _, card := range cards {
		if !card.Persona.Private {
			visible = append(visible, card)
		}
	}
	return visible, nil
}

// AddPersona creates a persona with its backing contact card
func (s *DirectoryService) AddPersona(ctx context.Context, userID int64, name string, private bool) (*core.PersonaCard, error) {
	persona, err := s.repo.CreatePersona(ctx, core.NewPersona{Name: name, Private: private, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to create persona: %w", err)
	}

	contact, err := s.repo.CreateContact(ctx, core.DefaultContactFor(persona.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create persona contact: %w", err)
	}

	return &core.PersonaCard{Contact: *contact, Persona: *persona}, nil
}

// Info returns the free-form fields of a contact the user can access
func (s *DirectoryService) Info(ctx context.Context, userID, contactID int64) (map[string]string, error) {
	if err := s.requireGrant(ctx, userID, contactID); err != nil {
		return nil, err
	}
	return s.repo.InfoOf(ctx, contactID)
}

// PutInfo writes free-form fields on a contact the user can access
func (s *DirectoryService) PutInfo(ctx context.Context, userID, contactID int64, fields map[string]string) error {
	if err := s.requireGrant(ctx, userID, contactID); err != nil {
		return err
	}
	for key, value := range fields {
		if err := s.repo.UpsertInfo(ctx, contactID, key, value); err != nil {
			return err
		}
	}
	return nil
}

// RemoveInfo deletes the named fields from a contact the user can access
func (s *DirectoryService) RemoveInfo(ctx context.Context, userID, contactID int64, keys []string) error {
	if err := s.requireGrant(ctx, userID, contactID); err != nil {
		return err
	}
	return s.repo.DeleteInfo(ctx, contactID, keys)
}

func (s *DirectoryService) requireGrant(ctx context.Context, userID, contactID int64) error {
	if _, err := s.repo.ContactByID(ctx, contactID); err != nil {
		return err
	}

	held, err := s.repo.HasGrant(ctx, userID, contactID)
	if err != nil {
		return err
	}
	if !held {
		return core.ErrNotOwner
	}
	return nil
}
