package core

// Contact is a contact card. PersonaID is set when the card backs one of a
// user's personas and nil for plain address-book entries.
type Contact struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Birthday  string `json:"birthday,omitempty"` // ISO date, optional
	PersonaID *int64 `json:"persona_id,omitempty"`
}

// NewContact carries the fields of a contact card being created.
type NewContact struct {
	Name      string `json:"name"`
	Birthday  string `json:"birthday,omitempty"`
	PersonaID *int64 `json:"persona_id,omitempty"`
}

// DefaultContactFor builds the blank card that backs a new persona.
func DefaultContactFor(personaID int64) NewContact {
	return NewContact{Name: "No Name", PersonaID: &personaID}
}
