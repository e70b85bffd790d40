package core

// Persona is a face a user presents to others. Every persona has a backing
// contact card; private personas are hidden from other users' listings.
type Persona struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Private bool   `json:"private"`
	UserID  int64  `json:"user_id"`
}

// NewPersona carries the fields of a persona being created.
type NewPersona struct {
	Name    string `json:"name"`
	Private bool   `json:"private"`
	UserID  int64  `json:"user_id"`
}

// DefaultPersona is the persona every account starts with.
func DefaultPersona(userID int64) NewPersona {
	return NewPersona{Name: "default", Private: false, UserID: userID}
}

// PersonaCard pairs a persona with its backing contact card.
type PersonaCard struct {
	Contact Contact `json:"contact"`
	Persona Persona `json:"persona"`
}
