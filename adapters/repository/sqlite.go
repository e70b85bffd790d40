package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email    TEXT NOT NULL,
	password TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS personas (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	name    TEXT NOT NULL,
	private INTEGER NOT NULL DEFAULT 0,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS contacts (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL,
	birthday TEXT,
	persona  INTEGER REFERENCES personas(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS users_contacts (
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	contact_id INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, contact_id)
);

CREATE TABLE IF NOT EXISTS info (
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	contact_id INTEGER NOT NULL REFERENCES contacts(id) ON DELETE CASCADE,
	PRIMARY KEY (key, contact_id)
);
`

// SQLiteRepository implements the Repository interface on a SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if necessary) the database at path
// and bootstraps the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pragmas and :memory: databases are per-connection in SQLite, so the
	// pool is pinned to a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the underlying connection pool
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// CreateUser inserts a new account. The username must be unused.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.NewUser) (*core.User, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password) VALUES (?, ?, ?)",
		u.Username, u.Email, u.Password)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, core.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted user id: %w", err)
	}

	return &core.User{ID: id, Username: u.Username, Email: u.Email, Password: u.Password}, nil
}

// UserByUsername looks up an account by its unique username
func (r *SQLiteRepository) UserByUsername(ctx context.Context, username string) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password FROM users WHERE username = ?", username))
}

// UserByID looks up an account by id
func (r *SQLiteRepository) UserByID(ctx context.Context, id int64) (*core.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password FROM users WHERE id = ?", id))
}

func (r *SQLiteRepository) scanUser(row *sql.Row) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// CreatePersona inserts a new persona
func (r *SQLiteRepository) CreatePersona(ctx context.Context, p core.NewPersona) (*core.Persona, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO personas (name, private, user_id) VALUES (?, ?, ?)",
		p.Name, p.Private, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert persona: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted persona id: %w", err)
	}

	return &core.Persona{ID: id, Name: p.Name, Private: p.Private, UserID: p.UserID}, nil
}

// PersonaByID looks up a persona by id
func (r *SQLiteRepository) PersonaByID(ctx context.Context, id int64) (*core.Persona, error) {
	var p core.Persona
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, private, user_id FROM personas WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &p.Private, &p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrPersonaNotFound
		}
		return nil, fmt.Errorf("failed to query persona: %w", err)
	}
	return &p, nil
}

// PersonasOfUser returns every persona of a user with its contact card
func (r *SQLiteRepository) PersonasOfUser(ctx context.Context, userID int64) ([]core.PersonaCard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(c.birthday, ''), c.persona,
		       p.id, p.name, p.private, p.user_id
		FROM contacts c
		JOIN personas p ON c.persona = p.id
		WHERE p.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query personas: %w", err)
	}
	defer rows.Close()

	var cards []core.PersonaCard
	for rows.Next() {
		var card core.PersonaCard
		if err := rows.Scan(
			&card.Contact.ID, &card.Contact.Name, &card.Contact.Birthday, &card.Contact.PersonaID,
			&card.Persona.ID, &card.Persona.Name, &card.Persona.Private, &card.Persona.UserID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan persona row: %w", err)
		}
		cards = append(cards, card)
	}

	return cards, rows.Err()
}

// CreateContact inserts a new contact card
func (r *SQLiteRepository) CreateContact(ctx context.Context, c core.NewContact) (*core.Contact, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO contacts (name, birthday, persona) VALUES (?, NULLIF(?, ''), ?)",
		c.Name, c.Birthday, c.PersonaID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted contact id: %w", err)
	}

	return &core.Contact{ID: id, Name: c.Name, Birthday: c.Birthday, PersonaID: c.PersonaID}, nil
}

// ContactByID looks up a contact card by id
func (r *SQLiteRepository) ContactByID(ctx context.Context, id int64) (*core.Contact, error) {
	return r.scanContact(r.db.QueryRowContext(ctx,
		"SELECT id, name, COALESCE(birthday, ''), persona FROM contacts WHERE id = ?", id))
}

// ContactOfPersona resolves the contact card backing a persona
func (r *SQLiteRepository) ContactOfPersona(ctx context.Context, personaID int64) (*core.Contact, error) {
	return r.scanContact(r.db.QueryRowContext(ctx,
		"SELECT id, name, COALESCE(birthday, ''), persona FROM contacts WHERE persona = ?", personaID))
}

func (r *SQLiteRepository) scanContact(row *sql.Row) (*core.Contact, error) {
	var c core.Contact
	if err := row.Scan(&c.ID, &c.Name, &c.Birthday, &c.PersonaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to query contact: %w", err)
	}
	return &c, nil
}

// ContactsOfUser returns every contact card the user holds a grant for
func (r *SQLiteRepository) ContactsOfUser(ctx context.Context, userID int64) ([]core.Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(c.birthday, ''), c.persona
		FROM users_contacts uc
		JOIN contacts c ON uc.contact_id = c.id
		WHERE uc.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []core.Contact
	for rows.Next() {
		var c core.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Birthday, &c.PersonaID); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// DeleteContact removes a contact card
func (r *SQLiteRepository) DeleteContact(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM contacts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrContactNotFound
	}

	return nil
}

// Grant registers the user-contact relation. Granting an existing pair is
// a no-op.
func (r *SQLiteRepository) Grant(ctx context.Context, userID, contactID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users_contacts (user_id, contact_id) VALUES (?, ?)",
		userID, contactID)
	if err != nil {
		return fmt.Errorf("failed to register grant: %w", err)
	}
	return nil
}

// HasGrant reports whether the user holds a grant for the contact
func (r *SQLiteRepository) HasGrant(ctx context.Context, userID, contactID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users_contacts WHERE user_id = ? AND contact_id = ?",
		userID, contactID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query grant: %w", err)
	}
	return n > 0, nil
}

// InfoOf returns the free-form key/value fields of a contact
func (r *SQLiteRepository) InfoOf(ctx context.Context, contactID int64) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT key, value FROM info WHERE contact_id = ?", contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to query info: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan info row: %w", err)
		}
		fields[k] = v
	}

	return fields, rows.Err()
}

// UpsertInfo writes one key/value field of a contact
func (r *SQLiteRepository) UpsertInfo(ctx context.Context, contactID int64, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO info (key, value, contact_id) VALUES (?, ?, ?)
		ON CONFLICT (key, contact_id) DO UPDATE SET value = excluded.value`,
		key, value, contactID)
	if err != nil {
		return fmt.Errorf("failed to upsert info: %w", err)
	}
	return nil
}

// DeleteInfo removes the named keys from a contact's info fields
func (r *SQLiteRepository) DeleteInfo(ctx context.Context, contactID int64, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(keys)-1) + "?"
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, contactID)
	for _, k := range keys {
		args = append(args, k)
	}

	_, err := r.db.ExecContext(ctx,
		"DELETE FROM info WHERE contact_id = ? AND key IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("failed to delete info: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.Repository = (*SQLiteRepository)(nil)
