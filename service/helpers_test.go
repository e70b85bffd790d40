package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/calyx-labs/rolodex/adapters/tokenizer"
	"github.com/calyx-labs/rolodex/core"
	"github.com/calyx-labs/rolodex/ports"
)

var testKey = []byte("test-signing-key")

// fakeRepo is a map-backed Repository for service tests
type fakeRepo struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*core.User
	personas map[int64]*core.Persona
	contacts map[int64]*core.Contact
	grants   map[[2]int64]bool
	info     map[int64]map[string]string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:    make(map[int64]*core.User),
		personas: make(map[int64]*core.Persona),
		contacts: make(map[int64]*core.Contact),
		grants:   make(map[[2]int64]bool),
		info:     make(map[int64]map[string]string),
	}
}

func (r *fakeRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *fakeRepo) CreateUser(ctx context.Context, u core.NewUser) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return nil, core.ErrUsernameTaken
		}
	}
	user := &core.User{ID: r.id(), Username: u.Username, Email: u.Email, Password: u.Password}
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeRepo) UserByUsername(ctx context.Context, username string) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (r *fakeRepo) UserByID(ctx context.Context, id int64) (*core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeRepo) CreatePersona(ctx context.Context, p core.NewPersona) (*core.Persona, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	persona := &core.Persona{ID: r.id(), Name: p.Name, Private: p.Private, UserID: p.UserID}
	r.personas[persona.ID] = persona
	return persona, nil
}

func (r *fakeRepo) PersonaByID(ctx context.Context, id int64) (*core.Persona, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.personas[id]
	if !ok {
		return nil, core.ErrPersonaNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeRepo) PersonasOfUser(ctx context.Context, userID int64) ([]core.PersonaCard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cards []core.PersonaCard
	for _, p := range r.personas {
		if p.UserID != userID {
			continue
		}
		card := core.PersonaCard{Persona: *p}
		for _, c := range r.contacts {
			if c.PersonaID != nil && *c.PersonaID == p.ID {
				card.Contact = *c
				break
			}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (r *fakeRepo) CreateContact(ctx context.Context, c core.NewContact) (*core.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contact := &core.Contact{ID: r.id(), Name: c.Name, Birthday: c.Birthday, PersonaID: c.PersonaID}
	r.contacts[contact.ID] = contact
	return contact, nil
}

func (r *fakeRepo) ContactByID(ctx context.Context, id int64) (*core.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok {
		return nil, core.ErrContactNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *fakeRepo) ContactOfPersona(ctx context.Context, personaID int64) (*core.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.PersonaID != nil && *c.PersonaID == personaID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, core.ErrContactNotFound
}

func (r *fakeRepo) ContactsOfUser(ctx context.Context, userID int64) ([]core.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var contacts []core.Contact
	for key := range r.grants {
		if key[0] != userID {
			continue
		}
		if c, ok := r.contacts[key[1]]; ok {
			contacts = append(contacts, *c)
		}
	}
	return contacts, nil
}

func (r *fakeRepo) DeleteContact(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[id]; !ok {
		return core.ErrContactNotFound
	}
	delete(r.contacts, id)
	return nil
}

func (r *fakeRepo) Grant(ctx context.Context, userID, contactID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[[2]int64{userID, contactID}] = true
	return nil
}

func (r *fakeRepo) HasGrant(ctx context.Context, userID, contactID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grants[[2]int64{userID, contactID}], nil
}

func (r *fakeRepo) InfoOf(ctx context.Context, contactID int64) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fields := make(map[string]string)
	for k, v := range r.info[contactID] {
		fields[k] = v
	}
	return fields, nil
}

func (r *fakeRepo) UpsertInfo(ctx context.Context, contactID int64, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.info[contactID] == nil {
		r.info[contactID] = make(map[string]string)
	}
	r.info[contactID][key] = value
	return nil
}

func (r *fakeRepo) DeleteInfo(ctx context.Context, contactID int64, keys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.info[contactID], k)
	}
	return nil
}

var _ ports.Repository = (*fakeRepo)(nil)

// fakeBlacklist is a map-backed Blacklist for service tests
type fakeBlacklist struct {
	mu      sync.Mutex
	entries map[string]core.RevokedToken
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{entries: make(map[string]core.RevokedToken)}
}

func (b *fakeBlacklist) Insert(ctx context.Context, entry core.RevokedToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[entry.Token] = entry
	return nil
}

func (b *fakeBlacklist) Contains(ctx context.Context, rawToken string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.entries[rawToken]
	return ok, nil
}

var _ ports.Blacklist = (*fakeBlacklist)(nil)

// fakePublisher records published events
type fakePublisher struct {
	mu      sync.Mutex
	logouts []string
	grants  [][2]int64
}

func (p *fakePublisher) PublishLogout(ctx context.Context, username string, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, username)
	return nil
}

func (p *fakePublisher) PublishGrant(ctx context.Context, userID, contactID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grants = append(p.grants, [2]int64{userID, contactID})
	return nil
}

var _ ports.EventPublisher = (*fakePublisher)(nil)

type fixture struct {
	repo      *fakeRepo
	blacklist *fakeBlacklist
	events    *fakePublisher
	auth      *AuthService
	personas  *PersonaShareService
	contacts  *ContactShareService
	directory *DirectoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newFakeRepo()
	bl := newFakeBlacklist()
	events := &fakePublisher{}
	codec := tokenizer.NewJWTTokenizer(testKey)
	logger := log.New(io.Discard)

	return &fixture{
		repo:      repo,
		blacklist: bl,
		events:    events,
		auth:      NewAuthService(codec, bl, repo, events, logger),
		personas:  NewPersonaShareService(codec, repo, events, logger),
		contacts:  NewContactShareService(codec, repo, events, logger),
		directory: NewDirectoryService(repo),
	}
}

// freeze pins a service clock to a whole second so it lines up with the
// second-precision timestamps inside tokens.
func freeze() (time.Time, func() time.Time) {
	now := time.Unix(time.Now().Unix(), 0)
	return now, func() time.Time { return now }
}
