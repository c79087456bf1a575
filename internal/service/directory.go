package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"trustio-wallet/internal/domain"
	"trustio-wallet/internal/repository"
)

// Directory is the in-memory account directory and session, written through
// to a DocumentStore. The session is held as an email and always resolves to
// the directory's copy of that user.
type Directory struct {
	store  repository.DocumentStore
	logger *logrus.Logger
	locks  *accountLocks

	mu           sync.RWMutex
	users        []domain.User
	index        map[string]int
	sessionEmail string
	theme        domain.Theme
}

// OpenDirectory loads the persisted state and reconciles the saved session
// against the directory.
func OpenDirectory(ctx context.Context, store repository.DocumentStore, logger *logrus.Logger) (*Directory, error) {
	if logger == nil {
		logger = logrus.New()
	}

	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	d := &Directory{
		store:  store,
		logger: logger,
		locks:  newAccountLocks(),
		theme:  domain.ThemeSystem,
	}

	users := make([]domain.User, 0, len(snap.Users))
	for _, u := range snap.Users {
		key := u.Key()
		if key == "" {
			logger.Warn("skipping stored user without email")
			continue
		}
		if _, dup := indexOf(users, key); dup {
			logger.WithField("user", key).Warn("skipping duplicate stored user")
			continue
		}
		users = append(users, u.Clone())
	}
	d.users = users
	d.index = buildIndex(users)

	if t, ok := domain.ParseTheme(string(snap.Theme)); ok {
		d.theme = t
	}

	if snap.Session != nil {
		key := snap.Session.Key()
		if _, ok := d.index[key]; ok {
			d.sessionEmail = key
		} else {
			logger.WithField("user", key).Warn("saved session has no matching account; clearing")
			if err := store.SaveSession(ctx, nil); err != nil {
				return nil, fmt.Errorf("clear stale session: %w", err)
			}
		}
	}

	return d, nil
}

// FindByIdentifier returns the first user, in insertion order, whose username
// or email equals identifier ignoring case.
func (d *Directory) FindByIdentifier(identifier string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id := domain.NormalizeIdentifier(identifier)
	if id == "" {
		return domain.User{}, false
	}
	for _, u := range d.users {
		if u.Matches(id) {
			return u.Clone(), true
		}
	}
	return domain.User{}, false
}

// Lookup returns the user registered under email.
func (d *Directory) Lookup(email string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i, ok := d.index[domain.NormalizeIdentifier(email)]
	if !ok {
		return domain.User{}, false
	}
	return d.users[i].Clone(), true
}

// Insert appends a new user after checking username then email uniqueness.
// Usernames and emails share one namespace so an identifier never matches two accounts.
func (d *Directory) Insert(ctx context.Context, user domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.usernameTaken(user.Username, "") {
		return ErrDuplicateUsername
	}
	key := user.Key()
	if key == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if d.emailTaken(key) {
		return ErrDuplicateEmail
	}

	next := make([]domain.User, 0, len(d.users)+1)
	next = append(next, d.users...)
	next = append(next, user.Clone())

	if err := d.store.SaveUsers(ctx, next); err != nil {
		return fmt.Errorf("save users: %w", err)
	}
	d.users = next
	d.index[key] = len(next) - 1
	return nil
}

// Replace overwrites the entry with the same email. Unknown emails are ignored.
func (d *Directory) Replace(ctx context.Context, updated domain.User) error {
	return d.apply(ctx, updated)
}

// Users returns a copy of every account in insertion order.
func (d *Directory) Users() []domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.User, len(d.users))
	for i, u := range d.users {
		out[i] = u.Clone()
	}
	return out
}

// Session returns the logged in user, or false when nobody is.
func (d *Directory) Session() (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sessionLocked()
}

func (d *Directory) sessionLocked() (domain.User, bool) {
	if d.sessionEmail == "" {
		return domain.User{}, false
	}
	i, ok := d.index[d.sessionEmail]
	if !ok {
		return domain.User{}, false
	}
	return d.users[i].Clone(), true
}

// Theme returns the stored preference, system when none was saved.
func (d *Directory) Theme() domain.Theme {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.theme
}

func (d *Directory) setTheme(ctx context.Context, theme domain.Theme) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.store.SaveTheme(ctx, theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	d.theme = theme
	return nil
}

// setSession persists the session for email, or clears it when email is empty.
func (d *Directory) setSession(ctx context.Context, email string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := domain.NormalizeIdentifier(email)
	if key == "" {
		if err := d.store.SaveSession(ctx, nil); err != nil {
			d.sessionEmail = ""
			return fmt.Errorf("clear session: %w", err)
		}
		d.sessionEmail = ""
		return nil
	}

	i, ok := d.index[key]
	if !ok {
		return ErrUserNotFound
	}
	session := d.users[i].Clone()
	if err := d.store.SaveSession(ctx, &session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	d.sessionEmail = key
	return nil
}

// apply swaps in the updated records and writes directory and session in one
// commit. Memory is only changed once the commit succeeds.
func (d *Directory) apply(ctx context.Context, updated ...domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applyLocked(ctx, updated...)
}

// applyRenamed is apply with a username uniqueness check against every other
// account's username and email.
func (d *Directory) applyRenamed(ctx context.Context, updated domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.usernameTaken(updated.Username, updated.Key()) {
		return ErrDuplicateUsername
	}
	return d.applyLocked(ctx, updated)
}

func (d *Directory) applyLocked(ctx context.Context, updated ...domain.User) error {
	next := make([]domain.User, len(d.users))
	copy(next, d.users)

	changed := false
	for _, u := range updated {
		i, ok := d.index[u.Key()]
		if !ok {
			continue
		}
		next[i] = u.Clone()
		changed = true
	}
	if !changed {
		return nil
	}

	var session *domain.User
	if i, ok := d.index[d.sessionEmail]; ok && d.sessionEmail != "" {
		s := next[i].Clone()
		session = &s
	}

	if err := d.store.Commit(ctx, next, session); err != nil {
		return fmt.Errorf("commit directory: %w", err)
	}
	d.users = next
	return nil
}

// usernameTaken reports whether any account other than exceptKey already
// answers to username, either as its username or as its email.
func (d *Directory) usernameTaken(username, exceptKey string) bool {
	name := domain.NormalizeIdentifier(username)
	if name == "" {
		return false
	}
	for _, u := range d.users {
		if u.Key() == exceptKey {
			continue
		}
		if u.Matches(name) {
			return true
		}
	}
	return false
}

func (d *Directory) emailTaken(key string) bool {
	if _, ok := d.index[key]; ok {
		return true
	}
	for _, u := range d.users {
		if domain.NormalizeIdentifier(u.Username) == key {
			return true
		}
	}
	return false
}

func buildIndex(users []domain.User) map[string]int {
	index := make(map[string]int, len(users))
	for i, u := range users {
		index[u.Key()] = i
	}
	return index
}

func indexOf(users []domain.User, key string) (int, bool) {
	for i, u := range users {
		if u.Key() == key {
			return i, true
		}
	}
	return -1, false
}
