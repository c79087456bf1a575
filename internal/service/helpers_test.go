package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"trustio-wallet/internal/domain"
	"trustio-wallet/internal/repository"
)

var errStoreDown = errors.New("store down")

// memStore is an in-memory DocumentStore that can be told to fail writes.
type memStore struct {
	mu      sync.Mutex
	seed    repository.SeedFunc
	users   []domain.User
	loaded  bool
	session *domain.User
	theme   domain.Theme

	failWrites bool
	commits    int
}

func newMemStore(seed repository.SeedFunc) *memStore {
	return &memStore{seed: seed}
}

func (m *memStore) Init(ctx context.Context) error { return nil }

func (m *memStore) Load(ctx context.Context) (*repository.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		if m.seed != nil {
			users, err := m.seed(ctx)
			if err != nil {
				return nil, err
			}
			m.users = users
		}
		m.loaded = true
	}
	snap := &repository.Snapshot{Users: cloneUsers(m.users), Theme: m.theme}
	if m.session != nil {
		s := m.session.Clone()
		snap.Session = &s
	}
	return snap, nil
}

func (m *memStore) SaveUsers(ctx context.Context, users []domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errStoreDown
	}
	m.users = cloneUsers(users)
	return nil
}

func (m *memStore) SaveSession(ctx context.Context, session *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errStoreDown
	}
	if session == nil {
		m.session = nil
		return nil
	}
	s := session.Clone()
	m.session = &s
	return nil
}

func (m *memStore) SaveTheme(ctx context.Context, theme domain.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errStoreDown
	}
	m.theme = theme
	return nil
}

func (m *memStore) Commit(ctx context.Context, users []domain.User, session *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errStoreDown
	}
	m.commits++
	m.users = cloneUsers(users)
	if session == nil {
		m.session = nil
	} else {
		s := session.Clone()
		m.session = &s
	}
	return nil
}

func (m *memStore) Export(ctx context.Context) ([]byte, error) {
	return []byte("{}"), nil
}

func (m *memStore) Close() error {
	return nil
}

func (m *memStore) setFailWrites(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = v
}

func (m *memStore) storedUser(t *testing.T, email string) domain.User {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Key() == domain.NormalizeIdentifier(email) {
			return u.Clone()
		}
	}
	t.Fatalf("user %s not stored", email)
	return domain.User{}
}

func (m *memStore) storedSession() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	s := m.session.Clone()
	return &s
}

func cloneUsers(in []domain.User) []domain.User {
	out := make([]domain.User, len(in))
	for i, u := range in {
		out[i] = u.Clone()
	}
	return out
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	store   *memStore
	dir     *Directory
	auth    AuthService
	ledger  LedgerService
	profile ProfileService
	gifts   GiftService
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore(AdminSeed(bcrypt.MinCost))
	dir, err := OpenDirectory(context.Background(), store, quietLogger())
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	return &fixture{
		store:   store,
		dir:     dir,
		auth:    NewAuthService(dir, AuthConfig{BcryptCost: bcrypt.MinCost, Logger: quietLogger()}),
		ledger:  NewLedgerService(dir, LedgerConfig{Logger: quietLogger(), Now: func() time.Time { return now }}),
		profile: NewProfileService(dir, quietLogger()),
		gifts:   NewGiftService(dir),
		now:     now,
	}
}

func (f *fixture) register(t *testing.T, username, email string) {
	t.Helper()
	_, err := f.auth.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           email,
		Password:        "password-" + username,
		ConfirmPassword: "password-" + username,
		SecretKey:       "secret-" + username,
	})
	require.NoError(t, err)
}

func (f *fixture) login(t *testing.T, identifier, password string) {
	t.Helper()
	_, err := f.auth.Login(context.Background(), identifier, password)
	require.NoError(t, err)
}

func (f *fixture) loginAdmin(t *testing.T) {
	t.Helper()
	f.login(t, domain.AdminUsername, domain.AdminPassword)
}
