package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trustio-wallet/internal/domain"
	"trustio-wallet/internal/repository"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const (
	keyUsers   = "users"
	keySession = "session"
	keyTheme   = "theme"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DocumentStore keeps one row per logical key in the documents table.
type DocumentStore struct {
	db   *sql.DB
	seed repository.SeedFunc
}

func NewDocumentStore(db *sql.DB, seed repository.SeedFunc) repository.DocumentStore {
	return &DocumentStore{db: db, seed: seed}
}

func (s *DocumentStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

// Load reads all three documents. On first run the directory is seeded and
// written before returning.
func (s *DocumentStore) Load(ctx context.Context) (*repository.Snapshot, error) {
	snap := &repository.Snapshot{}

	raw, ok, err := s.get(ctx, keyUsers)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &snap.Users); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
	} else {
		users, err := s.seedUsers(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.SaveUsers(ctx, users); err != nil {
			return nil, err
		}
		snap.Users = users
	}

	raw, ok, err = s.get(ctx, keySession)
	if err != nil {
		return nil, err
	}
	if ok {
		var session domain.User
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		snap.Session = &session
	}

	raw, ok, err = s.get(ctx, keyTheme)
	if err != nil {
		return nil, err
	}
	if ok {
		snap.Theme = domain.Theme(raw)
	}

	return snap, nil
}

func (s *DocumentStore) seedUsers(ctx context.Context) ([]domain.User, error) {
	if s.seed == nil {
		return []domain.User{}, nil
	}
	users, err := s.seed(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	return users, nil
}

func (s *DocumentStore) SaveUsers(ctx context.Context, users []domain.User) error {
	return putUsers(ctx, s.db, users)
}

func (s *DocumentStore) SaveSession(ctx context.Context, session *domain.User) error {
	return putSession(ctx, s.db, session)
}

func (s *DocumentStore) SaveTheme(ctx context.Context, theme domain.Theme) error {
	return put(ctx, s.db, keyTheme, string(theme))
}

func (s *DocumentStore) Commit(ctx context.Context, users []domain.User, session *domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := putUsers(ctx, tx, users); err != nil {
		return err
	}
	if err := putSession(ctx, tx, session); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit documents: %w", err)
	}
	return nil
}

type exportDocument struct {
	ExportedAt time.Time       `json:"exported_at"`
	Users      json.RawMessage `json:"users"`
	Session    json.RawMessage `json:"session"`
	Theme      string          `json:"theme,omitempty"`
}

// Export renders every stored document as one JSON object.
func (s *DocumentStore) Export(ctx context.Context) ([]byte, error) {
	doc := exportDocument{
		ExportedAt: time.Now().UTC(),
		Users:      json.RawMessage("[]"),
		Session:    json.RawMessage("null"),
	}

	if raw, ok, err := s.get(ctx, keyUsers); err != nil {
		return nil, err
	} else if ok {
		doc.Users = json.RawMessage(raw)
	}
	if raw, ok, err := s.get(ctx, keySession); err != nil {
		return nil, err
	} else if ok {
		doc.Session = json.RawMessage(raw)
	}
	if raw, ok, err := s.get(ctx, keyTheme); err != nil {
		return nil, err
	} else if ok {
		doc.Theme = raw
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return out, nil
}

func (s *DocumentStore) Close() error {
	return s.db.Close()
}

func (s *DocumentStore) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM documents WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func putUsers(ctx context.Context, db execer, users []domain.User) error {
	if users == nil {
		users = []domain.User{}
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return put(ctx, db, keyUsers, string(raw))
}

func putSession(ctx context.Context, db execer, session *domain.User) error {
	if session == nil {
		if _, err := db.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, keySession); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return put(ctx, db, keySession, string(raw))
}

func put(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO documents (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		value,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

var _ repository.DocumentStore = (*DocumentStore)(nil)
