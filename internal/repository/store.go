package repository

import (
	"context"

	"trustio-wallet/internal/domain"
)

// Snapshot is everything the document store holds. Session is nil and
// Theme is empty when nothing was saved for them.
type Snapshot struct {
	Users   []domain.User
	Session *domain.User
	Theme   domain.Theme
}

// SeedFunc produces the directory installed when no prior state exists.
type SeedFunc func(ctx context.Context) ([]domain.User, error)

// DocumentStore persists the user directory, the active session and the
// theme preference as whole documents. Every write overwrites the previous
// document for its key.
type DocumentStore interface {
	Init(ctx context.Context) error
	Load(ctx context.Context) (*Snapshot, error)
	SaveUsers(ctx context.Context, users []domain.User) error
	SaveSession(ctx context.Context, session *domain.User) error
	SaveTheme(ctx context.Context, theme domain.Theme) error
	// Commit writes the directory and the session together: both or neither.
	Commit(ctx context.Context, users []domain.User, session *domain.User) error
	Export(ctx context.Context) ([]byte, error)
	Close() error
}
