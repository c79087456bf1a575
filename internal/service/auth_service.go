package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"trustio-wallet/internal/domain"
	"trustio-wallet/internal/repository"
)

// AuthService describes account registration and the session lifecycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (*domain.User, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*domain.User, error)
	// AuthorizeOutbound checks secretKey against account, which must be the session user.
	AuthorizeOutbound(ctx context.Context, account, secretKey string) error
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	SecretKey       string
}

type AuthConfig struct {
	BcryptCost int
	Logger     *logrus.Logger
	// OnSessionChange runs after a successful login (with the user) or logout (with nil).
	OnSessionChange func(user *domain.User)
}

type authService struct {
	dir      *Directory
	cost     int
	logger   *logrus.Logger
	onChange func(*domain.User)

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(dir *Directory, cfg AuthConfig) AuthService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &authService{
		dir:      dir,
		cost:     cost,
		logger:   logger,
		onChange: cfg.OnSessionChange,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := domain.NormalizeIdentifier(in.Email)
	password := strings.TrimSpace(in.Password)
	confirm := strings.TrimSpace(in.ConfirmPassword)
	secret := strings.TrimSpace(in.SecretKey)

	switch {
	case username == "":
		return nil, fmt.Errorf("%w: username", ErrMissingField)
	case email == "":
		return nil, fmt.Errorf("%w: email", ErrMissingField)
	case password == "":
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	case confirm == "":
		return nil, fmt.Errorf("%w: confirm password", ErrMissingField)
	case secret == "":
		return nil, fmt.Errorf("%w: secret key", ErrMissingField)
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	secretHash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash secret key: %w", err)
	}

	user := domain.User{
		Username:      username,
		Email:         email,
		PasswordHash:  string(passwordHash),
		SecretKeyHash: string(secretHash),
		TotalAssets:   decimal.Zero,
		MonthlyYield:  decimal.Zero,
		Transactions:  []domain.Transaction{},
	}

	if err := s.dir.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user", email).Info("account registered")
	return sanitizeUser(&user), nil
}

func (s *authService) Login(ctx context.Context, identifier, password string) (*domain.User, error) {
	identifier = domain.NormalizeIdentifier(identifier)
	password = strings.TrimSpace(password)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, ok := s.dir.FindByIdentifier(identifier)
	if !ok {
		// keep the unknown-identifier path as slow as a wrong password
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.dir.setSession(ctx, user.Email); err != nil {
		return nil, err
	}

	out := sanitizeUser(&user)
	s.logger.WithField("user", user.Key()).Info("logged in")
	if s.onChange != nil {
		s.onChange(out)
	}
	return out, nil
}

// Logout always ends the in-memory session. A failure to clear the persisted
// copy is returned but does not restore the session.
func (s *authService) Logout(ctx context.Context) error {
	err := s.dir.setSession(ctx, "")
	if err != nil {
		s.logger.WithError(err).Error("clear persisted session")
	} else {
		s.logger.Info("logged out")
	}
	if s.onChange != nil {
		s.onChange(nil)
	}
	return err
}

func (s *authService) Current(ctx context.Context) (*domain.User, error) {
	user, ok := s.dir.Session()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return sanitizeUser(&user), nil
}

func (s *authService) AuthorizeOutbound(ctx context.Context, account, secretKey string) error {
	user, ok := s.dir.Session()
	if !ok || user.Key() != domain.NormalizeIdentifier(account) {
		return ErrNotAuthenticated
	}
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return ErrInvalidSecretKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.SecretKeyHash), []byte(secretKey)); err != nil {
		s.logger.WithField("user", user.Key()).Warn("outbound authorization rejected")
		return ErrInvalidSecretKey
	}
	return nil
}

func (s *authService) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("trustio-dummy-password"), s.cost)
		if err != nil {
			s.logger.WithError(err).Error("generate dummy hash")
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// AdminSeed returns the first-run seed: one administrator with hashed credentials.
func AdminSeed(cost int) repository.SeedFunc {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return func(ctx context.Context) ([]domain.User, error) {
		pw, err := bcrypt.GenerateFromPassword([]byte(domain.AdminPassword), cost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		sk, err := bcrypt.GenerateFromPassword([]byte(domain.AdminSecretKey), cost)
		if err != nil {
			return nil, fmt.Errorf("hash admin secret key: %w", err)
		}
		return []domain.User{domain.DefaultAdmin(string(pw), string(sk))}, nil
	}
}

// sanitizeUser strips credential hashes before a user leaves the service layer.
func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	out := user.Clone()
	out.PasswordHash = ""
	out.SecretKeyHash = ""
	return &out
}
