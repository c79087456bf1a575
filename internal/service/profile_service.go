package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"trustio-wallet/internal/domain"
)

// ProfileService updates the session user's display details and the theme preference.
type ProfileService interface {
	UpdateProfile(ctx context.Context, in ProfileUpdate) (*domain.User, error)
	Theme(ctx context.Context) domain.Theme
	SetTheme(ctx context.Context, theme string) (domain.Theme, error)
}

// ProfileUpdate carries optional changes; nil fields are left alone.
type ProfileUpdate struct {
	Username *string
	Avatar   *string
}

type profileService struct {
	dir    *Directory
	logger *logrus.Logger
}

func NewProfileService(dir *Directory, logger *logrus.Logger) ProfileService {
	if logger == nil {
		logger = logrus.New()
	}
	return &profileService{dir: dir, logger: logger}
}

func (s *profileService) UpdateProfile(ctx context.Context, in ProfileUpdate) (*domain.User, error) {
	session, ok := s.dir.Session()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	unlock := s.dir.locks.lock(session.Key())
	defer unlock()

	user, ok := s.dir.Session()
	if !ok || user.Key() != session.Key() {
		return nil, ErrNotAuthenticated
	}

	renamed := false
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, fmt.Errorf("%w: username", ErrMissingField)
		}
		renamed = name != user.Username
		user.Username = name
	}
	if in.Avatar != nil {
		user.Avatar = *in.Avatar
	}

	var err error
	if renamed {
		err = s.dir.applyRenamed(ctx, user)
	} else {
		err = s.dir.apply(ctx, user)
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user": user.Key(), "op": "profile"}).Info("profile updated")
	return sanitizeUser(&user), nil
}

func (s *profileService) Theme(ctx context.Context) domain.Theme {
	return s.dir.Theme()
}

func (s *profileService) SetTheme(ctx context.Context, theme string) (domain.Theme, error) {
	t, ok := domain.ParseTheme(theme)
	if !ok {
		return "", ErrInvalidTheme
	}
	if err := s.dir.setTheme(ctx, t); err != nil {
		return "", err
	}
	return t, nil
}
