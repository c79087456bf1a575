package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trustio-wallet/internal/domain"
)

const giftClaimBase = "https://trustio.app/claim/"

// GiftService creates shareable gift links. No funds move when a link is created.
type GiftService interface {
	CreateGiftLink(ctx context.Context, in GiftInput) (*domain.GiftLink, error)
}

type GiftInput struct {
	Mode       string
	Amount     decimal.Decimal
	Recipients int
	Message    string
}

type giftService struct {
	dir *Directory
}

func NewGiftService(dir *Directory) GiftService {
	return &giftService{dir: dir}
}

func (s *giftService) CreateGiftLink(ctx context.Context, in GiftInput) (*domain.GiftLink, error) {
	user, ok := s.dir.Session()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	mode := domain.GiftFixed
	if strings.EqualFold(strings.TrimSpace(in.Mode), string(domain.GiftLucky)) {
		mode = domain.GiftLucky
	}
	recipients := in.Recipients
	if recipients < 1 {
		recipients = 1
	}

	id := uuid.NewString()
	return &domain.GiftLink{
		ID:         id,
		URL:        giftClaimBase + id,
		Mode:       mode,
		Amount:     in.Amount,
		Recipients: recipients,
		Message:    strings.TrimSpace(in.Message),
		Creator:    user.Username,
	}, nil
}
