package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"trustio-wallet/internal/domain"
)

const (
	depositDetails       = "Deposit via Network"
	sendAddressPreview   = 6
	transferSuccessful   = "Transfer successful"
	maxTransferResolving = 3
)

// LedgerService runs the balance mutating operations for the session user.
type LedgerService interface {
	// For returns a ledger bound to account. Its operations fail with
	// ErrNotAuthenticated unless account is still the session user when
	// the account lock is held.
	For(account string) LedgerService

	Receive(ctx context.Context, amount decimal.Decimal) (*domain.User, error)
	// Send reports false with a nil error when amount plus fee exceeds the balance.
	Send(ctx context.Context, address string, amount, fee decimal.Decimal) (bool, error)
	P2PTransfer(ctx context.Context, recipient string, amount decimal.Decimal) (*TransferResult, error)
	Transactions(ctx context.Context) ([]domain.Transaction, error)
}

type TransferResult struct {
	Sender      *domain.User
	Recipient   string
	Transaction domain.Transaction
	Message     string
}

type LedgerConfig struct {
	Logger *logrus.Logger
	Now    func() time.Time
}

type ledgerService struct {
	dir     *Directory
	logger  *logrus.Logger
	now     func() time.Time
	account string
}

func NewLedgerService(dir *Directory, cfg LedgerConfig) LedgerService {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ledgerService{dir: dir, logger: logger, now: now}
}

func (s *ledgerService) For(account string) LedgerService {
	bound := *s
	bound.account = domain.NormalizeIdentifier(account)
	return &bound
}

// actingKey is the account an operation locks: the bound account, or the
// current session user for an unbound ledger.
func (s *ledgerService) actingKey() (string, error) {
	session, ok := s.dir.Session()
	if !ok {
		return "", ErrNotAuthenticated
	}
	if s.account != "" && session.Key() != s.account {
		return "", ErrNotAuthenticated
	}
	return session.Key(), nil
}

func (s *ledgerService) Receive(ctx context.Context, amount decimal.Decimal) (*domain.User, error) {
	key, err := s.actingKey()
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	unlock := s.dir.locks.lock(key)
	defer unlock()

	user, err := s.sessionUser(key)
	if err != nil {
		return nil, err
	}

	tx := domain.NewTransaction(domain.TransactionReceive, amount, depositDetails, s.now())
	user.TotalAssets = user.TotalAssets.Add(amount)
	user.Transactions = user.Prepend(tx)

	if err := s.dir.apply(ctx, user); err != nil {
		s.logger.WithError(err).WithField("user", user.Key()).Error("persist receive")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"user": user.Key(), "op": "receive", "amount": amount.String()}).Info("ledger updated")
	return sanitizeUser(&user), nil
}

func (s *ledgerService) Send(ctx context.Context, address string, amount, fee decimal.Decimal) (bool, error) {
	key, err := s.actingKey()
	if err != nil {
		return false, err
	}
	if !amount.IsPositive() || fee.IsNegative() {
		return false, ErrInvalidAmount
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return false, fmt.Errorf("%w: address", ErrMissingField)
	}

	unlock := s.dir.locks.lock(key)
	defer unlock()

	user, err := s.sessionUser(key)
	if err != nil {
		return false, err
	}

	total := amount.Add(fee)
	if total.GreaterThan(user.TotalAssets) {
		s.logger.WithFields(logrus.Fields{"user": user.Key(), "op": "send"}).Warn("insufficient funds")
		return false, nil
	}

	tx := domain.NewTransaction(domain.TransactionSend, amount, sendDetails(address), s.now()).WithFee(fee)
	user.TotalAssets = user.TotalAssets.Sub(total)
	user.Transactions = user.Prepend(tx)

	if err := s.dir.apply(ctx, user); err != nil {
		s.logger.WithError(err).WithField("user", user.Key()).Error("persist send")
		return false, err
	}

	s.logger.WithFields(logrus.Fields{"user": user.Key(), "op": "send", "amount": amount.String(), "fee": fee.String()}).Info("ledger updated")
	return true, nil
}

func (s *ledgerService) P2PTransfer(ctx context.Context, recipient string, amount decimal.Decimal) (*TransferResult, error) {
	key, err := s.actingKey()
	if err != nil {
		return nil, err
	}
	recipient = strings.TrimSpace(recipient)

	for attempt := 0; attempt < maxTransferResolving; attempt++ {
		// resolve outside the lock to learn which accounts to lock
		target, found := s.dir.FindByIdentifier(recipient)
		keys := []string{key}
		if found {
			keys = append(keys, target.Key())
		}

		res, retry, err := s.transferLocked(ctx, key, recipient, amount, keys)
		if retry {
			continue
		}
		return res, err
	}
	return nil, fmt.Errorf("resolve recipient %q: changed during transfer", recipient)
}

// transferLocked validates and applies a transfer while holding the account
// locks for keys. retry is set when the recipient no longer resolves to a
// locked account.
func (s *ledgerService) transferLocked(ctx context.Context, senderKey, recipient string, amount decimal.Decimal, keys []string) (*TransferResult, bool, error) {
	unlock := s.dir.locks.lock(keys...)
	defer unlock()

	sender, err := s.sessionUser(senderKey)
	if err != nil {
		return nil, false, err
	}

	log := s.logger.WithFields(logrus.Fields{"user": sender.Key(), "op": "p2p"})

	if !amount.IsPositive() {
		return nil, false, ErrInvalidAmount
	}
	if sender.Matches(recipient) {
		log.Warn("self transfer rejected")
		return nil, false, ErrCannotTransferToSelf
	}
	if sender.TotalAssets.LessThan(amount) {
		log.Warn("insufficient balance")
		return nil, false, ErrInsufficientBalance
	}

	target, found := s.dir.FindByIdentifier(recipient)
	if !found {
		log.Warn("recipient not found")
		return nil, false, ErrUserNotFound
	}
	if !containsKey(keys, target.Key()) {
		return nil, true, nil
	}

	now := s.now()
	sent := domain.NewTransaction(domain.TransactionP2PSent, amount, "To: "+recipient, now)
	received := domain.NewTransaction(domain.TransactionP2PReceived, amount, "From: "+sender.Username, now)

	sender.TotalAssets = sender.TotalAssets.Sub(amount)
	sender.Transactions = sender.Prepend(sent)
	target.TotalAssets = target.TotalAssets.Add(amount)
	target.Transactions = target.Prepend(received)

	if err := s.dir.apply(ctx, sender, target); err != nil {
		log.WithError(err).Error("persist transfer")
		return nil, false, err
	}

	log.WithFields(logrus.Fields{"recipient": target.Key(), "amount": amount.String()}).Info("ledger updated")
	return &TransferResult{
		Sender:      sanitizeUser(&sender),
		Recipient:   target.Username,
		Transaction: sent,
		Message:     transferSuccessful,
	}, false, nil
}

func (s *ledgerService) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	user, ok := s.dir.Session()
	if !ok || (s.account != "" && user.Key() != s.account) {
		return nil, ErrNotAuthenticated
	}
	if user.Transactions == nil {
		return []domain.Transaction{}, nil
	}
	return user.Transactions, nil
}

// sessionUser re-reads the session user once its lock is held, failing if
// the session ended or moved to another account in the meantime.
func (s *ledgerService) sessionUser(key string) (domain.User, error) {
	user, ok := s.dir.Session()
	if !ok || user.Key() != key {
		return domain.User{}, ErrNotAuthenticated
	}
	return user, nil
}

func sendDetails(address string) string {
	r := []rune(address)
	if len(r) > sendAddressPreview {
		r = r[:sendAddressPreview]
	}
	return "To: " + string(r) + "..."
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if domain.NormalizeIdentifier(k) == key {
			return true
		}
	}
	return false
}
