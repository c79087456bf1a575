package support

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// FallbackReply is shown whenever the backend cannot be reached.
	FallbackReply = "I'm having trouble connecting to the server right now. Please check your connection or try again later."
	// EmptyReply is shown when the backend answers with no text.
	EmptyReply = "I'm sorry, I couldn't generate a response. Please try again."
)

var ErrEmptyMessage = errors.New("message is required")

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Backend is a generative text service.
type Backend interface {
	Generate(ctx context.Context, system string, history []Message, message string) (string, error)
}

// Customer identifies who the assistant is talking to.
type Customer struct {
	Username string
	Email    string
}

type AssistantConfig struct {
	RatePerSecond float64
	Logger        *logrus.Logger
}

// Assistant answers support questions. It never returns a backend error to
// the caller; failures become FallbackReply.
type Assistant struct {
	backend Backend
	limiter *rate.Limiter
	logger  *logrus.Logger
}

// NewAssistant builds an assistant. A nil backend always answers FallbackReply.
func NewAssistant(backend Backend, cfg AssistantConfig) *Assistant {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}
	return &Assistant{
		backend: backend,
		limiter: rate.NewLimiter(limit, burst),
		logger:  cfg.Logger,
	}
}

func (a *Assistant) Reply(ctx context.Context, customer Customer, history []Message, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	log := a.logger.WithField("customer", CustomerID(customer.Email))
	if a.backend == nil {
		log.Warn("support backend not configured")
		return FallbackReply, nil
	}
	if !a.limiter.Allow() {
		log.Warn("support chat rate limited")
		return FallbackReply, nil
	}

	text, err := a.backend.Generate(ctx, SystemPrompt(customer), history, message)
	if err != nil {
		log.WithError(err).Error("support backend failed")
		return FallbackReply, nil
	}
	if strings.TrimSpace(text) == "" {
		return EmptyReply, nil
	}
	return text, nil
}

// CustomerID derives a stable six digit id from email.
func CustomerID(email string) string {
	var h int64
	for _, c := range utf16.Encode([]rune(email)) {
		h = int64(c) + (int64(int32(h)<<5) - h)
	}
	if h < 0 {
		h = -h
	}
	id := strconv.FormatInt(h, 10)
	if len(id) > 6 {
		id = id[:6]
	}
	return id + strings.Repeat("0", 6-len(id))
}

// SystemPrompt is the instruction sent ahead of every conversation.
func SystemPrompt(c Customer) string {
	return fmt.Sprintf(`You are the specialized AI Support Agent for 'Trustio', a modern cryptocurrency wallet web application.

**User Context:**
- Username: %s
- Email: %s
- Customer ID: %s

Your goal is to provide helpful, concise, and professional assistance to users regarding the app's features.

**Trustio App Features Context:**
1. **Home**: Users can view their Total Balance (Asset Valuation), Market Rankings (Hot, Gainers, Losers, 24h Vol), and access Quick Actions.
2. **Invest**: A staking platform where users can stake USDT.
   - Periods: 7 days (3%% APY), 14 days (3.85%% APY), 30 days (4.8%% APY), 60 days (6.5%% APY), 90 days (8.2%% APY).
3. **Trade**:
   - **Deposit**: Users select a network (TRC20, BEP20, ERC20), enter an amount, and get an address to send funds to.
   - **Send**: Transfer to external wallets via address or QR scan.
   - **P2P Transfer**: Free internal transfers to other Trustio users via username/email.
   - **Gifts**: Create Crypto Gift Cards or Lucky Red Envelopes.
4. **Profile**: Settings, transaction history, FAQs and this Live Chat.

**Guidelines:**
- Be friendly and polite.
- Keep answers relatively short (under 100 words) unless a detailed explanation is needed.
- If a user asks about a specific feature, guide them to the specific tab.
- Do not provide financial advice.
- If asked about technical issues, suggest checking their internet or contacting support@trustio.com for account-specific issues.
`, c.Username, c.Email, CustomerID(c.Email))
}
