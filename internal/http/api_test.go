package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"trustio-wallet/internal/domain"
	"trustio-wallet/internal/market"
	"trustio-wallet/internal/navigation"
	"trustio-wallet/internal/repository/sqlite"
	"trustio-wallet/internal/service"
	"trustio-wallet/internal/support"
)

type stubBackend struct {
	reply string
	err   error
}

func (s stubBackend) Generate(ctx context.Context, system string, history []support.Message, message string) (string, error) {
	return s.reply, s.err
}

type testServer struct {
	router *gin.Engine
	nav    *navigation.History
}

func newTestServer(t *testing.T, backend support.Backend) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "wallet.db"))
	require.NoError(t, err)
	store := sqlite.NewDocumentStore(db, service.AdminSeed(bcrypt.MinCost))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	dir, err := service.OpenDirectory(context.Background(), store, logger)
	require.NoError(t, err)

	nav := navigation.NewHistory()
	handler := NewHandler(Deps{
		Auth: service.NewAuthService(dir, service.AuthConfig{
			BcryptCost:      bcrypt.MinCost,
			Logger:          logger,
			OnSessionChange: func(*domain.User) { nav.Reset() },
		}),
		Ledger:     service.NewLedgerService(dir, service.LedgerConfig{Logger: logger}),
		Profile:    service.NewProfileService(dir, logger),
		Gifts:      service.NewGiftService(dir),
		Navigation: nav,
		Market:     market.NewSimulator(market.SimulatorConfig{Rand: rand.New(rand.NewSource(1)), Logger: logger}),
		Feed:       market.NewFeed(market.FeedConfig{Rand: rand.New(rand.NewSource(1)), Logger: logger}),
		Assistant:  support.NewAssistant(backend, support.AssistantConfig{Logger: logger}),
		Tokens:     NewTokenIssuer("test-secret", time.Hour),
		SendFee:    decimal.NewFromInt(1),
		Logger:     logger,
	})

	router := gin.New()
	handler.RegisterRoutes(router)
	return &testServer{router: router, nav: nav}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, identifier, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"identifier": identifier, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) register(t *testing.T, username, email string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username":        username,
		"email":           email,
		"password":        "pw-" + username,
		"confirmPassword": "pw-" + username,
		"secretKey":       "sk-" + username,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decodeUser(t *testing.T, body []byte) UserResponse {
	t.Helper()
	var u UserResponse
	require.NoError(t, json.Unmarshal(body, &u))
	return u
}

func TestAPI_Health(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	s := newTestServer(t, nil)

	s.register(t, "bob", "Bob@Example.com")

	rec := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "BOB", "email": "x@example.com", "password": "a", "confirmPassword": "a", "secretKey": "s",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": domain.AdminEmail, "email": "y@example.com", "password": "a", "confirmPassword": "a", "secretKey": "s",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "zed", "email": "z@example.com", "password": "a", "confirmPassword": "b", "secretKey": "s",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"identifier": "bob", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, rec.Body.String())

	token := s.login(t, "bob@example.com", "pw-bob")
	rec = s.do(t, http.MethodGet, "/api/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "secretKeyHash")
	u := decodeUser(t, rec.Body.Bytes())
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "bob@example.com", u.Email)
}

func TestAPI_ProtectedRoutesNeedMatchingSession(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "bob", "bob@example.com")

	rec := s.do(t, http.MethodGet, "/api/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/session", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	adminToken := s.login(t, domain.AdminUsername, domain.AdminPassword)
	bobToken := s.login(t, "bob", "pw-bob")

	// admin's token no longer names the active session
	rec = s.do(t, http.MethodGet, "/api/session", adminToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/logout", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/session", bobToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, _, err := NewTokenIssuer("other-secret", time.Hour).Issue("bob@example.com")
	require.NoError(t, err)
	s.login(t, "bob", "pw-bob")
	rec = s.do(t, http.MethodGet, "/api/session", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_ReceiveAndTransactions(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "admin", domain.AdminPassword)

	rec := s.do(t, http.MethodPost, "/api/wallet/receive", token, gin.H{"amount": "100"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	u := decodeUser(t, rec.Body.Bytes())
	assert.True(t, u.TotalAssets.Equal(decimal.RequireFromString("12600.50")))
	assert.Equal(t, domain.TransactionReceive, u.Transactions[0].Type)

	rec = s.do(t, http.MethodPost, "/api/wallet/receive", token, gin.H{"amount": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/wallet/transactions", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var txs []domain.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	require.Len(t, txs, 3)
	assert.Equal(t, "Deposit via Network", txs[0].Details)
}

func TestAPI_Send(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "carol", "carol@example.com")
	token := s.login(t, "carol", "pw-carol")

	rec := s.do(t, http.MethodPost, "/api/wallet/receive", token, gin.H{"amount": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/wallet/send", token, gin.H{"address": "TXyz123456", "amount": 5, "secretKey": "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/wallet/send", token, gin.H{"address": "TXyz123456", "amount": 5, "fee": 10, "secretKey": "sk-carol"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// default fee of 1 applies
	rec = s.do(t, http.MethodPost, "/api/wallet/send", token, gin.H{"address": "TXyz123456", "amount": 5, "secretKey": "sk-carol"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool         `json:"success"`
		User    UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.True(t, resp.User.TotalAssets.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "To: TXyz12...", resp.User.Transactions[0].Details)
}

func TestAPI_Transfer(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "dave", "dave@example.com")
	token := s.login(t, "admin", domain.AdminPassword)

	rec := s.do(t, http.MethodPost, "/api/wallet/transfer", token, gin.H{"recipient": "dave", "amount": "300", "secretKey": domain.AdminSecretKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp TransferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Transfer successful", resp.Message)
	assert.True(t, resp.User.TotalAssets.Equal(decimal.RequireFromString("12200.50")))

	tests := []struct {
		name      string
		recipient string
		amount    string
		status    int
	}{
		{name: "self", recipient: "ADMIN", amount: "1", status: http.StatusBadRequest},
		{name: "invalid amount", recipient: "dave", amount: "-1", status: http.StatusBadRequest},
		{name: "too much", recipient: "dave", amount: "999999", status: http.StatusUnprocessableEntity},
		{name: "unknown", recipient: "ghost", amount: "1", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/wallet/transfer", token, gin.H{"recipient": tt.recipient, "amount": tt.amount, "secretKey": domain.AdminSecretKey})
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	daveToken := s.login(t, "dave", "pw-dave")
	rec = s.do(t, http.MethodGet, "/api/session", daveToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dave := decodeUser(t, rec.Body.Bytes())
	assert.True(t, dave.TotalAssets.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, domain.TransactionP2PReceived, dave.Transactions[0].Type)
	assert.Equal(t, "From: admin", dave.Transactions[0].Details)
}

func TestAPI_ProfileThemeAndGifts(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "admin", domain.AdminPassword)

	rec := s.do(t, http.MethodPatch, "/api/profile", token, gin.H{"avatar": "data:image/png;base64,AA"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data:image/png;base64,AA", decodeUser(t, rec.Body.Bytes()).Avatar)

	rec = s.do(t, http.MethodGet, "/api/theme", "", nil)
	assert.JSONEq(t, `{"theme":"system"}`, rec.Body.String())
	rec = s.do(t, http.MethodPut, "/api/theme", "", gin.H{"theme": "dark"})
	assert.JSONEq(t, `{"theme":"dark"}`, rec.Body.String())
	rec = s.do(t, http.MethodPut, "/api/theme", "", gin.H{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/wallet/gifts", token, gin.H{"mode": "lucky", "amount": 20, "recipients": 4})
	require.Equal(t, http.StatusCreated, rec.Code)
	var link domain.GiftLink
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &link))
	assert.Equal(t, "https://trustio.app/claim/"+link.ID, link.URL)
	assert.Equal(t, domain.GiftLucky, link.Mode)
}

func TestAPI_NavigationResetsOnLogin(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodPost, "/api/nav/invest", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s.do(t, http.MethodPost, "/api/nav/trade", "", nil)

	var state navigation.State
	require.NoError(t, json.Unmarshal(s.do(t, http.MethodPost, "/api/nav/back", "", nil).Body.Bytes(), &state))
	assert.Equal(t, navigation.TabInvest, state.Active)
	assert.True(t, state.CanGoBack)

	rec = s.do(t, http.MethodPost, "/api/nav/settings", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.login(t, "admin", domain.AdminPassword)
	require.NoError(t, json.Unmarshal(s.do(t, http.MethodGet, "/api/nav", "", nil).Body.Bytes(), &state))
	assert.Equal(t, navigation.TabHome, state.Active)
	assert.Empty(t, state.History)
}

func TestAPI_MarketAndInvest(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/market/coins?sort=gainers", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var coins []market.Coin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &coins))
	require.Len(t, coins, 19)
	assert.Equal(t, "AT", coins[0].Symbol)

	rec = s.do(t, http.MethodGet, "/api/market/coins?q=eth", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &coins))
	require.Len(t, coins, 1)

	rec = s.do(t, http.MethodGet, "/api/invest/products", "", nil)
	var products []market.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, 5)

	rec = s.do(t, http.MethodGet, "/api/invest/quote?days=30&principal=5000", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var quote market.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, 30, quote.Days)
	assert.Equal(t, "19.73", quote.EstimatedEarnings.StringFixed(2))
	assert.True(t, quote.MeetsMinimum)

	rec = s.do(t, http.MethodGet, "/api/invest/quote?days=30&principal=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/invest/feed", "", nil)
	var records []market.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 7)
}

func TestAPI_SupportChat(t *testing.T) {
	s := newTestServer(t, stubBackend{reply: "Open the Trade tab."})
	token := s.login(t, "admin", domain.AdminPassword)

	rec := s.do(t, http.MethodPost, "/api/support/chat", token, gin.H{"message": "how to deposit"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reply":"Open the Trade tab.","customerId":"154189"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/support/chat", token, gin.H{"message": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	down := newTestServer(t, stubBackend{err: errors.New("unreachable")})
	token = down.login(t, "admin", domain.AdminPassword)
	rec = down.do(t, http.MethodPost, "/api/support/chat", token, gin.H{"message": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trouble connecting")
}

func TestAPI_BackupsNotConfigured(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.login(t, "admin", domain.AdminPassword)

	rec := s.do(t, http.MethodPost, "/api/backups", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	token, _, err := issuer.Issue("a@example.com")
	require.NoError(t, err)

	sub, err := issuer.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", sub)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = issuer.Subject(token)
	assert.Error(t, err)
}
