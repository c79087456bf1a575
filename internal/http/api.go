package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"trustio-wallet/internal/backup"
	"trustio-wallet/internal/domain"
	"trustio-wallet/internal/market"
	"trustio-wallet/internal/navigation"
	"trustio-wallet/internal/service"
	"trustio-wallet/internal/support"
)

// Deps are the collaborators the handler serves. Backups may be nil.
type Deps struct {
	Auth       service.AuthService
	Ledger     service.LedgerService
	Profile    service.ProfileService
	Gifts      service.GiftService
	Navigation *navigation.History
	Market     *market.Simulator
	Feed       *market.Feed
	Assistant  *support.Assistant
	Backups    backup.Manager
	Tokens     *TokenIssuer
	SendFee    decimal.Decimal
	Logger     *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth      service.AuthService
	ledger    service.LedgerService
	profile   service.ProfileService
	gifts     service.GiftService
	nav       *navigation.History
	market    *market.Simulator
	feed      *market.Feed
	assistant *support.Assistant
	backups   backup.Manager
	tokens    *TokenIssuer
	sendFee   decimal.Decimal
	logger    *logrus.Logger
}

func NewHandler(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	return &Handler{
		auth:      deps.Auth,
		ledger:    deps.Ledger,
		profile:   deps.Profile,
		gifts:     deps.Gifts,
		nav:       deps.Navigation,
		market:    deps.Market,
		feed:      deps.Feed,
		assistant: deps.Assistant,
		backups:   deps.Backups,
		tokens:    deps.Tokens,
		sendFee:   deps.SendFee,
		logger:    deps.Logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
		api.GET("/theme", h.getTheme)
		api.PUT("/theme", h.setTheme)
		api.GET("/nav", h.navState)
		api.POST("/nav/:tab", h.navigate)
		api.GET("/market/coins", h.listCoins)
		api.GET("/market/highlights", h.highlights)
		api.GET("/invest/products", h.listProducts)
		api.GET("/invest/quote", h.investQuote)
		api.GET("/invest/feed", h.listFeed)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authed := api.Group("")
		authed.Use(h.requireSession())
		{
			authed.POST("/auth/logout", h.logout)
			authed.GET("/session", h.session)
			authed.PATCH("/profile", h.updateProfile)
			authed.POST("/wallet/receive", h.receive)
			authed.POST("/wallet/send", h.send)
			authed.POST("/wallet/transfer", h.transfer)
			authed.GET("/wallet/transactions", h.transactions)
			authed.POST("/wallet/gifts", h.createGift)
			authed.POST("/support/chat", h.chat)
			authed.POST("/backups", h.triggerBackup)
		}
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	SecretKey       string `json:"secretKey"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		SecretKey:       req.SecretKey,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	token, expires, err := h.tokens.Issue(user.Email)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
		User:      userToResponse(user),
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		h.logger.Warnf("logout: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) session(c *gin.Context) {
	c.JSON(http.StatusOK, userToResponse(sessionUser(c)))
}

type profileRequest struct {
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.profile.UpdateProfile(c.Request.Context(), service.ProfileUpdate{
		Username: req.Username,
		Avatar:   req.Avatar,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) getTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": h.profile.Theme(c.Request.Context())})
}

type themeRequest struct {
	Theme string `json:"theme" binding:"required"`
}

func (h *Handler) setTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	theme, err := h.profile.SetTheme(c.Request.Context(), req.Theme)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) receive(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.ledger.For(sessionUser(c).Email).Receive(c.Request.Context(), req.Amount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

type sendRequest struct {
	Address   string           `json:"address"`
	Amount    decimal.Decimal  `json:"amount"`
	Fee       *decimal.Decimal `json:"fee"`
	SecretKey string           `json:"secretKey"`
}

func (h *Handler) send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account := sessionUser(c).Email
	if err := h.auth.AuthorizeOutbound(c.Request.Context(), account, req.SecretKey); err != nil {
		writeError(c, h.logger, err)
		return
	}

	fee := h.sendFee
	if req.Fee != nil {
		fee = *req.Fee
	}

	ok, err := h.ledger.For(account).Send(c.Request.Context(), req.Address, req.Amount, fee)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"success": false, "error": "insufficient funds"})
		return
	}

	// the session may have moved on since the debit; only echo the account it was made from
	user, err := h.auth.Current(c.Request.Context())
	if err != nil || user.Key() != domain.NormalizeIdentifier(account) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userToResponse(user)})
}

type transferRequest struct {
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	SecretKey string          `json:"secretKey"`
}

func (h *Handler) transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account := sessionUser(c).Email
	if err := h.auth.AuthorizeOutbound(c.Request.Context(), account, req.SecretKey); err != nil {
		writeError(c, h.logger, err)
		return
	}

	res, err := h.ledger.For(account).P2PTransfer(c.Request.Context(), req.Recipient, req.Amount)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, TransferResponse{
		Success:     true,
		Message:     res.Message,
		Recipient:   res.Recipient,
		Transaction: res.Transaction,
		User:        userToResponse(res.Sender),
	})
}

func (h *Handler) transactions(c *gin.Context) {
	txs, err := h.ledger.For(sessionUser(c).Email).Transactions(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

type giftRequest struct {
	Mode       string          `json:"mode"`
	Amount     decimal.Decimal `json:"amount"`
	Recipients int             `json:"recipients"`
	Message    string          `json:"message"`
}

func (h *Handler) createGift(c *gin.Context) {
	var req giftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.gifts.CreateGiftLink(c.Request.Context(), service.GiftInput{
		Mode:       req.Mode,
		Amount:     req.Amount,
		Recipients: req.Recipients,
		Message:    req.Message,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (h *Handler) navState(c *gin.Context) {
	c.JSON(http.StatusOK, h.nav.State())
}

// navigate handles both POST /nav/back and POST /nav/<tab>.
func (h *Handler) navigate(c *gin.Context) {
	param := c.Param("tab")
	if param == "back" {
		h.nav.Back()
		c.JSON(http.StatusOK, h.nav.State())
		return
	}

	tab, ok := navigation.ParseTab(param)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tab"})
		return
	}
	h.nav.Navigate(tab)
	c.JSON(http.StatusOK, h.nav.State())
}

func (h *Handler) listCoins(c *gin.Context) {
	mode := market.ParseSortMode(c.DefaultQuery("sort", string(market.SortAll)))
	c.JSON(http.StatusOK, h.market.Snapshot(mode, c.Query("q")))
}

func (h *Handler) highlights(c *gin.Context) {
	c.JSON(http.StatusOK, h.market.Highlights())
}

func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, market.Products())
}

func (h *Handler) investQuote(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
		return
	}
	principal, err := decimal.NewFromString(c.Query("principal"))
	if err != nil || principal.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid principal"})
		return
	}
	c.JSON(http.StatusOK, market.QuoteFor(days, principal))
}

func (h *Handler) listFeed(c *gin.Context) {
	c.JSON(http.StatusOK, h.feed.Records())
}

type chatRequest struct {
	Message string            `json:"message"`
	History []support.Message `json:"history"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := sessionUser(c)
	customer := support.Customer{Username: user.Username, Email: user.Email}
	reply, err := h.assistant.Reply(c.Request.Context(), customer, req.History, req.Message)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Reply: reply, CustomerID: support.CustomerID(user.Email)})
}

func (h *Handler) triggerBackup(c *gin.Context) {
	if h.backups == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backups not configured"})
		return
	}

	res, err := h.backups.Trigger(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
