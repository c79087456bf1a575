package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"trustio-wallet/internal/backup"
	"trustio-wallet/internal/domain"
	"trustio-wallet/internal/service"
	"trustio-wallet/internal/support"
)

// UserResponse is the public view of an account. Credential hashes never leave the service.
type UserResponse struct {
	Username     string               `json:"username"`
	Email        string               `json:"email"`
	TotalAssets  decimal.Decimal      `json:"totalAssets"`
	MonthlyYield decimal.Decimal      `json:"monthlyYield"`
	Avatar       string               `json:"avatar,omitempty"`
	Transactions []domain.Transaction `json:"transactions"`
}

func userToResponse(u *domain.User) UserResponse {
	txs := u.Transactions
	if txs == nil {
		txs = []domain.Transaction{}
	}
	return UserResponse{
		Username:     u.Username,
		Email:        u.Email,
		TotalAssets:  u.TotalAssets,
		MonthlyYield: u.MonthlyYield,
		Avatar:       u.Avatar,
		Transactions: txs,
	}
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

type TransferResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Recipient   string             `json:"recipient"`
	Transaction domain.Transaction `json:"transaction"`
	User        UserResponse       `json:"user"`
}

type ChatResponse struct {
	Reply      string `json:"reply"`
	CustomerID string `json:"customerId"`
}

// writeError maps service errors onto status codes.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrMissingField),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrCannotTransferToSelf),
		errors.Is(err, service.ErrInvalidTheme),
		errors.Is(err, support.ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidSecretKey):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, backup.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInsufficientBalance):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		logger.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
