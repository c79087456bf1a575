package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateUsername is returned when another account already answers to the username.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrDuplicateEmail is returned when another account already answers to the email.
	ErrDuplicateEmail = errors.New("email already registered")

	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrMissingField     = errors.New("missing required field")

	// ErrNotAuthenticated is returned by every session-scoped operation when nobody is logged in.
	ErrNotAuthenticated = errors.New("not authenticated")

	ErrInvalidAmount        = errors.New("invalid amount")
	ErrCannotTransferToSelf = errors.New("cannot transfer to yourself")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrUserNotFound         = errors.New("user not found")

	// ErrInvalidSecretKey does not say whether the key was wrong or missing.
	ErrInvalidSecretKey = errors.New("invalid secret key")

	ErrInvalidTheme = errors.New("invalid theme")
)
