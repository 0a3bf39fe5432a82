package utils

import "time"

// Application constants
const (
	// Application name
	AppName = "FolioForge"

	// Default port
	DefaultPort = "8080"

	// Default currency for plan prices
	DefaultCurrency = "INR"

	// JWT token expiration
	JWTExpiration = 24 * time.Hour

	// Default pagination limit
	DefaultPaginationLimit = 10

	// Maximum pagination limit
	MaxPaginationLimit = 100

	// Minimum password length
	MinPasswordLength = 8

	// Maximum password length
	MaxPasswordLength = 72

	// Minimum name length
	MinNameLength = 2

	// Maximum name length
	MaxNameLength = 50

	// Maximum portfolio title length
	MaxTitleLength = 120

	// Maximum portfolio content size in bytes
	MaxContentSize = 256 * 1024
)

// Error messages
const (
	ErrInvalidCredentials = "Invalid email or password"
	ErrInvalidToken       = "Invalid or expired token"
	ErrUnauthorized       = "Unauthorized access"
	ErrForbidden          = "Access forbidden"
	ErrInvalidRequest     = "Invalid request body"
	ErrRecordNotFound     = "Record not found"
	ErrInternalServer     = "Internal server error"
	ErrServiceUnavailable = "Payment service temporarily unavailable, please retry"
	ErrPaymentRejected    = "Payment verification failed"
)

// Success messages
const (
	MsgLoginSuccess    = "Login successful"
	MsgRegisterSuccess = "Registration successful"
	MsgUpdateSuccess   = "Updated successfully"
	MsgDeleteSuccess   = "Deleted successfully"
)
