// Package common defines sentinel errors shared by the bot packages.
// Callers wrap them with fmt.Errorf("...: %w", err) and match with errors.Is.
package common

import "errors"

var (
	// Startup errors: missing or invalid config and language files.
	ErrConfiguration = errors.New("configuration error")

	// The gateway refused a privileged call (role mutation, channel post).
	ErrPermission = errors.New("missing permissions")

	// User input was rejected (captcha answer).
	ErrValidation = errors.New("validation error")

	// A configured role, channel, member or ledger record does not exist.
	ErrNotFound = errors.New("not found")

	// A direct message could not be delivered.
	ErrDelivery = errors.New("message not delivered")

	// The bot token was rejected by the gateway.
	ErrInvalidToken = errors.New("invalid token")
)
