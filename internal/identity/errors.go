package identity

import "errors"

var (
	// ErrUnauthorized represents a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrOAuthExchange indicates the provider rejected the code exchange.
	ErrOAuthExchange = errors.New("oauth exchange failed")
)
