package services

import (
	"errors"
	"fmt"
)

// Sentinel errors callers branch on with errors.Is. Everything else
// surfaces as a wrapped repository or validation error.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrGameInactive           = errors.New("game is not accepting bets")
	ErrSessionNotActive       = errors.New("session is not active")
	ErrDuplicateCellBet       = errors.New("cell already bet in this session")
	ErrUnsupportedCoin        = errors.New("coin not supported")
	ErrInvalidBetAmount       = errors.New("bet amount not allowed")
	ErrDuplicateTrace         = errors.New("deposit trace already applied")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConcurrencyConflict    = errors.New("concurrent modification, retry")
	ErrNotFound               = errors.New("not found")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
