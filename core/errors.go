package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested object does not exist in storage.
var ErrNotFound = errors.New("not found")

// Error kinds. Handlers wrap one of these with fmt.Errorf("%w: ...") so callers
// can classify a rejected call with errors.Is.
var (
	ErrValidation            = errors.New("validation error")
	ErrUnauthorized          = errors.New("authorization error")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrStateConflict         = errors.New("state conflict")
	ErrTiming                = errors.New("timing error")
	ErrExternalCall          = errors.New("external call failed")
	ErrOverflow              = errors.New("arithmetic overflow")
	ErrPaused                = errors.New("paused")
	ErrReentrancy            = errors.New("reentrant call")
)

// Staking-specific conditions. Both are validation failures.
var (
	ErrNoStake  = fmt.Errorf("%w: no stake", ErrValidation)
	ErrNoReward = fmt.Errorf("%w: no reward", ErrValidation)
)
