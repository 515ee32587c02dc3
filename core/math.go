package core

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
)

// AddAmounts returns a+b or ErrOverflow.
func AddAmounts(a, b uint64) (uint64, error) {
	sum, overflow := math.SafeAdd(a, b)
	if overflow {
		return 0, fmt.Errorf("%w: %d + %d", ErrOverflow, a, b)
	}
	return sum, nil
}

// SubAmounts returns a-b, or ErrInsufficientFunds when b > a.
func SubAmounts(a, b uint64) (uint64, error) {
	diff, underflow := math.SafeSub(a, b)
	if underflow {
		return 0, fmt.Errorf("%w: have %d need %d", ErrInsufficientFunds, a, b)
	}
	return diff, nil
}

// MulDiv computes (f[0]*f[1]*...*f[n-1]) / d with a 256-bit intermediate.
// Every multiplication happens before the single truncating division.
func MulDiv(d uint64, f ...uint64) (uint64, error) {
	if d == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrValidation)
	}
	acc := uint256.NewInt(1)
	for _, x := range f {
		if _, overflow := acc.MulOverflow(acc, uint256.NewInt(x)); overflow {
			return 0, fmt.Errorf("%w: product exceeds 256 bits", ErrOverflow)
		}
	}
	acc.Div(acc, uint256.NewInt(d))
	if !acc.IsUint64() {
		return 0, fmt.Errorf("%w: quotient exceeds 64 bits", ErrOverflow)
	}
	return acc.Uint64(), nil
}

// Percent returns amount*pct/100, truncated.
func Percent(amount, pct uint64) (uint64, error) {
	return MulDiv(100, amount, pct)
}
