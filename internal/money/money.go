package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a whole, positive amount in the smallest currency unit.
// "1500" and "1500.00" are accepted; "12.5", "-3", "0" and "abc" are not.
func ParseAmount(s string) (int64, error) {
	d, err := parseWhole(s)
	if err != nil {
		return 0, err
	}

	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: must be greater than zero", apperr.ErrInvalidAmount)
	}

	return d.IntPart(), nil
}

// ParseBalance is ParseAmount that also accepts zero.
func ParseBalance(s string) (int64, error) {
	d, err := parseWhole(s)
	if err != nil {
		return 0, err
	}

	if d.IsNegative() {
		return 0, fmt.Errorf("%w: must not be negative", apperr.ErrInvalidAmount)
	}

	return d.IntPart(), nil
}

func parseWhole(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", apperr.ErrInvalidAmount, s)
	}

	if !d.IsInteger() {
		return decimal.Zero, fmt.Errorf("%w: %s has a fractional part", apperr.ErrInvalidAmount, d)
	}

	if d.GreaterThan(decimal.NewFromInt(maxAmount)) {
		return decimal.Zero, fmt.Errorf("%w: %s is too large", apperr.ErrInvalidAmount, d)
	}

	return d, nil
}

// maxAmount keeps sums of a few million rows inside int64.
const maxAmount = 1 << 50

// Threshold returns percentage% of amount without rounding.
func Threshold(amount int64, percentage int) decimal.Decimal {
	return decimal.NewFromInt(amount).Mul(decimal.NewFromInt(int64(percentage))).Div(hundred)
}

// Reached reports whether spent has reached threshold.
func Reached(spent int64, threshold decimal.Decimal) bool {
	return decimal.NewFromInt(spent).GreaterThanOrEqual(threshold)
}
