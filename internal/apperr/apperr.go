// Package apperr defines the error kinds shared by the ledger packages.
//
// Domain packages declare their own sentinels wrapping one of these kinds, e.g.
//
//	var ErrNotFound = fmt.Errorf("account %w", apperr.ErrNotFound)
//
// so callers can match either the specific error or the kind with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidSubtype      = errors.New("invalid account subtype")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrConflict            = errors.New("conflict")
	ErrInvalid             = errors.New("invalid request")
)

// Kind returns the short name of the kind err belongs to, or "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidSubtype):
		return "invalid_subtype"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	}

	return "internal"
}
