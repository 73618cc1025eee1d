package account

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

var (
	ErrNotFound       = fmt.Errorf("account %w", apperr.ErrNotFound)
	ErrNoAccounts     = fmt.Errorf("accounts %w for user", apperr.ErrNotFound)
	ErrInvalidSubtype = apperr.ErrInvalidSubtype
)

// Type is the family an account belongs to.
type Type string

const (
	TypeWallet Type = "WALLET"
	TypeBank   Type = "BANK"
	TypePay    Type = "PAY"
)

// SubType narrows a Type down to a concrete provider.
type SubType string

const (
	SubTypeWallet    SubType = "WALLET"
	SubTypeKBZBank   SubType = "KBZBANK"
	SubTypeCBBank    SubType = "CBBANK"
	SubTypeAYABank   SubType = "AYABANK"
	SubTypeYomaBank  SubType = "YOMABANK"
	SubTypeAGDBank   SubType = "AGDBANK"
	SubTypeOtherBank SubType = "OTHER_BANK"
	SubTypeKBZPay    SubType = "KBZPAY"
	SubTypeCBPay     SubType = "CBPAY"
	SubTypeAYAPay    SubType = "AYAPAY"
	SubTypeWavePay   SubType = "WAVEPAY"
	SubTypeOKDollar  SubType = "OKDOLLAR"
	SubTypeOtherPay  SubType = "OTHER_PAY"
)

var subTypes = map[Type][]SubType{
	TypeWallet: {SubTypeWallet},
	TypeBank:   {SubTypeKBZBank, SubTypeCBBank, SubTypeAYABank, SubTypeYomaBank, SubTypeAGDBank, SubTypeOtherBank},
	TypePay:    {SubTypeKBZPay, SubTypeCBPay, SubTypeAYAPay, SubTypeWavePay, SubTypeOKDollar, SubTypeOtherPay},
}

// Types lists the account types in display order.
func Types() []Type {
	return []Type{TypeWallet, TypeBank, TypePay}
}

// SubTypes returns the subtypes valid for t. Unknown types have none.
func SubTypes(t Type) []SubType {
	return slices.Clone(subTypes[t])
}

// ValidSubType reports whether st may be used with t.
func ValidSubType(t Type, st SubType) bool {
	return slices.Contains(subTypes[t], st)
}

// Account holds a balance in the smallest currency unit.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Type      Type
	SubType   SubType
	Balance   int64
	Totals    *Totals // Loaded only when requested
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Totals summarises the income and expense rows posted against an account.
type Totals struct {
	Income  int64
	Expense int64
	// DerivedBalance is Balance + Income - Expense.
	DerivedBalance int64
}
