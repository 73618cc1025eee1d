package category

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/kyat/internal/apperr"
)

var (
	ErrNotFound  = fmt.Errorf("category %w", apperr.ErrNotFound)
	ErrDuplicate = fmt.Errorf("%w: category name must be unique", apperr.ErrConflict)
	ErrInUse     = fmt.Errorf("%w: category is referenced by a budget", apperr.ErrConflict)
)

// Predefined are the system categories every deployment is seeded with.
var Predefined = []string{
	"Shopping",
	"Subscription",
	"Food",
	"Salary",
	"Transportation",
	"General Use",
	"Loan",
	"Borrow",
	"Other",
	"Transfer",
}

// IsPredefined reports whether name is one of the seeded system categories.
func IsPredefined(name string) bool {
	return slices.Contains(Predefined, name)
}

type Category struct {
	ID        uuid.UUID
	Name      string
	Icon      string
	Private   bool // User-created
	CreatedAt time.Time
	UpdatedAt time.Time
}
