package inventory

import (
	"errors"
	"fmt"
)

var (
	// ErrItemNotFound is returned by operations that need an existing item.
	ErrItemNotFound = errors.New("inventory: item not found")
	// ErrNoSpace signals that no free region exists in any allowed container.
	ErrNoSpace = errors.New("inventory: not enough space")
	// ErrCellOccupied is a structural error raised by FillRegion.
	ErrCellOccupied = errors.New("inventory: cell already occupied")
	// ErrOutOfBounds is a structural error raised by FillRegion.
	ErrOutOfBounds = errors.New("inventory: region out of bounds")
	// ErrInvalidCount rejects non-positive or oversized split/transfer counts.
	ErrInvalidCount = errors.New("inventory: invalid count")
	// ErrTemplateMismatch rejects merging stacks of different templates.
	ErrTemplateMismatch = errors.New("inventory: template mismatch")
	// ErrCycle rejects relinking an item under itself or a descendant.
	ErrCycle = errors.New("inventory: item cannot become its own ancestor")
	// ErrInsufficient is returned by RemoveByCount when the stacks hold too little.
	ErrInsufficient = errors.New("inventory: insufficient item count")
	// ErrNotMail rejects Transfer from an owner that is not a mail source.
	ErrNotMail = errors.New("inventory: source is not a mail message")
	// ErrNoStash is returned when the owner has no stash to place into.
	ErrNoStash = errors.New("inventory: owner has no stash")
)

// CapacityError reports which item group could not be placed.
type CapacityError struct {
	RootID string
	Tpl    string
	Width  int
	Height int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("inventory: no space for %s (%s) sized %dx%d", e.RootID, e.Tpl, e.Width, e.Height)
}

// Unwrap lets errors.Is(err, ErrNoSpace) match.
func (e *CapacityError) Unwrap() error { return ErrNoSpace }

// CallbackError means the tree was already mutated when the completion
// callback failed. Callers must not retry blindly.
type CallbackError struct {
	RootID string
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("inventory: placement callback failed for %s: %v", e.RootID, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }
