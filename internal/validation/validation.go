package validation

import (
	"errors"
	"fmt"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/utils"
)

var (
	// ErrInvalidDate is returned for anything that is not a bare
	// ISO calendar date (YYYY-MM-DD).
	ErrInvalidDate = errors.New("invalid date")
	// ErrUnknownCategory is returned for categories outside the fixed set.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownEntryType is returned for entry types outside the
	// category's closed set.
	ErrUnknownEntryType = errors.New("unknown entry type")
	// ErrInvalidQuantity is returned for quantities below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Day validates a calendar date string.
func Day(day string) error {
	if _, err := utils.ParseDay(day); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	return nil
}

// Category validates a category name and returns its typed form.
func Category(name string) (constants.Category, error) {
	for _, cat := range constants.Categories {
		if string(cat) == name {
			return cat, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of sport, social, nutrition)", ErrUnknownCategory, name)
}

// EntryType validates an entry type against its category's closed set.
func EntryType(cat constants.Category, entryType string) error {
	for _, t := range constants.EntryTypes[cat] {
		if t == entryType {
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not a %s type", ErrUnknownEntryType, entryType, cat)
}

// Quantity validates a mutation quantity.
func Quantity(qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	return nil
}

// Mutation validates the full parameter set of a mutation intent and
// returns the typed category.
func Mutation(day, category, entryType string, qty int) (constants.Category, error) {
	if err := Day(day); err != nil {
		return "", err
	}
	cat, err := Category(category)
	if err != nil {
		return "", err
	}
	if err := EntryType(cat, entryType); err != nil {
		return "", err
	}
	if err := Quantity(qty); err != nil {
		return "", err
	}
	return cat, nil
}
