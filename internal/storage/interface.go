package storage

import (
	"errors"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("not found")

// Provider is the durable record store behind the session cache. All
// operations are per-user scoped and assumed atomic per document; writes
// for one (user, day) never interleave. Implementations must reject
// malformed dates (anything that is not a bare YYYY-MM-DD string).
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Day records. GetDay returns ErrNotFound for days with no entries.
	// GetRange returns records in ascending day order; GetAll returns the
	// full history in descending day order, the canonical order for
	// all-time views. Neither includes logically deleted (all-empty) days.
	GetDay(userID, day string) (models.DayRecord, error)
	GetRange(userID, startDay, endDay string) ([]models.DayRecord, error)
	GetAll(userID string) ([]models.DayRecord, error)

	// Entry mutations. AddEntry increments the (category, type) quantity
	// for the day, creating the record implicitly. RemoveEntry decrements
	// and deletes the entry at zero; it returns ErrNotFound when the entry
	// does not exist. MoveEntry transfers a quantity between two days for
	// the same (category, type) atomically.
	AddEntry(userID, day string, cat constants.Category, entryType string, qty int) error
	RemoveEntry(userID, day string, cat constants.Category, entryType string, qty int) error
	MoveEntry(userID, oldDay, newDay string, cat constants.Category, entryType string, qty int) error

	// Bulk retrieval for diagnostics and migration
	GetAllDays() ([]models.DayRecord, error)

	// Utils
	GetConfigPath() string
}
