package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/storage"
	"github.com/tannerhall/tritrack/internal/validation"
)

// scanDays assembles DayRecords from entry rows ordered by day. The day
// column is selected as text so both backends produce identical records.
func scanDays(rows *sql.Rows) ([]models.DayRecord, error) {
	var days []models.DayRecord
	byDay := make(map[string]int)

	for rows.Next() {
		var userID, day, category, entryType string
		var quantity int
		var updatedAt time.Time
		if err := rows.Scan(&userID, &day, &category, &entryType, &quantity, &updatedAt); err != nil {
			return nil, err
		}

		idx, ok := byDay[userID+"|"+day]
		if !ok {
			days = append(days, models.NewDayRecord(userID, day))
			idx = len(days) - 1
			byDay[userID+"|"+day] = idx
		}

		cat := constants.Category(category)
		days[idx].Buckets[cat] = append(days[idx].Buckets[cat], models.TypedEntry{
			Type:      entryType,
			Quantity:  quantity,
			UpdatedAt: updatedAt.UTC(),
		})
	}
	return days, rows.Err()
}

const selectColumns = "user_id, day::text, category, entry_type, quantity, updated_at"

func (s *Store) GetDay(userID, day string) (models.DayRecord, error) {
	if err := validation.Day(day); err != nil {
		return models.DayRecord{}, err
	}

	rows, err := s.db.Query(`
		SELECT `+selectColumns+`
		FROM day_entries WHERE user_id = $1 AND day = $2
		ORDER BY category, entry_type`, userID, day)
	if err != nil {
		return models.DayRecord{}, err
	}
	defer rows.Close()

	days, err := scanDays(rows)
	if err != nil {
		return models.DayRecord{}, err
	}
	if len(days) == 0 {
		return models.DayRecord{}, storage.ErrNotFound
	}
	return days[0], nil
}

func (s *Store) GetRange(userID, startDay, endDay string) ([]models.DayRecord, error) {
	if err := validation.Day(startDay); err != nil {
		return nil, err
	}
	if err := validation.Day(endDay); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT `+selectColumns+`
		FROM day_entries WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day ASC, category, entry_type`, userID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDays(rows)
}

func (s *Store) GetAll(userID string) ([]models.DayRecord, error) {
	rows, err := s.db.Query(`
		SELECT `+selectColumns+`
		FROM day_entries WHERE user_id = $1
		ORDER BY day DESC, category, entry_type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDays(rows)
}

func (s *Store) GetAllDays() ([]models.DayRecord, error) {
	rows, err := s.db.Query(`
		SELECT ` + selectColumns + `
		FROM day_entries
		ORDER BY user_id, day DESC, category, entry_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDays(rows)
}

func (s *Store) AddEntry(userID, day string, cat constants.Category, entryType string, qty int) error {
	if _, err := validation.Mutation(day, string(cat), entryType, qty); err != nil {
		return err
	}

	_, err := s.db.Exec(`
		INSERT INTO day_entries (user_id, day, category, entry_type, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, day, category, entry_type)
		DO UPDATE SET quantity = day_entries.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		userID, day, string(cat), entryType, qty, time.Now().UTC())
	return err
}

func (s *Store) RemoveEntry(userID, day string, cat constants.Category, entryType string, qty int) error {
	if _, err := validation.Mutation(day, string(cat), entryType, qty); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := removeEntryTx(tx, userID, day, cat, entryType, qty); err != nil {
		return err
	}
	return tx.Commit()
}

func removeEntryTx(tx *sql.Tx, userID, day string, cat constants.Category, entryType string, qty int) error {
	var current int
	err := tx.QueryRow(`
		SELECT quantity FROM day_entries
		WHERE user_id = $1 AND day = $2 AND category = $3 AND entry_type = $4
		FOR UPDATE`,
		userID, day, string(cat), entryType).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return err
	}

	if current-qty <= 0 {
		_, err = tx.Exec(`
			DELETE FROM day_entries
			WHERE user_id = $1 AND day = $2 AND category = $3 AND entry_type = $4`,
			userID, day, string(cat), entryType)
		return err
	}

	_, err = tx.Exec(`
		UPDATE day_entries SET quantity = quantity - $1, updated_at = $2
		WHERE user_id = $3 AND day = $4 AND category = $5 AND entry_type = $6`,
		qty, time.Now().UTC(), userID, day, string(cat), entryType)
	return err
}

func (s *Store) MoveEntry(userID, oldDay, newDay string, cat constants.Category, entryType string, qty int) error {
	if _, err := validation.Mutation(oldDay, string(cat), entryType, qty); err != nil {
		return err
	}
	if err := validation.Day(newDay); err != nil {
		return err
	}
	if oldDay == newDay {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := removeEntryTx(tx, userID, oldDay, cat, entryType, qty); err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO day_entries (user_id, day, category, entry_type, quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, day, category, entry_type)
		DO UPDATE SET quantity = day_entries.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`,
		userID, newDay, string(cat), entryType, qty, time.Now().UTC())
	if err != nil {
		return err
	}

	return tx.Commit()
}
