package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tannerhall/tritrack/internal/constants"
	"github.com/tannerhall/tritrack/internal/models"
	"github.com/tannerhall/tritrack/internal/storage"
	"github.com/tannerhall/tritrack/internal/validation"
)

// scanDays assembles DayRecords from entry rows ordered by day.
func scanDays(rows *sql.Rows) ([]models.DayRecord, error) {
	var days []models.DayRecord
	byDay := make(map[string]int)

	for rows.Next() {
		var userID, day, category, entryType, updatedAt string
		var quantity int
		if err := rows.Scan(&userID, &day, &category, &entryType, &quantity, &updatedAt); err != nil {
			return nil, err
		}

		ts, err := time.Parse(time.RFC3339, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
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
			UpdatedAt: ts,
		})
	}
	return days, rows.Err()
}

func (s *Store) GetDay(userID, day string) (models.DayRecord, error) {
	if err := validation.Day(day); err != nil {
		return models.DayRecord{}, err
	}

	rows, err := s.db.Query(`
		SELECT user_id, day, category, entry_type, quantity, updated_at
		FROM day_entries WHERE user_id = ? AND day = ?
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
		SELECT user_id, day, category, entry_type, quantity, updated_at
		FROM day_entries WHERE user_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC, category, entry_type`, userID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDays(rows)
}

func (s *Store) GetAll(userID string) ([]models.DayRecord, error) {
	rows, err := s.db.Query(`
		SELECT user_id, day, category, entry_type, quantity, updated_at
		FROM day_entries WHERE user_id = ?
		ORDER BY day DESC, category, entry_type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanDays(rows)
}

func (s *Store) GetAllDays() ([]models.DayRecord, error) {
	rows, err := s.db.Query(`
		SELECT user_id, day, category, entry_type, quantity, updated_at
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
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, day, category, entry_type)
		DO UPDATE SET quantity = quantity + excluded.quantity, updated_at = excluded.updated_at`,
		userID, day, string(cat), entryType, qty, time.Now().UTC().Format(time.RFC3339))
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
		WHERE user_id = ? AND day = ? AND category = ? AND entry_type = ?`,
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
			WHERE user_id = ? AND day = ? AND category = ? AND entry_type = ?`,
			userID, day, string(cat), entryType)
		return err
	}

	_, err = tx.Exec(`
		UPDATE day_entries SET quantity = quantity - ?, updated_at = ?
		WHERE user_id = ? AND day = ? AND category = ? AND entry_type = ?`,
		qty, time.Now().UTC().Format(time.RFC3339), userID, day, string(cat), entryType)
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
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, day, category, entry_type)
		DO UPDATE SET quantity = quantity + excluded.quantity, updated_at = excluded.updated_at`,
		userID, newDay, string(cat), entryType, qty, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	return tx.Commit()
}
