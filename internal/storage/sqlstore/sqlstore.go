// Package sqlstore holds the habit, completion and settings queries shared by the
// SQLite and PostgreSQL stores. Queries are written with ? placeholders and
// rebound for PostgreSQL.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/habitkit/internal/models"
	"github.com/julianstephens/habitkit/internal/storage"
)

type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Queries implements storage.Tx on top of a DBTX.
type Queries struct {
	db      DBTX
	dialect Dialect
}

func New(db DBTX, dialect Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (q *Queries) rebind(query string) string {
	if q.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (q *Queries) exec(query string, args ...any) (sql.Result, error) {
	return q.db.Exec(q.rebind(query), args...)
}

func (q *Queries) query(query string, args ...any) (*sql.Rows, error) {
	return q.db.Query(q.rebind(query), args...)
}

func (q *Queries) queryRow(query string, args ...any) *sql.Row {
	return q.db.QueryRow(q.rebind(query), args...)
}

const habitColumns = `id, name, category, recurrence, target_value, current_value,
	creation_date, last_progress_date, last_completed_date, current_streak,
	best_streak, is_archived, archive_date, notification_time`

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var lastCompleted, archiveDate sql.NullInt64

	err := row.Scan(&h.ID, &h.Name, &h.Category, &h.Recurrence, &h.TargetValue, &h.CurrentValue,
		&h.CreationDate, &h.LastProgressDate, &lastCompleted, &h.CurrentStreak,
		&h.BestStreak, &h.IsArchived, &archiveDate, &h.NotificationTime)
	if err != nil {
		return models.Habit{}, err
	}

	if lastCompleted.Valid {
		v := lastCompleted.Int64
		h.LastCompletedDate = &v
	}
	if archiveDate.Valid {
		v := archiveDate.Int64
		h.ArchiveDate = &v
	}
	return h, nil
}

func nullable(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func (q *Queries) GetHabit(id int64) (models.Habit, error) {
	h, err := scanHabit(q.queryRow("SELECT "+habitColumns+" FROM habits WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to get habit %d: %w", id, err)
	}
	return h, nil
}

func (q *Queries) GetHabitByName(name string) (models.Habit, error) {
	h, err := scanHabit(q.queryRow(
		"SELECT "+habitColumns+" FROM habits WHERE LOWER(name) = LOWER(CAST(? AS TEXT)) ORDER BY id LIMIT 1", name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to get habit %q: %w", name, err)
	}
	return h, nil
}

func (q *Queries) GetAllHabits() ([]models.Habit, error) {
	rows, err := q.query("SELECT " + habitColumns + " FROM habits ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (q *Queries) InsertOrUpdateHabit(h models.Habit) (int64, error) {
	if h.ID != 0 {
		err := q.UpdateHabit(h)
		if err == nil {
			return h.ID, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return 0, err
		}
		// Explicit ID that does not exist yet, e.g. when copying between stores.
		_, err = q.exec(`INSERT INTO habits (`+habitColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID, h.Name, h.Category, h.Recurrence, h.TargetValue, h.CurrentValue,
			h.CreationDate, h.LastProgressDate, nullable(h.LastCompletedDate), h.CurrentStreak,
			h.BestStreak, h.IsArchived, nullable(h.ArchiveDate), h.NotificationTime)
		if err != nil {
			return 0, fmt.Errorf("failed to insert habit %d: %w", h.ID, err)
		}
		if q.dialect == Postgres {
			// Keep BIGSERIAL ahead of explicitly inserted IDs.
			_, err = q.exec("SELECT setval(pg_get_serial_sequence('habits', 'id'), (SELECT MAX(id) FROM habits))")
			if err != nil {
				return 0, fmt.Errorf("failed to advance habit id sequence: %w", err)
			}
		}
		return h.ID, nil
	}

	var id int64
	err := q.queryRow(`INSERT INTO habits (name, category, recurrence, target_value, current_value,
			creation_date, last_progress_date, last_completed_date, current_streak,
			best_streak, is_archived, archive_date, notification_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		h.Name, h.Category, h.Recurrence, h.TargetValue, h.CurrentValue,
		h.CreationDate, h.LastProgressDate, nullable(h.LastCompletedDate), h.CurrentStreak,
		h.BestStreak, h.IsArchived, nullable(h.ArchiveDate), h.NotificationTime).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert habit: %w", err)
	}
	return id, nil
}

func (q *Queries) UpdateHabit(h models.Habit) error {
	res, err := q.exec(`UPDATE habits SET
			name = ?, category = ?, recurrence = ?, target_value = ?, current_value = ?,
			creation_date = ?, last_progress_date = ?, last_completed_date = ?, current_streak = ?,
			best_streak = ?, is_archived = ?, archive_date = ?, notification_time = ?
		WHERE id = ?`,
		h.Name, h.Category, h.Recurrence, h.TargetValue, h.CurrentValue,
		h.CreationDate, h.LastProgressDate, nullable(h.LastCompletedDate), h.CurrentStreak,
		h.BestStreak, h.IsArchived, nullable(h.ArchiveDate), h.NotificationTime,
		h.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit %d: %w", h.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update habit %d: %w", h.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("habit %d: %w", h.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteAllHabits removes every habit and completion. Callers outside a
// transaction should go through the store, which wraps it in one.
func (q *Queries) DeleteAllHabits() error {
	if _, err := q.exec("DELETE FROM habit_completions"); err != nil {
		return fmt.Errorf("failed to delete completions: %w", err)
	}
	if _, err := q.exec("DELETE FROM habits"); err != nil {
		return fmt.Errorf("failed to delete habits: %w", err)
	}
	return nil
}

func (q *Queries) GetAllCompletions() ([]models.HabitCompletion, error) {
	rows, err := q.query(`SELECT id, habit_id, completion_date, completed_at
		FROM habit_completions ORDER BY completion_date, habit_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}
	defer rows.Close()

	var completions []models.HabitCompletion
	for rows.Next() {
		var c models.HabitCompletion
		if err := rows.Scan(&c.ID, &c.HabitID, &c.CompletionDate, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

func (q *Queries) AddCompletion(c models.HabitCompletion) error {
	_, err := q.exec(`INSERT INTO habit_completions (id, habit_id, completion_date, completed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (habit_id, completion_date)
		DO UPDATE SET id = excluded.id, completed_at = excluded.completed_at`,
		c.ID, c.HabitID, c.CompletionDate, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to add completion for habit %d: %w", c.HabitID, err)
	}
	return nil
}

func (q *Queries) RemoveCompletion(habitID int64, day int64) error {
	_, err := q.exec("DELETE FROM habit_completions WHERE habit_id = ? AND completion_date = ?", habitID, day)
	if err != nil {
		return fmt.Errorf("failed to remove completion for habit %d: %w", habitID, err)
	}
	return nil
}

func (q *Queries) GetSettings() (models.Settings, error) {
	rows, err := q.query("SELECT key, value FROM settings")
	if err != nil {
		return models.Settings{}, err
	}
	defer rows.Close()

	data := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, err
		}
		data[key] = value
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}

	if len(data) == 0 {
		return models.Settings{}, fmt.Errorf("settings not found")
	}
	return models.MapToSettings(data), nil
}

func (q *Queries) SaveSettings(settings models.Settings) error {
	for key, value := range models.SettingsToMap(settings) {
		_, err := q.exec(`INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
		if err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
	}
	return nil
}

// Transact runs fn against a transaction on db, committing on success.
func Transact(db *sql.DB, dialect Dialect, fn func(*Queries) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(New(tx, dialect)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RunInTx is Transact narrowed to storage.Tx for Provider.WithTx.
func RunInTx(db *sql.DB, dialect Dialect, fn func(storage.Tx) error) error {
	return Transact(db, dialect, func(q *Queries) error { return fn(q) })
}
