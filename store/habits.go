package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/habitloop/server/models"
)

const habitColumns = "id, user_id, title, current_streak, longest_streak, created_at, updated_at"

func (s *Store) CreateHabit(ctx context.Context, h *models.Habit) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	query := "INSERT INTO habits (id, user_id, title) VALUES ($1, $2, $3) RETURNING created_at, updated_at"
	logQuery(query, h.ID, h.UserID, h.Title)

	err := s.db.QueryRowContext(ctx, query, h.ID, h.UserID, h.Title).Scan(&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: create habit: %w", err)
	}
	return nil
}

func (s *Store) HabitByID(ctx context.Context, id string) (*models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE id = $1"
	logQuery(query, id)

	var h models.Habit
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&h.ID, &h.UserID, &h.Title, &h.CurrentStreak, &h.LongestStreak, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: habit by id: %w", err)
	}

	hs := []models.Habit{h}
	if err := s.attachCompletions(ctx, hs); err != nil {
		return nil, err
	}
	return &hs[0], nil
}

func (s *Store) HabitsByUser(ctx context.Context, userID string) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE user_id = $1 ORDER BY created_at"
	logQuery(query, userID)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("store: habits by user: %w", err)
	}
	hs, err := scanHabits(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachCompletions(ctx, hs); err != nil {
		return nil, err
	}
	return hs, nil
}

// HabitsPage returns up to limit habits with ids greater than afterID,
// ordered by id. An empty afterID starts from the beginning. The reminder
// job walks all habits through this without holding them in memory at once.
func (s *Store) HabitsPage(ctx context.Context, afterID string, limit int) ([]models.Habit, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if afterID == "" {
		query := "SELECT " + habitColumns + " FROM habits ORDER BY id LIMIT $1"
		logQuery(query, limit)
		rows, err = s.db.QueryContext(ctx, query, limit)
	} else {
		query := "SELECT " + habitColumns + " FROM habits WHERE id > $1 ORDER BY id LIMIT $2"
		logQuery(query, afterID, limit)
		rows, err = s.db.QueryContext(ctx, query, afterID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("store: habits page: %w", err)
	}
	hs, err := scanHabits(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachCompletions(ctx, hs); err != nil {
		return nil, err
	}
	return hs, nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	query := "DELETE FROM habits WHERE id = $1"
	logQuery(query, id)

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: delete habit: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete habit: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordCheckIn persists the outcome of a check-in: the appended completion
// plus the recomputed counters. The one-per-day index makes the insert
// conditional, so a concurrent check-in for the same day surfaces as
// ErrConflict instead of double counting.
func (s *Store) RecordCheckIn(ctx context.Context, h *models.Habit) error {
	if len(h.CompletedDates) == 0 {
		return fmt.Errorf("store: record check-in: habit %s has no completions", h.ID)
	}
	completedAt := h.CompletedDates[len(h.CompletedDates)-1]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: record check-in: %w", err)
	}
	defer tx.Rollback()

	insert := "INSERT INTO completions (habit_id, completed_at) VALUES ($1, $2)"
	logQuery(insert, h.ID, completedAt)
	if _, err := tx.ExecContext(ctx, insert, h.ID, completedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("store: record check-in: %w", err)
	}

	update := "UPDATE habits SET current_streak = $1, longest_streak = $2, updated_at = now() WHERE id = $3"
	logQuery(update, h.CurrentStreak, h.LongestStreak, h.ID)
	if _, err := tx.ExecContext(ctx, update, h.CurrentStreak, h.LongestStreak, h.ID); err != nil {
		return fmt.Errorf("store: record check-in: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: record check-in: %w", err)
	}
	return nil
}

func scanHabits(rows *sql.Rows) ([]models.Habit, error) {
	defer rows.Close()

	var hs []models.Habit
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.UserID, &h.Title, &h.CurrentStreak, &h.LongestStreak, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan habit: %w", err)
		}
		hs = append(hs, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: scan habits: %w", err)
	}
	return hs, nil
}

func (s *Store) attachCompletions(ctx context.Context, hs []models.Habit) error {
	if len(hs) == 0 {
		return nil
	}

	ids := make([]string, len(hs))
	index := make(map[string]int, len(hs))
	for i := range hs {
		ids[i] = hs[i].ID
		index[hs[i].ID] = i
	}

	query := "SELECT habit_id, completed_at FROM completions WHERE habit_id = ANY($1) ORDER BY completed_at"
	logQuery(query, ids)

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("store: load completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			habitID     string
			completedAt sql.NullTime
		)
		if err := rows.Scan(&habitID, &completedAt); err != nil {
			return fmt.Errorf("store: scan completion: %w", err)
		}
		if i, ok := index[habitID]; ok && completedAt.Valid {
			hs[i].CompletedDates = append(hs[i].CompletedDates, completedAt.Time)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("store: load completions: %w", err)
	}
	return nil
}
