package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/habitloop/server/habits"
	"github.com/habitloop/server/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	return New(db), mock, func() { db.Close() }
}

func TestHabitByIDNotFound(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + habitColumns + " FROM habits WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	h, err := s.HabitByID(context.Background(), "missing")

	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestHabitByIDLoadsCompletions(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	first := time.Date(2024, 6, 2, 9, 0, 0, 0, time.UTC)
	second := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + habitColumns + " FROM habits WHERE id = $1")).
		WithArgs("h1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "title", "current_streak", "longest_streak", "created_at", "updated_at"},
		).AddRow("h1", "u1", "read", 2, 2, created, second))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT habit_id, completed_at FROM completions WHERE habit_id = ANY($1) ORDER BY completed_at")).
		WillReturnRows(sqlmock.NewRows([]string{"habit_id", "completed_at"}).
			AddRow("h1", first).
			AddRow("h1", second))

	h, err := s.HabitByID(context.Background(), "h1")

	assert.NoError(t, err)
	assert.Equal(t, "read", h.Title)
	assert.Equal(t, []time.Time{first, second}, h.CompletedDates)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestDeleteHabitNotFound(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM habits WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteHabit(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRecordCheckInPersistsCompletionAndCounters(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	h := &models.Habit{ID: "h1", UserID: "u1", Title: "read"}
	assert.NoError(t, habits.CheckIn(h, now))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completions (habit_id, completed_at) VALUES ($1, $2)")).
		WithArgs("h1", now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE habits SET current_streak = $1, longest_streak = $2, updated_at = now() WHERE id = $3")).
		WithArgs(1, 1, "h1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, s.RecordCheckIn(context.Background(), h))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRecordCheckInSameDayConflict(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	now := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	h := &models.Habit{ID: "h1", UserID: "u1", Title: "read"}
	assert.NoError(t, habits.CheckIn(h, now))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO completions (habit_id, completed_at) VALUES ($1, $2)")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := s.RecordCheckIn(context.Background(), h)

	assert.ErrorIs(t, err, ErrConflict)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at")).
		WillReturnError(&pq.Error{Code: "23505"})

	u := &models.User{Name: "Test", Email: "taken@example.com", PasswordHash: "x"}
	err := s.CreateUser(context.Background(), u)

	assert.ErrorIs(t, err, ErrConflict)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestHabitsPageAfterID(t *testing.T) {
	s, mock, done := newMockStore(t)
	defer done()

	created := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + habitColumns + " FROM habits WHERE id > $1 ORDER BY id LIMIT $2")).
		WithArgs("aaa", 2).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "title", "current_streak", "longest_streak", "created_at", "updated_at"},
		).AddRow("bbb", "u1", "read", 0, 0, created, created))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT habit_id, completed_at FROM completions WHERE habit_id = ANY($1) ORDER BY completed_at")).
		WillReturnRows(sqlmock.NewRows([]string{"habit_id", "completed_at"}))

	hs, err := s.HabitsPage(context.Background(), "aaa", 2)

	assert.NoError(t, err)
	assert.Len(t, hs, 1)
	assert.Equal(t, "bbb", hs[0].ID)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
