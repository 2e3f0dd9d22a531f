package habits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/habitloop/server/models"
)

func lookupUsers(users map[string]*models.User) UserLookup {
	return func(ctx context.Context, id string) (*models.User, error) {
		return users[id], nil
	}
}

func TestReminderPassSkipsCompletedToday(t *testing.T) {
	now := time.Date(2024, 6, 10, 19, 0, 0, 0, time.UTC)
	hs := []models.Habit{
		{ID: "h1", UserID: "u1", Title: "read", CompletedDates: []time.Time{now.Add(-2 * time.Hour)}},
		{ID: "h2", UserID: "u1", Title: "run"},
	}
	users := map[string]*models.User{"u1": {ID: "u1", Email: "u1@example.com"}}

	var sent []string
	notify := func(ctx context.Context, email, title string) error {
		sent = append(sent, title)
		return nil
	}

	report, err := RunReminderPass(context.Background(), hs, now, lookupUsers(users), notify)

	assert.NoError(t, err)
	assert.Equal(t, 2, report.Eligible)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, 1, report.SkippedAlreadyDone)
	assert.Equal(t, []string{"run"}, sent)
}

func TestReminderPassMissingOwner(t *testing.T) {
	now := time.Date(2024, 6, 10, 19, 0, 0, 0, time.UTC)
	hs := []models.Habit{{ID: "h1", UserID: "gone", Title: "read"}}

	notify := func(ctx context.Context, email, title string) error {
		t.Fatal("notify should not be called")
		return nil
	}

	report, err := RunReminderPass(context.Background(), hs, now, lookupUsers(nil), notify)

	assert.NoError(t, err)
	assert.Equal(t, 1, report.SkippedMissingUser)
	assert.Equal(t, 0, report.Notified)
}

func TestReminderPassIsolatesNotifyFailures(t *testing.T) {
	now := time.Date(2024, 6, 10, 19, 0, 0, 0, time.UTC)
	hs := []models.Habit{
		{ID: "h1", UserID: "u1", Title: "read"},
		{ID: "h2", UserID: "u1", Title: "run"},
		{ID: "h3", UserID: "u1", Title: "write"},
	}
	users := map[string]*models.User{"u1": {ID: "u1", Email: "u1@example.com"}}

	notify := func(ctx context.Context, email, title string) error {
		if title == "run" {
			return errors.New("smtp down")
		}
		return nil
	}

	report, err := RunReminderPass(context.Background(), hs, now, lookupUsers(users), notify)

	assert.NoError(t, err)
	assert.Equal(t, 3, report.Eligible)
	assert.Equal(t, 2, report.Notified)
	assert.Equal(t, 1, report.FailedNotify)
}

func TestReminderPassAbortsOnLookupError(t *testing.T) {
	now := time.Date(2024, 6, 10, 19, 0, 0, 0, time.UTC)
	hs := []models.Habit{
		{ID: "h1", UserID: "u1", Title: "read"},
		{ID: "h2", UserID: "u1", Title: "run"},
	}

	lookup := func(ctx context.Context, id string) (*models.User, error) {
		return nil, errors.New("store outage")
	}
	notify := func(ctx context.Context, email, title string) error { return nil }

	report, err := RunReminderPass(context.Background(), hs, now, lookup, notify)

	assert.Error(t, err)
	// The first habit aborts the pass before any notification goes out.
	assert.Equal(t, 1, report.Eligible)
	assert.Equal(t, 0, report.Notified)
}

func TestReminderPassHonorsCancellation(t *testing.T) {
	now := time.Date(2024, 6, 10, 19, 0, 0, 0, time.UTC)
	hs := []models.Habit{
		{ID: "h1", UserID: "u1", Title: "read"},
		{ID: "h2", UserID: "u1", Title: "run"},
	}
	users := map[string]*models.User{"u1": {ID: "u1", Email: "u1@example.com"}}

	ctx, cancel := context.WithCancel(context.Background())
	notified := 0
	notify := func(ctx context.Context, email, title string) error {
		notified++
		cancel()
		return nil
	}

	report, err := RunReminderPass(ctx, hs, now, lookupUsers(users), notify)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, notified)
	assert.Equal(t, 1, report.Notified)
}

func TestReportMerge(t *testing.T) {
	a := Report{Eligible: 2, Notified: 1, SkippedAlreadyDone: 1}
	b := Report{Eligible: 3, Notified: 2, SkippedMissingUser: 1}

	a.Merge(b)

	assert.Equal(t, Report{Eligible: 5, Notified: 3, SkippedAlreadyDone: 1, SkippedMissingUser: 1}, a)
}
