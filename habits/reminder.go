package habits

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/habitloop/server/dates"
	"github.com/habitloop/server/models"
)

// UserLookup resolves a habit's owner. Returning (nil, nil) means the owner
// record no longer exists, which the pass treats as a skip, not an error.
type UserLookup func(ctx context.Context, userID string) (*models.User, error)

// Notifier delivers one reminder. Its failures belong to the notifier; the
// pass records them per habit and keeps going.
type Notifier func(ctx context.Context, email, habitTitle string) error

// Report tallies one reminder pass.
type Report struct {
	Eligible           int `json:"eligible"`
	Notified           int `json:"notified"`
	SkippedAlreadyDone int `json:"skippedAlreadyDone"`
	SkippedMissingUser int `json:"skippedMissingUser"`
	FailedNotify       int `json:"failedNotify"`
}

// Merge adds o's counts into r.
func (r *Report) Merge(o Report) {
	r.Eligible += o.Eligible
	r.Notified += o.Notified
	r.SkippedAlreadyDone += o.SkippedAlreadyDone
	r.SkippedMissingUser += o.SkippedMissingUser
	r.FailedNotify += o.FailedNotify
}

// RunReminderPass walks hs and sends one reminder per habit without a
// completion on the calendar day of now. Best effort: at least one attempt
// per eligible habit, no retries within the pass. Only a lookup failure
// (store outage) or context cancellation aborts the walk; both return the
// partial report.
func RunReminderPass(ctx context.Context, hs []models.Habit, now time.Time, lookup UserLookup, notify Notifier) (Report, error) {
	var report Report

	for i := range hs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		h := &hs[i]
		report.Eligible++

		if completedToday(h, now) {
			report.SkippedAlreadyDone++
			continue
		}

		user, err := lookup(ctx, h.UserID)
		if err != nil {
			return report, err
		}
		if user == nil {
			report.SkippedMissingUser++
			logrus.WithFields(logrus.Fields{
				"habit": h.ID,
				"user":  h.UserID,
			}).Warn("reminder: habit owner not found")
			continue
		}

		if err := notify(ctx, user.Email, h.Title); err != nil {
			report.FailedNotify++
			logrus.WithError(err).WithField("habit", h.ID).Warn("reminder: notify failed")
			continue
		}
		report.Notified++
	}

	return report, nil
}

func completedToday(h *models.Habit, now time.Time) bool {
	for _, d := range h.CompletedDates {
		if dates.SameDay(d, now) {
			return true
		}
	}
	return false
}
