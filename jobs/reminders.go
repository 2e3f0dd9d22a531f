package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/habitloop/server/habits"
	"github.com/habitloop/server/models"
	"github.com/habitloop/server/store"
)

// DefaultSpec fires the reminder pass at 19:00 in the reference timezone.
const DefaultSpec = "0 19 * * *"

const pageSize = 200

// Reminders owns the daily reminder job.
type Reminders struct {
	Store  *store.Store
	Notify habits.Notifier
}

// Schedule registers the job with c under the given cron spec.
func (j *Reminders) Schedule(c *cron.Cron, spec string) error {
	_, err := c.AddFunc(spec, j.Run)
	return err
}

// Run executes one pass against the current clock and logs the report.
func (j *Reminders) Run() {
	logrus.Info("reminders: running daily pass")

	report, err := j.RunAt(context.Background(), time.Now())
	entry := logrus.WithFields(logrus.Fields{
		"eligible":             report.Eligible,
		"notified":             report.Notified,
		"skipped_already_done": report.SkippedAlreadyDone,
		"skipped_missing_user": report.SkippedMissingUser,
		"failed_notify":        report.FailedNotify,
	})
	if err != nil {
		entry.WithError(err).Error("reminders: pass aborted")
		return
	}
	entry.Info("reminders: pass complete")
}

// RunAt pages through every habit and feeds each page to the reminder pass,
// merging the per-page reports. A store failure aborts the walk and returns
// what was counted so far.
func (j *Reminders) RunAt(ctx context.Context, now time.Time) (habits.Report, error) {
	var report habits.Report

	after := ""
	for {
		page, err := j.Store.HabitsPage(ctx, after, pageSize)
		if err != nil {
			return report, err
		}
		if len(page) == 0 {
			return report, nil
		}

		pageReport, err := habits.RunReminderPass(ctx, page, now, j.lookupUser, j.Notify)
		report.Merge(pageReport)
		if err != nil {
			return report, err
		}

		if len(page) < pageSize {
			return report, nil
		}
		after = page[len(page)-1].ID
	}
}

// lookupUser adapts the store to the pass's missing-user contract: a habit
// whose owner row is gone is a skip, not an error.
func (j *Reminders) lookupUser(ctx context.Context, id string) (*models.User, error) {
	u, err := j.Store.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return u, err
}
