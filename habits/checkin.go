package habits

import (
	"errors"
	"time"

	"github.com/habitloop/server/dates"
	"github.com/habitloop/server/models"
)

// ErrAlreadyCheckedIn rejects a second check-in on the same calendar day.
var ErrAlreadyCheckedIn = errors.New("already marked today")

// CheckIn records a completion of h for the calendar day of now and updates
// the streak counters. It is the only operation that mutates a habit. The
// counters are derived from the last completion day alone, so a check-in is
// O(1) and CompletedDates stays an append-only log.
func CheckIn(h *models.Habit, now time.Time) error {
	today := dates.DayOf(now)

	if n := len(h.CompletedDates); n > 0 {
		last := dates.DayOf(h.CompletedDates[n-1])
		if last == today {
			return ErrAlreadyCheckedIn
		}
		if dates.DaysBetween(last, today) == 1 {
			h.CurrentStreak++
		} else {
			// A gap of two or more days breaks the streak. A now that lands
			// before the last completion counts as broken too.
			h.CurrentStreak = 1
		}
	} else {
		h.CurrentStreak = 1
	}

	if h.CurrentStreak > h.LongestStreak {
		h.LongestStreak = h.CurrentStreak
	}

	h.CompletedDates = append(h.CompletedDates, now)
	return nil
}
