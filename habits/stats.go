package habits

import (
	"math"
	"time"

	"github.com/habitloop/server/models"
)

// ComputeStats aggregates completion counts across a user's habits. The
// weekly and monthly windows are rolling instant windows (now minus 7 and 30
// full days, boundary inclusive), not calendar-day aligned like the streak
// engine.
func ComputeStats(hs []models.Habit, now time.Time) models.Stats {
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	stats := models.Stats{
		TotalHabits: len(hs),
		Habits:      make([]models.HabitSummary, 0, len(hs)),
	}

	for i := range hs {
		h := &hs[i]
		stats.TotalCompletions += len(h.CompletedDates)
		for _, d := range h.CompletedDates {
			if !d.Before(weekAgo) {
				stats.WeeklyCompletions++
			}
			if !d.Before(monthAgo) {
				stats.MonthlyCompletions++
			}
		}
		stats.Habits = append(stats.Habits, models.HabitSummary{
			Title:         h.Title,
			CurrentStreak: h.CurrentStreak,
			LongestStreak: h.LongestStreak,
		})
	}

	// Fraction of the theoretical maximum of one check-in per habit per day
	// over the last week, as a percentage with two decimals.
	if stats.TotalHabits > 0 {
		rate := float64(stats.WeeklyCompletions) / float64(7*stats.TotalHabits) * 100
		stats.SuccessRate = math.Round(rate*100) / 100
	}

	return stats
}
