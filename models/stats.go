package models

// HabitSummary is the per-habit slice of the stats response.
type HabitSummary struct {
	Title         string `json:"title"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
}

type Stats struct {
	TotalHabits        int            `json:"totalHabits"`
	TotalCompletions   int            `json:"totalCompletions"`
	WeeklyCompletions  int            `json:"weeklyCompletions"`
	MonthlyCompletions int            `json:"monthlyCompletions"`
	SuccessRate        float64        `json:"successRate"`
	Habits             []HabitSummary `json:"habits"`
}
