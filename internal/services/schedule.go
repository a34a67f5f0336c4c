package services

import (
	"time"

	"github.com/semihdurgun/monadagent/internal/types/business"
)

// NextExecution computes when a schedule fires next, strictly after now.
// Daily and weekly use calendar arithmetic; monthly pins to DayOfMonth,
// clamped to the target month's length.
func NextExecution(schedule business.PaymentSchedule, now time.Time) time.Time {
	switch schedule.Type {
	case business.IntervalDaily:
		return now.AddDate(0, 0, 1)

	case business.IntervalWeekly:
		target := time.Weekday(schedule.DayOfWeek % 7)
		days := int(target-now.Weekday()+7) % 7
		if days == 0 {
			days = 7
		}
		return now.AddDate(0, 0, days)

	case business.IntervalMonthly:
		day := schedule.DayOfMonth
		if day < 1 {
			day = 1
		}
		next := pinDay(now.Year(), now.Month(), day, now.Location())
		if !next.After(now) {
			next = pinDay(now.Year(), now.Month()+1, day, now.Location())
		}
		return next

	case business.IntervalYearly:
		return now.AddDate(1, 0, 0)
	}
	return now.AddDate(0, 0, 1)
}

// pinDay builds a date at midnight, clamping day to the month's length
func pinDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	// Normalize the month first so +1 past December rolls the year
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	lastDay := first.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
}
