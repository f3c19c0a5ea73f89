package report

import (
	"fmt"
	"time"
)

// Period selects the window of a dashboard.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod converts s to a Period. An empty string selects daily.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "":
		return PeriodDaily, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(s), nil
	}
	return "", fmt.Errorf("invalid period: %s", s)
}

// Since returns the start of the period ending at now: midnight today, seven days ago, or one month ago.
func (p Period) Since(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	switch p {
	case PeriodWeekly:
		return now.AddDate(0, 0, -7)
	case PeriodMonthly:
		return now.AddDate(0, -1, 0)
	default:
		return StartOfDay(now, loc)
	}
}

// StartOfDay returns midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek returns midnight of the Sunday starting t's week in loc.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// StartOfMonth returns midnight of the first day of t's month in loc.
func StartOfMonth(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// MonthWindow returns [first instant, first instant of next month) for year and month in loc.
func MonthWindow(year int, month time.Month, loc *time.Location) (time.Time, time.Time, error) {
	if month < time.January || month > time.December {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month: %d", month)
	}
	if year < 1970 || year > 9999 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid year: %d", year)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0), nil
}
