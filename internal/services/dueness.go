package services

import (
	"fmt"

	"simplebudget/internal/core"
)

// DuenessChecker decides whether a recurring expense template should produce
// an expense today, given when it last did.
type DuenessChecker interface {
	IsDue(lastMaterialized, today, startDay core.Day) bool
}

// DailyChecker is due once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastMaterialized, today, _ core.Day) bool {
	if lastMaterialized.IsZero() {
		return true
	}
	return lastMaterialized.Before(today)
}

// WeeklyChecker is due once 7 or more days have passed.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastMaterialized, today, _ core.Day) bool {
	if lastMaterialized.IsZero() {
		return true
	}
	return today.EpochDay()-lastMaterialized.EpochDay() >= 7
}

// MonthlyChecker is due once per month when the start day's day-of-month is
// reached. A target day past the end of a short month clamps to its last day.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastMaterialized, today, startDay core.Day) bool {
	if lastMaterialized.IsZero() {
		return true
	}
	if lastMaterialized.SameMonth(today) {
		return false
	}

	targetDay := startDay.Day
	if lastDay := today.EndOfMonth().Day; targetDay > lastDay {
		targetDay = lastDay
	}
	return today.Day >= targetDay
}

// YearlyChecker is due once per year when the start day's month and day are
// reached, with the same short-month clamping as MonthlyChecker.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastMaterialized, today, startDay core.Day) bool {
	if lastMaterialized.IsZero() {
		return true
	}
	if lastMaterialized.Year == today.Year {
		return false
	}

	if today.Month < startDay.Month {
		return false
	}
	if today.Month == startDay.Month {
		targetDay := startDay.Day
		if lastDay := today.EndOfMonth().Day; targetDay > lastDay {
			targetDay = lastDay
		}
		return today.Day >= targetDay
	}
	return true
}

var duenessStrategies = map[core.RecurrenceType]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// CheckerFor returns the dueness checker for a recurrence type.
func CheckerFor(t core.RecurrenceType) (DuenessChecker, error) {
	checker, ok := duenessStrategies[t]
	if !ok {
		return nil, fmt.Errorf("unknown recurrence type: %s", t)
	}
	return checker, nil
}
