package core

import (
	"testing"
	"time"
)

func TestDayMonthBounds(t *testing.T) {
	cases := []struct {
		day        Day
		startOf    Day
		endOf      Day
		daysInMont int
	}{
		{NewDay(2024, time.March, 15), NewDay(2024, time.March, 1), NewDay(2024, time.March, 31), 31},
		{NewDay(2024, time.February, 10), NewDay(2024, time.February, 1), NewDay(2024, time.February, 29), 29}, // leap year
		{NewDay(2023, time.February, 10), NewDay(2023, time.February, 1), NewDay(2023, time.February, 28), 28},
		{NewDay(2024, time.April, 30), NewDay(2024, time.April, 1), NewDay(2024, time.April, 30), 30},
	}
	for _, tc := range cases {
		if got := tc.day.StartOfMonth(); got != tc.startOf {
			t.Errorf("%v StartOfMonth = %v, want %v", tc.day, got, tc.startOf)
		}
		if got := tc.day.EndOfMonth(); got != tc.endOf {
			t.Errorf("%v EndOfMonth = %v, want %v", tc.day, got, tc.endOf)
		}
	}
}

func TestDayNextCrossesMonth(t *testing.T) {
	d := NewDay(2024, time.January, 31)
	if got := d.Next(); got != NewDay(2024, time.February, 1) {
		t.Fatalf("Next = %v, want 2024-02-01", got)
	}
	d = NewDay(2024, time.December, 31)
	if got := d.Next(); got != NewDay(2025, time.January, 1) {
		t.Fatalf("Next = %v, want 2025-01-01", got)
	}
}

func TestDayEpochRoundTrip(t *testing.T) {
	days := []Day{
		NewDay(1970, time.January, 1),
		NewDay(2024, time.March, 15),
		NewDay(1969, time.December, 31),
		NewDay(2100, time.June, 1),
	}
	for _, d := range days {
		if got := DayFromEpoch(d.EpochDay()); got != d {
			t.Errorf("round trip %v -> %d -> %v", d, d.EpochDay(), got)
		}
	}
	if NewDay(1970, time.January, 1).EpochDay() != 0 {
		t.Error("epoch day of 1970-01-01 should be 0")
	}
}

func TestDayOrdering(t *testing.T) {
	a := NewDay(2024, time.March, 15)
	b := NewDay(2024, time.March, 16)
	c := NewDay(2024, time.April, 1)
	if !a.Before(b) || !b.Before(c) || c.Before(a) {
		t.Fatal("Before ordering broken")
	}
	if !c.After(a) || a.After(a) {
		t.Fatal("After ordering broken")
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-03-15")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if d != NewDay(2024, time.March, 15) {
		t.Fatalf("ParseDay = %v", d)
	}
	if _, err := ParseDay("15/03/2024"); err == nil {
		t.Fatal("expected error for bad format")
	}
}

func TestDayValidate(t *testing.T) {
	if err := NewDay(2024, time.February, 30).Validate(); err == nil {
		t.Error("2024-02-30 should be invalid")
	}
	if err := NewDay(2024, time.February, 29).Validate(); err != nil {
		t.Errorf("2024-02-29 should be valid: %v", err)
	}
	if err := (Day{}).Validate(); err == nil {
		t.Error("zero day should be invalid")
	}
}
