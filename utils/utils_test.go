package utils_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/cpnlib/utils"
)

func TestYearFraction_Conventions(t *testing.T) {
	t.Parallel()

	start := time.Date(2011, 1, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2011, 7, 4, 0, 0, 0, 0, time.UTC)

	if got, want := utils.YearFraction(start, end, utils.Act365), 179.0/365.0; math.Abs(got-want) > 1e-15 {
		t.Fatalf("ACT/365: got %.15f want %.15f", got, want)
	}
	if got, want := utils.YearFraction(start, end, utils.Act360), 179.0/360.0; math.Abs(got-want) > 1e-15 {
		t.Fatalf("ACT/360: got %.15f want %.15f", got, want)
	}
	if got, want := utils.YearFraction(start, end, utils.Dc30E), 178.0/360.0; math.Abs(got-want) > 1e-15 {
		t.Fatalf("30E/360: got %.15f want %.15f", got, want)
	}
}

func TestDaysBetween_IgnoresClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2011, 3, 20, 23, 0, 0, 0, time.UTC)
	end := time.Date(2011, 3, 21, 1, 0, 0, 0, time.UTC)
	if got := utils.DaysBetween(start, end); got != 1 {
		t.Fatalf("DaysBetween: got %d want 1", got)
	}
	if got := utils.DaysBetween(end, start); got != -1 {
		t.Fatalf("DaysBetween reversed: got %d want -1", got)
	}
}

func TestParseDateAndKey(t *testing.T) {
	t.Parallel()

	d, err := utils.ParseDate("2011-07-06")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if utils.DateKey(d) != "2011-07-06" {
		t.Fatalf("DateKey mismatch: %s", utils.DateKey(d))
	}
	if _, err := utils.ParseDate("07/06/2011"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestAddMonth_ClipsToMonthEnd(t *testing.T) {
	t.Parallel()

	got := utils.AddMonth(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1)
	if want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("AddMonth: got %s want %s", got, want)
	}
	if !utils.IsLastDayOfMonth(got) {
		t.Fatalf("expected month end")
	}
}
