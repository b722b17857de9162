package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestNextExecutionDate_Daily(t *testing.T) {
	start := date(2024, time.January, 1, 9, 30, 0)
	got, err := NextExecutionDate(Daily, start, date(2024, time.January, 15, 9, 30, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := date(2024, time.January, 16, 9, 30, 0)
	if !got.Equal(want) {
		t.Errorf("NextExecutionDate(daily) = %v, want %v", got, want)
	}
}

func TestNextExecutionDate_Weekly(t *testing.T) {
	start := date(2024, time.January, 1, 8, 0, 0)
	got, err := NextExecutionDate(Weekly, start, date(2024, time.February, 26, 8, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := date(2024, time.March, 4, 8, 0, 0)
	if !got.Equal(want) {
		t.Errorf("NextExecutionDate(weekly) = %v, want %v", got, want)
	}
}

func TestNextExecutionDate_MonthlyClamping(t *testing.T) {
	// Template starting on the 31st walks Jan 31, Feb 29 (leap), Mar 31,
	// Apr 30, May 31 without sticking to the clamped day.
	start := date(2024, time.January, 31, 12, 0, 0)

	want := []time.Time{
		date(2024, time.February, 29, 12, 0, 0),
		date(2024, time.March, 31, 12, 0, 0),
		date(2024, time.April, 30, 12, 0, 0),
		date(2024, time.May, 31, 12, 0, 0),
	}

	from := start
	for i, w := range want {
		got, err := NextExecutionDate(Monthly, start, from)
		if err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
		if !got.Equal(w) {
			t.Fatalf("step %d: got %v, want %v", i, got, w)
		}
		from = got
	}
}

func TestNextExecutionDate_MonthlyNonLeapFebruary(t *testing.T) {
	start := date(2025, time.January, 31, 0, 0, 0)
	got, err := NextExecutionDate(Monthly, start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := date(2025, time.February, 28, 0, 0, 0)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNextExecutionDate_MonthlyDecemberRollover(t *testing.T) {
	start := date(2024, time.December, 15, 6, 45, 0)
	got, err := NextExecutionDate(Monthly, start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := date(2025, time.January, 15, 6, 45, 0)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNextExecutionDate_YearlyLeapDay(t *testing.T) {
	start := date(2024, time.February, 29, 10, 0, 0)

	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "into non-leap year clamps to Feb 28",
			from: date(2024, time.February, 29, 10, 0, 0),
			want: date(2025, time.February, 28, 10, 0, 0),
		},
		{
			name: "into another non-leap year stays on Feb 28",
			from: date(2026, time.February, 28, 10, 0, 0),
			want: date(2027, time.February, 28, 10, 0, 0),
		},
		{
			name: "into a leap year returns to Feb 29",
			from: date(2027, time.February, 28, 10, 0, 0),
			want: date(2028, time.February, 29, 10, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextExecutionDate(Yearly, start, tt.from)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextExecutionDate_PreservesStartTimeOfDay(t *testing.T) {
	start := date(2024, time.March, 10, 23, 59, 58)
	// from has a different time of day; the result must take start's.
	from := date(2024, time.June, 10, 4, 0, 0)

	got, err := NextExecutionDate(Monthly, start, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := date(2024, time.July, 10, 23, 59, 58)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNextExecutionDate_UnknownFrequency(t *testing.T) {
	_, err := NextExecutionDate(Frequency("hourly"), time.Now(), time.Now())
	if err == nil {
		t.Fatal("expected error for unknown frequency")
	}
}
