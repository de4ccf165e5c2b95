package dates

import (
	"testing"
	"time"

	"github.com/vistoriatec/vistoria-backend/internal/types"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestValidateInspectionDate(t *testing.T) {
	today := mustParse(t, "2024-06-15")

	cases := []struct {
		name    string
		date    time.Time
		wantErr bool
	}{
		{name: "today", date: today, wantErr: false},
		{name: "past", date: mustParse(t, "2024-01-10"), wantErr: false},
		{name: "tomorrow", date: mustParse(t, "2024-06-16"), wantErr: true},
		{name: "far_future", date: mustParse(t, "2030-01-01"), wantErr: true},
		{name: "zero", date: time.Time{}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateInspectionDate(tc.date, today)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateInspectionDate(%v)=%v, wantErr=%v", tc.date, err, tc.wantErr)
			}
			if err != nil && !types.IsValidationError(err) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestValidateInspectionDateIgnoresTimeOfDay(t *testing.T) {
	// Same calendar day, later wall-clock time must not count as future.
	today := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	d := time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC)
	if err := ValidateInspectionDate(d, today); err != nil {
		t.Fatalf("same-day inspection rejected: %v", err)
	}
}

func TestNextInspection(t *testing.T) {
	cases := []struct {
		name         string
		date         string
		validityDays int
		want         string
	}{
		{name: "pressure_vessel_180", date: "2024-01-10", validityDays: 180, want: "2024-07-08"},
		{name: "one_year", date: "2023-03-01", validityDays: 365, want: "2024-02-29"},
		{name: "quarter", date: "2024-06-01", validityDays: 90, want: "2024-08-30"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextInspection(mustParse(t, tc.date), tc.validityDays)
			if FormatDate(got) != tc.want {
				t.Fatalf("NextInspection(%s, %d)=%s, want %s", tc.date, tc.validityDays, FormatDate(got), tc.want)
			}
		})
	}
}

func TestStatus(t *testing.T) {
	const window = 30

	cases := []struct {
		name  string
		today string
		next  string
		want  types.Status
	}{
		{name: "well_before_window", today: "2024-01-01", next: "2024-06-01", want: types.StatusOK},
		{name: "just_outside_window", today: "2024-01-01", next: "2024-02-01", want: types.StatusOK},
		{name: "window_boundary_inclusive", today: "2024-01-01", next: "2024-01-31", want: types.StatusDueSoon},
		{name: "inside_window", today: "2024-07-01", next: "2024-07-08", want: types.StatusDueSoon},
		{name: "due_today", today: "2024-07-08", next: "2024-07-08", want: types.StatusDueSoon},
		{name: "one_day_late", today: "2024-07-09", next: "2024-07-08", want: types.StatusOverdue},
		{name: "long_overdue", today: "2025-01-01", next: "2024-07-08", want: types.StatusOverdue},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Status(mustParse(t, tc.today), mustParse(t, tc.next), window)
			if got != tc.want {
				t.Fatalf("Status(%s, %s, %d)=%s, want %s", tc.today, tc.next, window, got, tc.want)
			}
		})
	}
}

func TestStatusOfDerivedDueDate(t *testing.T) {
	// End-to-end date scenario: inspected 2024-01-10, validity 180 days,
	// queried 7 days before the due date with a 30 day window.
	next := NextInspection(mustParse(t, "2024-01-10"), 180)
	if FormatDate(next) != "2024-07-08" {
		t.Fatalf("next = %s, want 2024-07-08", FormatDate(next))
	}
	if got := Status(mustParse(t, "2024-07-01"), next, 30); got != types.StatusDueSoon {
		t.Fatalf("Status = %s, want due_soon", got)
	}
}

func TestDaysUntilDue(t *testing.T) {
	today := mustParse(t, "2024-07-01")

	if got := DaysUntilDue(today, mustParse(t, "2024-07-08")); got != 7 {
		t.Fatalf("DaysUntilDue = %d, want 7", got)
	}
	if got := DaysUntilDue(today, mustParse(t, "2024-06-21")); got != -10 {
		t.Fatalf("DaysUntilDue = %d, want -10", got)
	}
	if got := DaysUntilDue(today, today); got != 0 {
		t.Fatalf("DaysUntilDue = %d, want 0", got)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "10/01/2024", "2024-13-01", "yesterday"} {
		if _, err := ParseDate(s); err == nil {
			t.Fatalf("ParseDate(%q) accepted invalid input", s)
		}
	}
}
