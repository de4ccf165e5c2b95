// Package dates holds the pure date logic for inspections: parsing,
// future-date validation, due-date derivation and status classification.
// "Today" is always a parameter so callers and tests control the clock.
package dates

import (
	"fmt"
	"time"

	"github.com/vistoriatec/vistoria-backend/internal/types"
)

const DateLayout = "2006-01-02"

func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return d, nil
}

func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// Truncate normalizes a timestamp to UTC midnight so date arithmetic is
// independent of wall-clock time and zone.
func Truncate(d time.Time) time.Time {
	y, m, day := d.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func ValidateInspectionDate(d, today time.Time) error {
	if d.IsZero() {
		return types.NewValidationError("inspection_date", "date is required")
	}
	if Truncate(d).After(Truncate(today)) {
		return types.NewValidationError("inspection_date", "date cannot be in the future")
	}
	return nil
}

func NextInspection(inspectionDate time.Time, validityDays int) time.Time {
	return Truncate(inspectionDate).AddDate(0, 0, validityDays)
}

// DaysUntilDue is negative once the due date has passed.
func DaysUntilDue(today, next time.Time) int {
	return int(Truncate(next).Sub(Truncate(today)).Hours() / 24)
}

// Status classifies a record against its due date. The warning window is
// inclusive on both ends: a record due exactly today, or exactly
// warningWindowDays from now, is DUE_SOON.
func Status(today, next time.Time, warningWindowDays int) types.Status {
	days := DaysUntilDue(today, next)
	switch {
	case days < 0:
		return types.StatusOverdue
	case days <= warningWindowDays:
		return types.StatusDueSoon
	default:
		return types.StatusOK
	}
}
