package leave

import (
	"time"

	leaveerrors "go-leave/internal/leave/errors"
)

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// TotalDays counts the calendar days from start to end, both included.
// Weekends and holidays count like any other day. Unix seconds keep
// ranges beyond time.Duration's ~292 years exact.
func TotalDays(start, end time.Time) (int, error) {
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return 0, leaveerrors.ErrInvalidDateRange
	}
	return int((end.Unix()-start.Unix())/secondsPerDay) + 1, nil
}

// parseDate reads a YYYY-MM-DD value as midnight UTC.
func parseDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
