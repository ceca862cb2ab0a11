package store

import "time"

// TimeLayout is the timestamp format written into documents: UTC with
// millisecond precision, e.g. 2024-01-15T10:00:00.000Z.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t with TimeLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
