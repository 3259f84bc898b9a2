package analytics

import (
	"fmt"
	"time"
)

// TimeRange is one of the fixed reporting presets
type TimeRange string

const (
	TimeRange7Days  TimeRange = "7d"
	TimeRange30Days TimeRange = "30d"
	TimeRange90Days TimeRange = "90d"
	TimeRange1Year  TimeRange = "1y"
)

// DefaultTimeRange is used when a caller does not pick a preset
const DefaultTimeRange = TimeRange30Days

var timeRangeDays = map[TimeRange]int{
	TimeRange7Days:  7,
	TimeRange30Days: 30,
	TimeRange90Days: 90,
	TimeRange1Year:  365,
}

// ParseTimeRange validates a preset string; empty selects DefaultTimeRange
func ParseTimeRange(s string) (TimeRange, error) {
	if s == "" {
		return DefaultTimeRange, nil
	}
	tr := TimeRange(s)
	if _, ok := timeRangeDays[tr]; !ok {
		return "", fmt.Errorf("unsupported time range %q (expected 7d, 30d, 90d or 1y)", s)
	}
	return tr, nil
}

// Days returns the length of the preset in days
func (tr TimeRange) Days() int {
	return timeRangeDays[tr]
}

// Period is a half-open [Start, End) time window
type Period struct {
	Start time.Time
	End   time.Time
}

// Window returns the period of this preset ending at now
func (tr TimeRange) Window(now time.Time) Period {
	return Period{
		Start: now.AddDate(0, 0, -tr.Days()),
		End:   now,
	}
}

// Previous returns the period of equal length immediately before p
func (p Period) Previous() Period {
	return Period{
		Start: p.Start.Add(-p.Duration()),
		End:   p.Start,
	}
}

// Duration returns the length of the period
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Days returns the length of the period in (fractional) days
func (p Period) Days() float64 {
	return p.Duration().Hours() / 24
}

// Contains reports whether t falls inside [Start, End)
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}
