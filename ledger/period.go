package ledger

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is one calendar month, the finest bucket of the period aggregator.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a "YYYY-MM" period string.
func ParsePeriod(s string) (Period, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Period{}, NewInvalidPeriodError(s, "expected YYYY-MM")
	}
	if len(parts[0]) != 4 || len(parts[1]) != 2 {
		return Period{}, NewInvalidPeriodError(s, "expected YYYY-MM")
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, NewInvalidPeriodError(s, "year is not a number")
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, NewInvalidPeriodError(s, "month is not a number")
	}
	if month < 1 || month > 12 {
		return Period{}, NewInvalidPeriodError(s, "month out of range")
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// String formats the period as "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the period in UTC (exclusive bound).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start()) && t.Before(p.End())
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}
