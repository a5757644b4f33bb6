package domain

import (
	"fmt"
	"time"
)

// TrendDateLayout is the calendar-day layout used by trend series.
const TrendDateLayout = "2006-01-02"

// HistoricalTrendDay is one synthesized day of outcome counts.
type HistoricalTrendDay struct {
	Date       string `json:"date" yaml:"date"`
	Success    int    `json:"success" yaml:"success"`
	Violations int    `json:"violations" yaml:"violations"`
	Running    int    `json:"running" yaml:"running"`
	Total      int    `json:"total" yaml:"total"`
}

// NewHistoricalTrendDay builds one day and derives its total.
func NewHistoricalTrendDay(day time.Time, success, violations, running int) (HistoricalTrendDay, error) {
	if success < 0 || violations < 0 || running < 0 {
		return HistoricalTrendDay{}, fmt.Errorf("negative count on %s: %w", day.Format(TrendDateLayout), ErrInvalidTrendDay)
	}
	return HistoricalTrendDay{
		Date:       day.Format(TrendDateLayout),
		Success:    success,
		Violations: violations,
		Running:    running,
		Total:      success + violations + running,
	}, nil
}

// Day parses the calendar date of the entry.
func (d HistoricalTrendDay) Day() (time.Time, error) {
	day, err := time.Parse(TrendDateLayout, d.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse trend date %q: %w", d.Date, ErrInvalidTrendDay)
	}
	return day, nil
}
