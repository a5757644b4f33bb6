package trend

import (
	"fmt"
	"math"

	"github.com/hylla/slaboard/internal/domain"
)

// Direction compares violations in the last week against the week before.
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionDegrading Direction = "degrading"
	DirectionStable    Direction = "stable"
)

// directionWindow is the number of days in each compared window.
const directionWindow = 7

// Summary aggregates one trend series.
type Summary struct {
	Days            int       `json:"days" yaml:"days"`
	TotalSuccess    int       `json:"totalSuccess" yaml:"totalSuccess"`
	TotalViolations int       `json:"totalViolations" yaml:"totalViolations"`
	TotalRunning    int       `json:"totalRunning" yaml:"totalRunning"`
	TotalActivities int       `json:"totalActivities" yaml:"totalActivities"`
	SuccessRate     float64   `json:"successRate" yaml:"successRate"`
	Direction       Direction `json:"direction" yaml:"direction"`
	AvgDaily        float64   `json:"avgDaily" yaml:"avgDaily"`
}

// Summarize computes totals, success rate (percent, one decimal), direction and daily average.
func Summarize(days []domain.HistoricalTrendDay) Summary {
	out := Summary{Days: len(days), Direction: DirectionStable}
	for _, day := range days {
		out.TotalSuccess += day.Success
		out.TotalViolations += day.Violations
		out.TotalRunning += day.Running
		out.TotalActivities += day.Total
	}
	if out.TotalActivities > 0 {
		out.SuccessRate = round1(float64(out.TotalSuccess) / float64(out.TotalActivities) * 100)
	}
	if len(days) > 0 {
		out.AvgDaily = round1(float64(out.TotalActivities) / float64(len(days)))
	}

	recent := sumViolations(tail(days, 0, directionWindow))
	previous := sumViolations(tail(days, directionWindow, 2*directionWindow))
	switch {
	case recent < previous:
		out.Direction = DirectionImproving
	case recent > previous:
		out.Direction = DirectionDegrading
	}
	return out
}

// Title returns the heading for a scope's trend view.
func Title(scope domain.Scope) string {
	switch scope.Kind() {
	case domain.ScopeActivity:
		name := scope.ActivityName
		if name == "" {
			name = scope.ActivityID
		}
		return fmt.Sprintf("Historical Trends - %s (%s)", name, scope.ActivityID)
	case domain.ScopeApplication:
		return "Historical Trends - Application " + scope.AppID
	case domain.ScopeBusinessArea:
		return "Historical Trends - " + scope.BusinessArea
	default:
		return "Historical Trends - All Activities"
	}
}

// Subtitle returns the descriptive line under Title.
func Subtitle(scope domain.Scope, horizonDays int) string {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	window := fmt.Sprintf("over the last %d days", horizonDays)
	switch scope.Kind() {
	case domain.ScopeActivity:
		return "Activity performance " + window
	case domain.ScopeApplication:
		return fmt.Sprintf("Application %s performance %s", scope.AppID, window)
	case domain.ScopeBusinessArea:
		return fmt.Sprintf("%s business area performance %s", scope.BusinessArea, window)
	default:
		return "Overall system performance " + window
	}
}

// tail returns days[len-to : len-from], clamped to the slice bounds.
func tail(days []domain.HistoricalTrendDay, from, to int) []domain.HistoricalTrendDay {
	n := len(days)
	start := max(0, n-to)
	end := max(0, n-from)
	if start >= end {
		return nil
	}
	return days[start:end]
}

// sumViolations totals the violations of days.
func sumViolations(days []domain.HistoricalTrendDay) int {
	total := 0
	for _, day := range days {
		total += day.Violations
	}
	return total
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
