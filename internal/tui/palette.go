package tui

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/hylla/slaboard/internal/domain"
	"github.com/hylla/slaboard/internal/rollup"
)

var (
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	textColor   = lipgloss.Color("252")
	accentColor = lipgloss.Color("62")
)

// activityTypeColors mirrors the badge colours of the web dashboard.
var activityTypeColors = map[domain.ActivityType]color.Color{
	domain.ActivityTypeTrade:      lipgloss.Color("33"),
	domain.ActivityTypeRisk:       lipgloss.Color("196"),
	domain.ActivityTypeMarketData: lipgloss.Color("34"),
	domain.ActivityTypeKesselFeed: lipgloss.Color("178"),
	domain.ActivityTypePnL:        lipgloss.Color("135"),
	domain.ActivityTypeData:       lipgloss.Color("37"),
	domain.ActivityTypePrice:      lipgloss.Color("208"),
	domain.ActivityTypePosition:   lipgloss.Color("205"),
}

// activityTypeColor returns the badge colour of an activity type; unknown types are grey.
func activityTypeColor(t domain.ActivityType) color.Color {
	if c, ok := activityTypeColors[t]; ok {
		return c
	}
	return lipgloss.Color("245")
}

// healthColor returns the card colour of a health state.
func healthColor(h rollup.Health) color.Color {
	switch h {
	case rollup.HealthCritical:
		return lipgloss.Color("203")
	case rollup.HealthActive:
		return lipgloss.Color("39")
	case rollup.HealthHealthy:
		return lipgloss.Color("42")
	default:
		return lipgloss.Color("245")
	}
}

// outcomeColor returns the row colour of an activity outcome.
func outcomeColor(o rollup.Outcome) color.Color {
	switch o {
	case rollup.OutcomeMissedWindow:
		return lipgloss.Color("203")
	case rollup.OutcomeDuplication:
		return lipgloss.Color("208")
	case rollup.OutcomeRunning:
		return lipgloss.Color("39")
	case rollup.OutcomeSuccess:
		return lipgloss.Color("42")
	default:
		return lipgloss.Color("245")
	}
}

// healthLabel renders a health state for card headers.
func healthLabel(h rollup.Health) string {
	switch h {
	case rollup.HealthCritical:
		return "● critical"
	case rollup.HealthActive:
		return "▶ running"
	case rollup.HealthHealthy:
		return "✓ healthy"
	default:
		return "○ no data"
	}
}

// typeBadge renders an activity type in its palette colour.
func typeBadge(t domain.ActivityType) string {
	label := string(t)
	if label == "" {
		label = "UNKNOWN"
	}
	return lipgloss.NewStyle().Foreground(activityTypeColor(t)).Render(label)
}
