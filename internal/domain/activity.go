package domain

import "strings"

// ActivityType tags the kind of work an activity performs.
type ActivityType string

// Known activity types. The set is open: unknown values are carried through unchanged.
const (
	ActivityTypeTrade      ActivityType = "TRADE"
	ActivityTypeRisk       ActivityType = "RISK"
	ActivityTypeMarketData ActivityType = "MARKET_DATA"
	ActivityTypeKesselFeed ActivityType = "KESSEL_FEED"
	ActivityTypePnL        ActivityType = "PNL"
	ActivityTypeData       ActivityType = "DATA"
	ActivityTypePrice      ActivityType = "PRICE"
	ActivityTypePosition   ActivityType = "POSITION"
)

// KnownActivityTypes returns the built-in activity types in display order.
func KnownActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityTypeTrade,
		ActivityTypeRisk,
		ActivityTypeMarketData,
		ActivityTypeKesselFeed,
		ActivityTypePnL,
		ActivityTypeData,
		ActivityTypePrice,
		ActivityTypePosition,
	}
}

// IsKnown reports whether the type is one of the built-in activity types.
func (t ActivityType) IsKnown() bool {
	for _, known := range KnownActivityTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// SLATimeOffset is the business-day expectation of a schedule entry.
type SLATimeOffset string

const (
	SLAOffsetSameDay  SLATimeOffset = "T"
	SLAOffsetPriorDay SLATimeOffset = "T-1"
)

// RecordID is the optional source envelope id attached to records.
type RecordID struct {
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Date      string `json:"date" yaml:"date"`
}

// ActivityDefinition is one static schedule entry.
type ActivityDefinition struct {
	RecordID                *RecordID     `json:"id,omitempty" yaml:"id,omitempty"`
	ActivityID              string        `json:"activityId" yaml:"activityId"`
	AppID                   string        `json:"appId" yaml:"appId"`
	BusinessArea            string        `json:"businessArea" yaml:"businessArea"`
	ActivityName            string        `json:"activityName" yaml:"activityName"`
	ActivityType            ActivityType  `json:"activityType" yaml:"activityType"`
	BusinessStepID          string        `json:"businessStepID" yaml:"businessStepID"`
	ExpectedStartTime       string        `json:"expectedStartTime" yaml:"expectedStartTime"`
	ExpectedEndTime         string        `json:"expectedEndTime" yaml:"expectedEndTime"`
	ParsedExpectedStartTime string        `json:"parsedExpectedStartTime" yaml:"parsedExpectedStartTime"`
	ParsedExpectedEndTime   string        `json:"parsedExpectedEndTime" yaml:"parsedExpectedEndTime"`
	SLATimeOffset           SLATimeOffset `json:"slaTimeOffset" yaml:"slaTimeOffset"`
}

// Validate checks the identity fields the rollups group by.
func (d ActivityDefinition) Validate() error {
	if strings.TrimSpace(d.ActivityID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(d.AppID) == "" {
		return ErrInvalidAppID
	}
	if strings.TrimSpace(d.BusinessArea) == "" {
		return ErrInvalidBusinessArea
	}
	return nil
}

// Window renders the human-readable expected window, e.g. "9:00 PM - 10:30 PM (T-1)".
func (d ActivityDefinition) Window() string {
	window := strings.TrimSpace(d.ExpectedStartTime + " - " + d.ExpectedEndTime)
	if window == "-" {
		window = ""
	}
	if d.SLATimeOffset != "" {
		window = strings.TrimSpace(window + " (" + string(d.SLATimeOffset) + ")")
	}
	return window
}
