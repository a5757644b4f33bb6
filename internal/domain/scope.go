package domain

import (
	"fmt"
	"strings"
)

// ScopeKind identifies the hierarchy level a scope selects.
type ScopeKind string

const (
	ScopeSystem       ScopeKind = "system"
	ScopeBusinessArea ScopeKind = "business_area"
	ScopeApplication  ScopeKind = "application"
	ScopeActivity     ScopeKind = "activity"
)

// Scope selects a slice of the hierarchy for aggregation and trend queries.
// The zero value is system-wide.
type Scope struct {
	BusinessArea string `json:"businessArea,omitempty" yaml:"businessArea,omitempty"`
	AppID        string `json:"appId,omitempty" yaml:"appId,omitempty"`
	ActivityID   string `json:"activityId,omitempty" yaml:"activityId,omitempty"`
	ActivityName string `json:"activityName,omitempty" yaml:"activityName,omitempty"`
}

// SystemScope returns the system-wide scope.
func SystemScope() Scope {
	return Scope{}
}

// AreaScope returns a business-area scope.
func AreaScope(area string) Scope {
	return Scope{BusinessArea: strings.TrimSpace(area)}
}

// AppScope returns an application scope within one business area.
func AppScope(area, appID string) Scope {
	return Scope{BusinessArea: strings.TrimSpace(area), AppID: strings.TrimSpace(appID)}
}

// ActivityScope returns a single-activity scope.
func ActivityScope(activityID, activityName string) Scope {
	return Scope{ActivityID: strings.TrimSpace(activityID), ActivityName: strings.TrimSpace(activityName)}
}

// NewScope builds a scope from loose selector fields and rejects combinations that mix levels.
func NewScope(area, appID, activityID, activityName string) (Scope, error) {
	area = strings.TrimSpace(area)
	appID = strings.TrimSpace(appID)
	activityID = strings.TrimSpace(activityID)
	activityName = strings.TrimSpace(activityName)
	switch {
	case activityID != "":
		if area != "" || appID != "" {
			return Scope{}, fmt.Errorf("activity scope cannot carry business area or app id: %w", ErrInvalidScope)
		}
		return ActivityScope(activityID, activityName), nil
	case activityName != "":
		return Scope{}, fmt.Errorf("activity name requires activity id: %w", ErrInvalidScope)
	case appID != "":
		if area == "" {
			return Scope{}, fmt.Errorf("app scope requires business area: %w", ErrInvalidScope)
		}
		return AppScope(area, appID), nil
	case area != "":
		return AreaScope(area), nil
	default:
		return SystemScope(), nil
	}
}

// Kind reports which hierarchy level the scope selects.
func (s Scope) Kind() ScopeKind {
	switch {
	case s.ActivityID != "":
		return ScopeActivity
	case s.AppID != "":
		return ScopeApplication
	case s.BusinessArea != "":
		return ScopeBusinessArea
	default:
		return ScopeSystem
	}
}

// Matches reports whether a record with the given identity falls inside the scope.
func (s Scope) Matches(area, appID, activityID string) bool {
	switch s.Kind() {
	case ScopeActivity:
		return activityID == s.ActivityID
	case ScopeApplication:
		return area == s.BusinessArea && appID == s.AppID
	case ScopeBusinessArea:
		return area == s.BusinessArea
	default:
		return true
	}
}

// String renders the scope as a compact selector.
func (s Scope) String() string {
	switch s.Kind() {
	case ScopeActivity:
		return "activity:" + s.ActivityID
	case ScopeApplication:
		return "app:" + s.BusinessArea + "/" + s.AppID
	case ScopeBusinessArea:
		return "area:" + s.BusinessArea
	default:
		return "system"
	}
}
