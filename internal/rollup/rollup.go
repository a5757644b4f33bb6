// Package rollup aggregates activity execution records into counts and health states.
package rollup

import (
	"slices"

	"github.com/hylla/slaboard/internal/domain"
)

// Classification is the rollup bucket one status record falls into.
type Classification string

const (
	ClassSuccess        Classification = "SUCCESS"
	ClassViolation      Classification = "VIOLATION"
	ClassRunning        Classification = "RUNNING"
	ClassCompletedOther Classification = "COMPLETED_OTHER"
)

// Health is the single representative state of one hierarchy node.
type Health string

const (
	HealthCritical Health = "CRITICAL"
	HealthActive   Health = "ACTIVE"
	HealthHealthy  Health = "HEALTHY"
	HealthNeutral  Health = "NEUTRAL"
)

// Counts summarizes one scope. Total counts definitions; every other field counts status records.
type Counts struct {
	Total          int `json:"total" yaml:"total"`
	Success        int `json:"success" yaml:"success"`
	Violations     int `json:"violations" yaml:"violations"`
	Running        int `json:"running" yaml:"running"`
	Completed      int `json:"completed" yaml:"completed"`
	CompletedOther int `json:"completedOther" yaml:"completedOther"`
}

// Pending returns the number of in-scope definitions with no status record, clamped at zero.
// Duplicate runs can push status counts above Total, so this is an estimate for display only.
func (c Counts) Pending() int {
	pending := c.Total - (c.Success + c.Violations + c.Running + c.CompletedOther)
	if pending < 0 {
		return 0
	}
	return pending
}

// Classify buckets one status record. Violations win over the running/completed distinction.
func Classify(status domain.ActivityStatus) Classification {
	switch {
	case status.SLAStatus.IsViolation():
		return ClassViolation
	case status.ActivityStatus == domain.RunStateRunning:
		return ClassRunning
	case status.SLAStatus == domain.SLASuccess:
		return ClassSuccess
	default:
		return ClassCompletedOther
	}
}

// Aggregate counts definitions and status records inside scope.
// Statuses are filtered on their own identity fields, so records with no matching definition still count.
func Aggregate(defs []domain.ActivityDefinition, statuses []domain.ActivityStatus, scope domain.Scope) Counts {
	var counts Counts
	for _, def := range defs {
		if scope.Matches(def.BusinessArea, def.AppID, def.ActivityID) {
			counts.Total++
		}
	}
	for _, status := range statuses {
		if !scope.Matches(status.BusinessArea, status.AppID, status.ActivityID) {
			continue
		}
		switch Classify(status) {
		case ClassViolation:
			counts.Violations++
		case ClassRunning:
			counts.Running++
		case ClassSuccess:
			counts.Success++
		default:
			counts.CompletedOther++
		}
		if status.ActivityStatus == domain.RunStateCompleted {
			counts.Completed++
		}
	}
	return counts
}

// DeriveHealth applies the fixed precedence: violations, then running, then all-success.
func DeriveHealth(counts Counts) Health {
	switch {
	case counts.Violations > 0:
		return HealthCritical
	case counts.Running > 0:
		return HealthActive
	case counts.Total > 0 && counts.Success == counts.Total:
		return HealthHealthy
	default:
		return HealthNeutral
	}
}

// ListDistinctApps returns the sorted app ids of definitions inside scope.
func ListDistinctApps(defs []domain.ActivityDefinition, scope domain.Scope) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, def := range defs {
		if !scope.Matches(def.BusinessArea, def.AppID, def.ActivityID) {
			continue
		}
		if _, ok := seen[def.AppID]; ok {
			continue
		}
		seen[def.AppID] = struct{}{}
		out = append(out, def.AppID)
	}
	slices.Sort(out)
	return out
}

// ListDistinctBusinessAreas returns the sorted business areas across all definitions.
func ListDistinctBusinessAreas(defs []domain.ActivityDefinition) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, def := range defs {
		if _, ok := seen[def.BusinessArea]; ok {
			continue
		}
		seen[def.BusinessArea] = struct{}{}
		out = append(out, def.BusinessArea)
	}
	slices.Sort(out)
	return out
}

// FindStatus returns the first status record for activityID.
// Later duplicates are not merged; Aggregate still counts every one of them.
func FindStatus(statuses []domain.ActivityStatus, activityID string) (domain.ActivityStatus, bool) {
	for _, status := range statuses {
		if status.ActivityID == activityID {
			return status, true
		}
	}
	return domain.ActivityStatus{}, false
}

// FindDefinition returns the definition for activityID.
func FindDefinition(defs []domain.ActivityDefinition, activityID string) (domain.ActivityDefinition, bool) {
	for _, def := range defs {
		if def.ActivityID == activityID {
			return def, true
		}
	}
	return domain.ActivityDefinition{}, false
}

// StatusesFor returns every status record for activityID in input order.
func StatusesFor(statuses []domain.ActivityStatus, activityID string) []domain.ActivityStatus {
	out := make([]domain.ActivityStatus, 0, 1)
	for _, status := range statuses {
		if status.ActivityID == activityID {
			out = append(out, status)
		}
	}
	return out
}
