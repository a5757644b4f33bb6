package domain

import (
	"strings"
	"time"
)

// RunState is the execution state reported for one run.
type RunState string

const (
	RunStateRunning   RunState = "RUNNING"
	RunStateCompleted RunState = "COMPLETED"
)

// SLAStatus is the precomputed SLA outcome of one run.
type SLAStatus string

const (
	SLASuccess               SLAStatus = "SLA_SUCCESS"
	SLAViolationMissedWindow SLAStatus = "SLA_VIOLATION_MISSED_WINDOW"
	SLAViolationDuplication  SLAStatus = "SLA_VIOLATION_DUPLICATION"
)

// IsViolation reports whether the SLA outcome is one of the violation kinds.
func (s SLAStatus) IsViolation() bool {
	return s == SLAViolationMissedWindow || s == SLAViolationDuplication
}

// ActivityStatus is one execution record for a business date.
type ActivityStatus struct {
	RecordID            *RecordID    `json:"id,omitempty" yaml:"id,omitempty"`
	ActivityID          string       `json:"activityId" yaml:"activityId"`
	AppID               string       `json:"appId" yaml:"appId"`
	BusinessArea        string       `json:"businessArea" yaml:"businessArea"`
	BusinessStepID      string       `json:"businessStepID" yaml:"businessStepID"`
	ActivityType        ActivityType `json:"activityType" yaml:"activityType"`
	ActivityDescription string       `json:"activityDescription" yaml:"activityDescription"`
	BusinessDate        string       `json:"businessDate" yaml:"businessDate"`
	ReportingTime       string       `json:"reportingTime" yaml:"reportingTime"`
	RunID               string       `json:"runId" yaml:"runId"`
	ActivityStatus      RunState     `json:"activityStatus" yaml:"activityStatus"`
	SLAStatus           SLAStatus    `json:"slaStatus" yaml:"slaStatus"`
}

// ReportedAt parses the reporting instant; ok is false when it is empty or malformed.
func (s ActivityStatus) ReportedAt() (time.Time, bool) {
	raw := strings.TrimSpace(s.ReportingTime)
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
