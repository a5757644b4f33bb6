package rollup

import (
	"fmt"

	"github.com/hylla/slaboard/internal/domain"
)

// IssueKind names one missing-reference or identity condition.
type IssueKind string

const (
	IssueOrphanStatus        IssueKind = "orphan_status"
	IssuePendingDefinition   IssueKind = "pending_definition"
	IssueIdentityMismatch    IssueKind = "identity_mismatch"
	IssueDuplicateDefinition IssueKind = "duplicate_definition"
	IssueDuplicateRun        IssueKind = "duplicate_run"
)

// Issue is one tolerated data-quality finding.
type Issue struct {
	Kind       IssueKind `json:"kind" yaml:"kind"`
	ActivityID string    `json:"activityId" yaml:"activityId"`
	Detail     string    `json:"detail" yaml:"detail"`
}

// Report lists every finding in definition order, then status order.
type Report struct {
	Issues []Issue `json:"issues" yaml:"issues"`
}

// Count returns the number of findings of one kind.
func (r Report) Count(kind IssueKind) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Kind == kind {
			n++
		}
	}
	return n
}

// Consistency checks the joins the rollups tolerate. It never fails.
func Consistency(defs []domain.ActivityDefinition, statuses []domain.ActivityStatus) Report {
	report := Report{Issues: []Issue{}}
	byID := make(map[string]domain.ActivityDefinition, len(defs))
	for _, def := range defs {
		if _, ok := byID[def.ActivityID]; ok {
			report.Issues = append(report.Issues, Issue{
				Kind:       IssueDuplicateDefinition,
				ActivityID: def.ActivityID,
				Detail:     "activity id defined more than once",
			})
			continue
		}
		byID[def.ActivityID] = def
	}

	runs := map[string]int{}
	for _, status := range statuses {
		runs[status.ActivityID]++
	}
	for _, def := range defs {
		switch n := runs[def.ActivityID]; {
		case n == 0:
			report.Issues = append(report.Issues, Issue{
				Kind:       IssuePendingDefinition,
				ActivityID: def.ActivityID,
				Detail:     "no status record",
			})
		case n > 1:
			report.Issues = append(report.Issues, Issue{
				Kind:       IssueDuplicateRun,
				ActivityID: def.ActivityID,
				Detail:     fmt.Sprintf("%d status records", n),
			})
		}
		// Clear so duplicate definitions report once.
		runs[def.ActivityID] = -1
	}

	for _, status := range statuses {
		def, ok := byID[status.ActivityID]
		if !ok {
			report.Issues = append(report.Issues, Issue{
				Kind:       IssueOrphanStatus,
				ActivityID: status.ActivityID,
				Detail:     "status has no definition (run " + status.RunID + ")",
			})
			continue
		}
		if def.AppID != status.AppID || def.BusinessArea != status.BusinessArea {
			report.Issues = append(report.Issues, Issue{
				Kind:       IssueIdentityMismatch,
				ActivityID: status.ActivityID,
				Detail: fmt.Sprintf("definition %s/%s, status %s/%s",
					def.BusinessArea, def.AppID, status.BusinessArea, status.AppID),
			})
		}
	}
	return report
}
