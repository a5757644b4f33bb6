package rollup

import "github.com/hylla/slaboard/internal/domain"

// Outcome is the per-activity state shown in detail views.
type Outcome string

const (
	OutcomeSuccess      Outcome = "SUCCESS"
	OutcomeMissedWindow Outcome = "MISSED_WINDOW"
	OutcomeDuplication  Outcome = "DUPLICATION"
	OutcomeRunning      Outcome = "RUNNING"
	OutcomeCompleted    Outcome = "COMPLETED"
	OutcomePending      Outcome = "PENDING"
)

// Summary is the system-wide header rollup.
type Summary struct {
	Counts        Counts `json:"counts" yaml:"counts"`
	Health        Health `json:"health" yaml:"health"`
	BusinessAreas int    `json:"businessAreas" yaml:"businessAreas"`
	Applications  int    `json:"applications" yaml:"applications"`
}

// AreaSummary is the rollup of one business area.
type AreaSummary struct {
	BusinessArea string   `json:"businessArea" yaml:"businessArea"`
	Counts       Counts   `json:"counts" yaml:"counts"`
	Health       Health   `json:"health" yaml:"health"`
	AppIDs       []string `json:"appIds" yaml:"appIds"`
}

// AppSummary is the rollup of one application with its activity rows.
type AppSummary struct {
	BusinessArea string        `json:"businessArea" yaml:"businessArea"`
	AppID        string        `json:"appId" yaml:"appId"`
	Counts       Counts        `json:"counts" yaml:"counts"`
	Health       Health        `json:"health" yaml:"health"`
	Activities   []ActivityRow `json:"activities" yaml:"activities"`
}

// ActivityRow pairs one definition with its representative status record.
type ActivityRow struct {
	Definition domain.ActivityDefinition `json:"definition" yaml:"definition"`
	Status     *domain.ActivityStatus    `json:"status,omitempty" yaml:"status,omitempty"`
	Runs       int                       `json:"runs" yaml:"runs"`
	Outcome    Outcome                   `json:"outcome" yaml:"outcome"`
	Label      string                    `json:"label" yaml:"label"`
}

// SystemSummary rolls up every definition and status record.
func SystemSummary(defs []domain.ActivityDefinition, statuses []domain.ActivityStatus) Summary {
	counts := Aggregate(defs, statuses, domain.SystemScope())
	return Summary{
		Counts:        counts,
		Health:        DeriveHealth(counts),
		BusinessAreas: len(ListDistinctBusinessAreas(defs)),
		Applications:  len(ListDistinctApps(defs, domain.SystemScope())),
	}
}

// SummarizeAreas rolls up every business area in sorted order.
func SummarizeAreas(defs []domain.ActivityDefinition, statuses []domain.ActivityStatus) []AreaSummary {
	areas := ListDistinctBusinessAreas(defs)
	out := make([]AreaSummary, 0, len(areas))
	for _, area := range areas {
		out = append(out, SummarizeArea(defs, statuses, area))
	}
	return out
}

// SummarizeArea rolls up one business area.
func SummarizeArea(defs []domain.ActivityDefinition, statuses []domain.ActivityStatus, area string) AreaSummary {
	scope := domain.AreaScope(area)
	counts := Aggregate(defs, statuses, scope)
	return AreaSummary{
		BusinessArea: area,
		Counts:       counts,
		Health:       DeriveHealth(counts),
		AppIDs:       ListDistinctApps(defs, scope),
	}
}

// SummarizeApps rolls up every application of one business area in sorted order.
func SummarizeApps(defs []domain.ActivityDefinition, statuses []domain.ActivityStatus, area string) []AppSummary {
	apps := ListDistinctApps(defs, domain.AreaScope(area))
	out := make([]AppSummary, 0, len(apps))
	for _, appID := range apps {
		out = append(out, SummarizeApp(defs, statuses, area, appID))
	}
	return out
}

// SummarizeApp rolls up one application and lists its activities.
func SummarizeApp(defs []domain.ActivityDefinition, statuses []domain.ActivityStatus, area, appID string) AppSummary {
	scope := domain.AppScope(area, appID)
	counts := Aggregate(defs, statuses, scope)
	return AppSummary{
		BusinessArea: area,
		AppID:        appID,
		Counts:       counts,
		Health:       DeriveHealth(counts),
		Activities:   ActivityRows(defs, statuses, scope),
	}
}

// ActivityRows lists in-scope definitions in input order, each with its first status record.
// Statuses with no definition do not produce rows.
func ActivityRows(defs []domain.ActivityDefinition, statuses []domain.ActivityStatus, scope domain.Scope) []ActivityRow {
	out := make([]ActivityRow, 0)
	for _, def := range defs {
		if !scope.Matches(def.BusinessArea, def.AppID, def.ActivityID) {
			continue
		}
		out = append(out, NewActivityRow(def, statuses))
	}
	return out
}

// NewActivityRow builds the detail row of one definition.
func NewActivityRow(def domain.ActivityDefinition, statuses []domain.ActivityStatus) ActivityRow {
	row := ActivityRow{Definition: def}
	status, ok := FindStatus(statuses, def.ActivityID)
	if ok {
		row.Status = &status
		row.Runs = len(StatusesFor(statuses, def.ActivityID))
		row.Outcome = OutcomeOf(&status)
		row.Label = SLALabel(&status)
		return row
	}
	row.Outcome = OutcomePending
	row.Label = SLALabel(nil)
	return row
}

// OutcomeOf maps a status record, or its absence, to a detail outcome.
func OutcomeOf(status *domain.ActivityStatus) Outcome {
	if status == nil {
		return OutcomePending
	}
	switch {
	case status.SLAStatus == domain.SLAViolationMissedWindow:
		return OutcomeMissedWindow
	case status.SLAStatus == domain.SLAViolationDuplication:
		return OutcomeDuplication
	case status.ActivityStatus == domain.RunStateRunning:
		return OutcomeRunning
	case status.SLAStatus == domain.SLASuccess:
		return OutcomeSuccess
	default:
		return OutcomeCompleted
	}
}

// SLALabel renders the SLA outcome of a status record for display.
func SLALabel(status *domain.ActivityStatus) string {
	if status == nil {
		return "Pending"
	}
	switch status.SLAStatus {
	case domain.SLASuccess:
		return "Success"
	case domain.SLAViolationMissedWindow:
		return "Missed Window"
	case domain.SLAViolationDuplication:
		return "Duplication"
	default:
		return "Pending"
	}
}
