package rollup

import (
	"testing"

	"github.com/hylla/slaboard/internal/domain"
)

func TestSystemSummary(t *testing.T) {
	got := SystemSummary(fixtureDefinitions(), fixtureStatuses())
	if got.BusinessAreas != 3 || got.Applications != 5 {
		t.Fatalf("unexpected group counts %#v", got)
	}
	if got.Health != HealthCritical {
		t.Fatalf("Health = %q, want CRITICAL", got.Health)
	}
	if got.Counts.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", got.Counts.Pending())
	}
}

func TestSummarizeAreas(t *testing.T) {
	areas := SummarizeAreas(fixtureDefinitions(), fixtureStatuses())
	if len(areas) != 3 {
		t.Fatalf("expected 3 areas, got %d", len(areas))
	}
	want := map[string]Health{"COMMS": HealthCritical, "FX": HealthHealthy, "RATES": HealthNeutral}
	for _, area := range areas {
		if area.Health != want[area.BusinessArea] {
			t.Fatalf("%s health = %q, want %q", area.BusinessArea, area.Health, want[area.BusinessArea])
		}
	}
	if len(areas[0].AppIDs) != 2 {
		t.Fatalf("expected COMMS to list 2 apps, got %v", areas[0].AppIDs)
	}
}

func TestSummarizeAppRows(t *testing.T) {
	defs := fixtureDefinitions()
	statuses := fixtureStatuses()
	app := SummarizeApp(defs, statuses, "COMMS", "1COM")
	if app.Health != HealthActive {
		t.Fatalf("Health = %q, want ACTIVE", app.Health)
	}
	if len(app.Activities) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(app.Activities))
	}
	if app.Activities[1].Outcome != OutcomeRunning || app.Activities[1].Label != "Success" {
		t.Fatalf("unexpected running row %#v", app.Activities[1])
	}

	rows := ActivityRows(defs, statuses, domain.AreaScope("RATES"))
	if len(rows) != 1 || rows[0].Status != nil || rows[0].Outcome != OutcomePending || rows[0].Label != "Pending" {
		t.Fatalf("unexpected pending row %#v", rows)
	}
	apps := SummarizeApps(defs, statuses, "FX")
	if len(apps) != 2 || apps[0].AppID != "1FX" {
		t.Fatalf("unexpected FX apps %#v", apps)
	}
}

func TestOutcomeOf(t *testing.T) {
	cases := []struct {
		status *domain.ActivityStatus
		want   Outcome
		label  string
	}{
		{status: nil, want: OutcomePending, label: "Pending"},
		{status: &domain.ActivityStatus{ActivityStatus: domain.RunStateCompleted, SLAStatus: domain.SLAViolationMissedWindow}, want: OutcomeMissedWindow, label: "Missed Window"},
		{status: &domain.ActivityStatus{ActivityStatus: domain.RunStateCompleted, SLAStatus: domain.SLAViolationDuplication}, want: OutcomeDuplication, label: "Duplication"},
		{status: &domain.ActivityStatus{ActivityStatus: domain.RunStateCompleted, SLAStatus: domain.SLASuccess}, want: OutcomeSuccess, label: "Success"},
		{status: &domain.ActivityStatus{ActivityStatus: domain.RunStateCompleted, SLAStatus: "OTHER"}, want: OutcomeCompleted, label: "Pending"},
	}
	for _, tt := range cases {
		if got := OutcomeOf(tt.status); got != tt.want {
			t.Fatalf("OutcomeOf(%#v) = %q, want %q", tt.status, got, tt.want)
		}
		if got := SLALabel(tt.status); got != tt.label {
			t.Fatalf("SLALabel(%#v) = %q, want %q", tt.status, got, tt.label)
		}
	}
}

func TestConsistencyReport(t *testing.T) {
	defs := append(fixtureDefinitions(), domain.ActivityDefinition{ActivityID: "1FX-01", AppID: "1FX", BusinessArea: "FX"})
	statuses := append(fixtureStatuses(),
		status("1FX-01", "1FX", "FX", domain.RunStateCompleted, domain.SLAViolationDuplication),
		status("8XX-01", "8XX", "FX", domain.RunStateCompleted, domain.SLASuccess),
		status("1COM-01", "1COM", "FX", domain.RunStateCompleted, domain.SLASuccess),
	)
	report := Consistency(defs, statuses)
	checks := map[IssueKind]int{
		IssueDuplicateDefinition: 1,
		IssuePendingDefinition:   1,
		IssueDuplicateRun:        2,
		IssueOrphanStatus:        1,
		IssueIdentityMismatch:    1,
	}
	for kind, want := range checks {
		if got := report.Count(kind); got != want {
			t.Fatalf("Count(%s) = %d, want %d; issues=%#v", kind, got, want, report.Issues)
		}
	}
	if clean := Consistency(nil, nil); len(clean.Issues) != 0 || clean.Issues == nil {
		t.Fatalf("expected empty non-nil issues, got %#v", clean.Issues)
	}
}
