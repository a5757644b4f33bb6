package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hylla/slaboard/internal/domain"
	"github.com/hylla/slaboard/internal/rollup"
	"github.com/hylla/slaboard/internal/trend"
)

type fakeSource struct {
	mu       sync.Mutex
	defs     []domain.ActivityDefinition
	statuses []domain.ActivityStatus
	defErr   error
	statErr  error
	origin   string
	calls    int
}

func (f *fakeSource) FetchDefinitions(context.Context) ([]domain.ActivityDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.defErr != nil {
		return nil, f.defErr
	}
	return append([]domain.ActivityDefinition(nil), f.defs...), nil
}

func (f *fakeSource) FetchStatuses(context.Context) ([]domain.ActivityStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.statErr != nil {
		return nil, f.statErr
	}
	return append([]domain.ActivityStatus(nil), f.statuses...), nil
}

func (f *fakeSource) Origin() string {
	return f.origin
}

type fakeTrendSource struct {
	queries []TrendQuery
	err     error
}

func (f *fakeTrendSource) FetchTrends(_ context.Context, q TrendQuery) ([]domain.HistoricalTrendDay, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	day, _ := domain.NewHistoricalTrendDay(q.ReferenceDate, 8, 1, 1)
	return []domain.HistoricalTrendDay{day}, nil
}

type fakeStore struct {
	defs     []domain.ActivityDefinition
	statuses []domain.ActivityStatus
}

func (f *fakeStore) ReplaceSnapshot(_ context.Context, defs []domain.ActivityDefinition, statuses []domain.ActivityStatus) error {
	f.defs = defs
	f.statuses = statuses
	return nil
}

func def(id, area, app string) domain.ActivityDefinition {
	return domain.ActivityDefinition{
		ActivityID:   id,
		AppID:        app,
		BusinessArea: area,
		ActivityName: "Activity " + id,
		ActivityType: domain.ActivityTypeTrade,
	}
}

func status(id, area, app string, run domain.RunState, sla domain.SLAStatus) domain.ActivityStatus {
	return domain.ActivityStatus{
		ActivityID:     id,
		AppID:          app,
		BusinessArea:   area,
		BusinessDate:   "2025-11-16",
		RunID:          "run-" + id,
		ActivityStatus: run,
		SLAStatus:      sla,
	}
}

func newFixtureSource() *fakeSource {
	return &fakeSource{
		origin: "fixture",
		defs: []domain.ActivityDefinition{
			def("a1", "FX", "200"),
			def("a2", "FX", "200"),
			def("a3", "FX", "201"),
			def("b1", "COMMS", "100"),
		},
		statuses: []domain.ActivityStatus{
			status("a1", "FX", "200", domain.RunStateCompleted, domain.SLASuccess),
			status("a2", "FX", "200", domain.RunStateCompleted, domain.SLAViolationMissedWindow),
			status("a3", "FX", "201", domain.RunStateRunning, ""),
		},
	}
}

func newTestService(source Source, trends TrendSource) *Service {
	now := time.Date(2025, 11, 16, 9, 0, 0, 0, time.UTC)
	ids := 0
	idGen := func() string {
		ids++
		return "refresh-" + string(rune('0'+ids))
	}
	return NewService(source, trends, idGen, func() time.Time { return now }, nil, ServiceConfig{})
}

func TestRefreshCommitsBothCollections(t *testing.T) {
	src := newFixtureSource()
	svc := newTestService(src, nil)

	if _, loaded := svc.Snapshot(); loaded {
		t.Fatal("expected no snapshot before first refresh")
	}
	res, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if res.RefreshID != "refresh-1" || res.Definitions != 4 || res.Statuses != 3 {
		t.Fatalf("unexpected refresh result %#v", res)
	}
	if res.Origin != "fixture" || res.BusinessDate != "2025-11-16" {
		t.Fatalf("unexpected origin/business date %#v", res)
	}
	if src.calls != 2 {
		t.Fatalf("expected 2 fetches, got %d", src.calls)
	}
	snap, loaded := svc.Snapshot()
	if !loaded || len(snap.Definitions) != 4 || len(snap.Statuses) != 3 {
		t.Fatalf("unexpected snapshot loaded=%t %#v", loaded, snap)
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	src := newFixtureSource()
	svc := newTestService(src, nil)
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	boom := errors.New("boom")
	src.statErr = boom
	src.defs = append(src.defs, def("c1", "RATES", "300"))
	if _, err := svc.Refresh(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	snap, _ := svc.Snapshot()
	if len(snap.Definitions) != 4 || snap.RefreshID != "refresh-1" {
		t.Fatalf("expected previous snapshot to stay current, got %d defs refresh=%q", len(snap.Definitions), snap.RefreshID)
	}
	state := svc.State()
	if !state.Loaded || state.LastError == "" {
		t.Fatalf("unexpected state %#v", state)
	}

	src.statErr = nil
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() retry error = %v", err)
	}
	if state := svc.State(); state.LastError != "" {
		t.Fatalf("expected last error cleared, got %q", state.LastError)
	}
}

func TestRefreshRequiresSource(t *testing.T) {
	svc := newTestService(nil, nil)
	if _, err := svc.Refresh(context.Background()); !errors.Is(err, ErrSourceRequired) {
		t.Fatalf("expected ErrSourceRequired, got %v", err)
	}
}

func TestViewsBeforeFirstRefreshAreEmpty(t *testing.T) {
	svc := newTestService(newFixtureSource(), nil)
	view, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if view.Summary.Counts.Total != 0 || len(view.Areas) != 0 {
		t.Fatalf("expected empty overview, got %#v", view)
	}
	if view.Summary.Health != rollup.HealthNeutral {
		t.Fatalf("expected neutral health, got %q", view.Summary.Health)
	}
}

func TestOverviewAreaApplicationAndActivity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFixtureSource(), nil)
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	overview, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if overview.Summary.Counts.Total != 4 || overview.Summary.BusinessAreas != 2 || overview.Summary.Applications != 3 {
		t.Fatalf("unexpected overview summary %#v", overview.Summary)
	}
	if overview.Summary.Health != rollup.HealthCritical {
		t.Fatalf("expected critical system health, got %q", overview.Summary.Health)
	}
	if len(overview.Areas) != 2 || overview.Areas[0].BusinessArea != "COMMS" || overview.Areas[1].BusinessArea != "FX" {
		t.Fatalf("unexpected area cards %#v", overview.Areas)
	}

	area, err := svc.BusinessArea(ctx, "FX")
	if err != nil {
		t.Fatalf("BusinessArea() error = %v", err)
	}
	if area.Area.Counts.Total != 3 || len(area.Applications) != 2 {
		t.Fatalf("unexpected FX area %#v", area)
	}
	if area.Applications[1].AppID != "201" || area.Applications[1].Health != rollup.HealthActive {
		t.Fatalf("unexpected app 201 card %#v", area.Applications[1])
	}

	app, err := svc.Application(ctx, "FX", "200")
	if err != nil {
		t.Fatalf("Application() error = %v", err)
	}
	if len(app.Activities) != 2 || app.Counts.Success != 1 || app.Counts.Violations != 1 {
		t.Fatalf("unexpected app 200 %#v", app)
	}

	activity, err := svc.Activity(ctx, "a2")
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if activity.Row.Outcome != rollup.OutcomeMissedWindow || len(activity.Runs) != 1 {
		t.Fatalf("unexpected activity view %#v", activity)
	}

	pending, err := svc.Activity(ctx, "b1")
	if err != nil {
		t.Fatalf("Activity(b1) error = %v", err)
	}
	if pending.Row.Outcome != rollup.OutcomePending || len(pending.Runs) != 0 {
		t.Fatalf("unexpected pending activity %#v", pending)
	}
}

func TestViewLookupsReportNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFixtureSource(), nil)
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if _, err := svc.BusinessArea(ctx, "EQUITIES"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown area, got %v", err)
	}
	if _, err := svc.Application(ctx, "COMMS", "200"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for app outside area, got %v", err)
	}
	if _, err := svc.Activity(ctx, "zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown activity, got %v", err)
	}
	if _, err := svc.BusinessArea(ctx, "  "); !errors.Is(err, domain.ErrInvalidBusinessArea) {
		t.Fatalf("expected ErrInvalidBusinessArea, got %v", err)
	}
	if _, err := svc.Application(ctx, "FX", ""); !errors.Is(err, domain.ErrInvalidAppID) {
		t.Fatalf("expected ErrInvalidAppID, got %v", err)
	}
	if _, err := svc.Activity(ctx, ""); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestConsistencyReportsOrphansAndPending(t *testing.T) {
	ctx := context.Background()
	src := newFixtureSource()
	src.statuses = append(src.statuses, status("ghost", "FX", "999", domain.RunStateCompleted, domain.SLASuccess))
	svc := newTestService(src, nil)
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	report, err := svc.Consistency(ctx)
	if err != nil {
		t.Fatalf("Consistency() error = %v", err)
	}
	if report.Count(rollup.IssueOrphanStatus) != 1 || report.Count(rollup.IssuePendingDefinition) != 1 {
		t.Fatalf("unexpected report %#v", report.Issues)
	}
}

func TestTrendsUsesBusinessDateAsReference(t *testing.T) {
	ctx := context.Background()
	trends := &fakeTrendSource{}
	svc := newTestService(newFixtureSource(), trends)
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	view, err := svc.Trends(ctx, domain.AreaScope("FX"))
	if err != nil {
		t.Fatalf("Trends() error = %v", err)
	}
	if len(trends.queries) != 1 {
		t.Fatalf("expected one trend query, got %d", len(trends.queries))
	}
	q := trends.queries[0]
	if q.HorizonDays != trend.DefaultHorizonDays || q.ReferenceDate.Format(domain.TrendDateLayout) != "2025-11-16" {
		t.Fatalf("unexpected trend query %#v", q)
	}
	if view.Title != "Historical Trends - FX" || view.ReferenceDate != "2025-11-16" {
		t.Fatalf("unexpected trend view labels %#v", view)
	}
	if view.Summary.TotalActivities != 10 {
		t.Fatalf("unexpected trend summary %#v", view.Summary)
	}
}

func TestTrendsPropagatesSourceError(t *testing.T) {
	boom := errors.New("boom")
	svc := newTestService(newFixtureSource(), &fakeTrendSource{err: boom})
	if _, err := svc.Trends(context.Background(), domain.SystemScope()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestReferenceDatePrefersConfiguredDate(t *testing.T) {
	configured := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := NewService(newFixtureSource(), nil, nil, func() time.Time { return now }, nil, ServiceConfig{TrendReferenceDate: configured})
	if got := svc.ReferenceDate(); !got.Equal(configured) {
		t.Fatalf("expected configured date, got %s", got)
	}

	fallback := NewService(newFixtureSource(), nil, nil, func() time.Time { return now }, nil, ServiceConfig{})
	if got := fallback.ReferenceDate(); !got.Equal(now) {
		t.Fatalf("expected clock fallback before any refresh, got %s", got)
	}
}

func TestGeneratorTrendSourceGeneratesFullSeries(t *testing.T) {
	src := NewGeneratorTrendSource(trend.NewGenerator(trend.NewMathRand(7)))
	ref := time.Date(2025, 11, 16, 0, 0, 0, 0, time.UTC)
	days, err := src.FetchTrends(context.Background(), TrendQuery{Scope: domain.SystemScope(), ReferenceDate: ref, HorizonDays: 30})
	if err != nil {
		t.Fatalf("FetchTrends() error = %v", err)
	}
	if len(days) != 30 || days[29].Date != "2025-11-16" {
		t.Fatalf("unexpected series len=%d last=%q", len(days), days[len(days)-1].Date)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.FetchTrends(ctx, TrendQuery{Scope: domain.SystemScope(), ReferenceDate: ref}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSeedCopiesSnapshotIntoStore(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFixtureSource(), nil)
	store := &fakeStore{}
	if _, err := svc.Seed(ctx, store); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	n, err := svc.Seed(ctx, store)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != 7 || len(store.defs) != 4 || len(store.statuses) != 3 {
		t.Fatalf("unexpected seed n=%d defs=%d statuses=%d", n, len(store.defs), len(store.statuses))
	}
}
