package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hylla/slaboard/internal/domain"
	"github.com/hylla/slaboard/internal/rollup"
	"github.com/hylla/slaboard/internal/trend"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	TrendHorizonDays   int
	TrendReferenceDate time.Time
}

// IDGenerator returns unique identifiers for refreshes.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// RefreshResult describes one committed refresh.
type RefreshResult struct {
	RefreshID    string        `json:"refreshId"`
	Definitions  int           `json:"definitions"`
	Statuses     int           `json:"statuses"`
	Origin       string        `json:"origin,omitempty"`
	BusinessDate string        `json:"businessDate,omitempty"`
	LoadedAt     time.Time     `json:"loadedAt"`
	Duration     time.Duration `json:"duration"`
}

// SessionState reports whether a snapshot is loaded and how the last refresh went.
type SessionState struct {
	Loaded    bool      `json:"loaded"`
	RefreshID string    `json:"refreshId,omitempty"`
	LoadedAt  time.Time `json:"loadedAt,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Service owns the dashboard session: the current snapshot and the views derived from it.
type Service struct {
	source  Source
	trends  TrendSource
	idGen   IDGenerator
	clock   Clock
	logger  Logger
	horizon int
	refDate time.Time

	mu      sync.RWMutex
	current Snapshot
	loaded  bool
	lastErr error
}

// NewService constructs a new value for this package.
func NewService(source Source, trends TrendSource, idGen IDGenerator, clock Clock, logger Logger, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = NopLogger()
	}
	if trends == nil {
		trends = NewGeneratorTrendSource(trend.NewGenerator(nil))
	}
	if cfg.TrendHorizonDays <= 0 {
		cfg.TrendHorizonDays = trend.DefaultHorizonDays
	}
	return &Service{
		source:  source,
		trends:  trends,
		idGen:   idGen,
		clock:   clock,
		logger:  logger,
		horizon: cfg.TrendHorizonDays,
		refDate: cfg.TrendReferenceDate,
		current: emptySnapshot(),
	}
}

// Refresh fetches definitions and statuses concurrently and commits them together.
// On any failure the previous snapshot stays current.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	if s.source == nil {
		return RefreshResult{}, ErrSourceRequired
	}
	started := s.clock()

	var (
		defs     []domain.ActivityDefinition
		statuses []domain.ActivityStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.source.FetchDefinitions(gctx)
		if err != nil {
			return fmt.Errorf("fetch definitions: %w", err)
		}
		defs = out
		return nil
	})
	g.Go(func() error {
		out, err := s.source.FetchStatuses(gctx)
		if err != nil {
			return fmt.Errorf("fetch statuses: %w", err)
		}
		statuses = out
		return nil
	})
	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Warn("refresh failed, keeping previous snapshot", "err", err)
		return RefreshResult{}, err
	}

	origin := ""
	if reporter, ok := s.source.(OriginReporter); ok {
		origin = reporter.Origin()
	}
	loadedAt := s.clock().UTC()
	snap := Snapshot{
		Version:      SnapshotVersion,
		RefreshID:    s.idGen(),
		BusinessDate: latestBusinessDate(statuses),
		LoadedAt:     loadedAt,
		Origin:       origin,
		Definitions:  append([]domain.ActivityDefinition{}, defs...),
		Statuses:     append([]domain.ActivityStatus{}, statuses...),
	}
	s.commit(snap)

	result := RefreshResult{
		RefreshID:    snap.RefreshID,
		Definitions:  len(snap.Definitions),
		Statuses:     len(snap.Statuses),
		Origin:       origin,
		BusinessDate: snap.BusinessDate,
		LoadedAt:     loadedAt,
		Duration:     loadedAt.Sub(started),
	}
	s.logger.Info("snapshot refreshed", "refresh_id", result.RefreshID, "definitions", result.Definitions, "statuses", result.Statuses, "origin", origin)
	return result, nil
}

// commit swaps the current snapshot wholesale.
func (s *Service) commit(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = snap
	s.loaded = true
	s.lastErr = nil
}

// Snapshot returns a copy of the current snapshot and whether one has been loaded.
func (s *Service) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone(), s.loaded
}

// State reports the session load state.
func (s *Service) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := SessionState{
		Loaded:    s.loaded,
		RefreshID: s.current.RefreshID,
		LoadedAt:  s.current.LoadedAt,
		Origin:    s.current.Origin,
	}
	if s.lastErr != nil {
		state.LastError = s.lastErr.Error()
	}
	return state
}

// read returns the record slices of the current snapshot without copying them.
// Committed snapshots are never mutated in place.
func (s *Service) read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OverviewView is the system-wide landing view.
type OverviewView struct {
	RefreshID    string               `json:"refreshId,omitempty" yaml:"refreshId,omitempty"`
	BusinessDate string               `json:"businessDate,omitempty" yaml:"businessDate,omitempty"`
	LoadedAt     time.Time            `json:"loadedAt" yaml:"loadedAt"`
	Origin       string               `json:"origin,omitempty" yaml:"origin,omitempty"`
	Summary      rollup.Summary       `json:"summary" yaml:"summary"`
	Areas        []rollup.AreaSummary `json:"areas" yaml:"areas"`
}

// AreaView is one business area with its applications.
type AreaView struct {
	Area         rollup.AreaSummary  `json:"area" yaml:"area"`
	Applications []rollup.AppSummary `json:"applications" yaml:"applications"`
}

// ActivityView is one activity with every run recorded for it.
type ActivityView struct {
	Row  rollup.ActivityRow      `json:"row" yaml:"row"`
	Runs []domain.ActivityStatus `json:"runs" yaml:"runs"`
}

// TrendView is one trend series with its display labels and summary.
type TrendView struct {
	Scope         domain.Scope                `json:"scope" yaml:"scope"`
	Title         string                      `json:"title" yaml:"title"`
	Subtitle      string                      `json:"subtitle" yaml:"subtitle"`
	ReferenceDate string                      `json:"referenceDate" yaml:"referenceDate"`
	Days          []domain.HistoricalTrendDay `json:"days" yaml:"days"`
	Summary       trend.Summary               `json:"summary" yaml:"summary"`
}

// Overview returns the system summary and one card per business area.
func (s *Service) Overview(ctx context.Context) (OverviewView, error) {
	if err := ctx.Err(); err != nil {
		return OverviewView{}, err
	}
	snap := s.read()
	return OverviewView{
		RefreshID:    snap.RefreshID,
		BusinessDate: snap.BusinessDate,
		LoadedAt:     snap.LoadedAt,
		Origin:       snap.Origin,
		Summary:      rollup.SystemSummary(snap.Definitions, snap.Statuses),
		Areas:        rollup.SummarizeAreas(snap.Definitions, snap.Statuses),
	}, nil
}

// BusinessArea returns one area rollup with its application cards.
func (s *Service) BusinessArea(ctx context.Context, area string) (AreaView, error) {
	if err := ctx.Err(); err != nil {
		return AreaView{}, err
	}
	area = strings.TrimSpace(area)
	if area == "" {
		return AreaView{}, domain.ErrInvalidBusinessArea
	}
	snap := s.read()
	if !containsString(rollup.ListDistinctBusinessAreas(snap.Definitions), area) {
		return AreaView{}, fmt.Errorf("business area %q: %w", area, ErrNotFound)
	}
	return AreaView{
		Area:         rollup.SummarizeArea(snap.Definitions, snap.Statuses, area),
		Applications: rollup.SummarizeApps(snap.Definitions, snap.Statuses, area),
	}, nil
}

// Application returns one application rollup with its activity rows.
func (s *Service) Application(ctx context.Context, area, appID string) (rollup.AppSummary, error) {
	if err := ctx.Err(); err != nil {
		return rollup.AppSummary{}, err
	}
	area = strings.TrimSpace(area)
	appID = strings.TrimSpace(appID)
	if area == "" {
		return rollup.AppSummary{}, domain.ErrInvalidBusinessArea
	}
	if appID == "" {
		return rollup.AppSummary{}, domain.ErrInvalidAppID
	}
	snap := s.read()
	if !containsString(rollup.ListDistinctApps(snap.Definitions, domain.AreaScope(area)), appID) {
		return rollup.AppSummary{}, fmt.Errorf("application %q in %q: %w", appID, area, ErrNotFound)
	}
	return rollup.SummarizeApp(snap.Definitions, snap.Statuses, area, appID), nil
}

// Activity returns one activity row and all of its runs in source order.
func (s *Service) Activity(ctx context.Context, activityID string) (ActivityView, error) {
	if err := ctx.Err(); err != nil {
		return ActivityView{}, err
	}
	activityID = strings.TrimSpace(activityID)
	if activityID == "" {
		return ActivityView{}, domain.ErrInvalidID
	}
	snap := s.read()
	def, ok := rollup.FindDefinition(snap.Definitions, activityID)
	if !ok {
		return ActivityView{}, fmt.Errorf("activity %q: %w", activityID, ErrNotFound)
	}
	return ActivityView{
		Row:  rollup.NewActivityRow(def, snap.Statuses),
		Runs: rollup.StatusesFor(snap.Statuses, activityID),
	}, nil
}

// Consistency reports the data-quality findings of the current snapshot.
func (s *Service) Consistency(ctx context.Context) (rollup.Report, error) {
	if err := ctx.Err(); err != nil {
		return rollup.Report{}, err
	}
	snap := s.read()
	return rollup.Consistency(snap.Definitions, snap.Statuses), nil
}

// Trends returns the synthetic trend series for a scope.
func (s *Service) Trends(ctx context.Context, scope domain.Scope) (TrendView, error) {
	ref := s.ReferenceDate()
	days, err := s.trends.FetchTrends(ctx, TrendQuery{
		Scope:         scope,
		ReferenceDate: ref,
		HorizonDays:   s.horizon,
	})
	if err != nil {
		return TrendView{}, fmt.Errorf("fetch trends %s: %w", scope, err)
	}
	return TrendView{
		Scope:         scope,
		Title:         trend.Title(scope),
		Subtitle:      trend.Subtitle(scope, len(days)),
		ReferenceDate: ref.Format(domain.TrendDateLayout),
		Days:          days,
		Summary:       trend.Summarize(days),
	}, nil
}

// ReferenceDate is the last day of generated trend series: the configured date,
// else the snapshot business date, else today.
func (s *Service) ReferenceDate() time.Time {
	if !s.refDate.IsZero() {
		return s.refDate.UTC()
	}
	if date := s.read().BusinessDate; date != "" {
		if day, err := time.Parse(domain.TrendDateLayout, date); err == nil {
			return day
		}
	}
	return s.clock().UTC()
}

// Seed copies the current snapshot into a store.
func (s *Service) Seed(ctx context.Context, store SnapshotStore) (int, error) {
	if store == nil {
		return 0, fmt.Errorf("seed store: %w", ErrSourceRequired)
	}
	snap, loaded := s.Snapshot()
	if !loaded {
		return 0, ErrNoSnapshot
	}
	if err := store.ReplaceSnapshot(ctx, snap.Definitions, snap.Statuses); err != nil {
		return 0, fmt.Errorf("seed store: %w", err)
	}
	s.logger.Info("store seeded", "refresh_id", snap.RefreshID, "definitions", len(snap.Definitions), "statuses", len(snap.Statuses))
	return len(snap.Definitions) + len(snap.Statuses), nil
}

// containsString reports whether want is in values.
func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
