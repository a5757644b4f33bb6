package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hylla/slaboard/internal/domain"
)

// SnapshotVersion defines the export format version.
const SnapshotVersion = "slaboard.snapshot.v1"

// Snapshot is one consistent pair of definitions and statuses from a refresh.
type Snapshot struct {
	Version      string                      `json:"version" yaml:"version"`
	RefreshID    string                      `json:"refreshId" yaml:"refreshId"`
	BusinessDate string                      `json:"businessDate,omitempty" yaml:"businessDate,omitempty"`
	LoadedAt     time.Time                   `json:"loadedAt" yaml:"loadedAt"`
	Origin       string                      `json:"origin,omitempty" yaml:"origin,omitempty"`
	Definitions  []domain.ActivityDefinition `json:"definitions" yaml:"definitions"`
	Statuses     []domain.ActivityStatus     `json:"statuses" yaml:"statuses"`
}

// emptySnapshot is served until the first successful refresh.
func emptySnapshot() Snapshot {
	return Snapshot{
		Version:     SnapshotVersion,
		Definitions: []domain.ActivityDefinition{},
		Statuses:    []domain.ActivityStatus{},
	}
}

// ExportSnapshot returns a copy of the current snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	snap, loaded := s.Snapshot()
	if !loaded {
		return Snapshot{}, ErrNoSnapshot
	}
	snap.sort()
	return snap, nil
}

// ImportSnapshot validates a snapshot and installs it as the current one.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	snap.Version = SnapshotVersion
	if strings.TrimSpace(snap.RefreshID) == "" {
		snap.RefreshID = s.idGen()
	}
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = s.clock().UTC()
	}
	if strings.TrimSpace(snap.Origin) == "" {
		snap.Origin = "import"
	}
	if snap.BusinessDate == "" {
		snap.BusinessDate = latestBusinessDate(snap.Statuses)
	}
	s.commit(snap.clone())
	s.logger.Info("snapshot imported", "refresh_id", snap.RefreshID, "definitions", len(snap.Definitions), "statuses", len(snap.Statuses))
	return nil
}

// Validate checks that every definition carries the identity fields rollups group by.
// Status records are tolerated as-is; orphans and duplicates are data-quality findings.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}
	for i, def := range s.Definitions {
		if err := def.Validate(); err != nil {
			return fmt.Errorf("definitions[%d]: %w", i, err)
		}
	}
	for i, status := range s.Statuses {
		if strings.TrimSpace(status.ActivityID) == "" {
			return fmt.Errorf("statuses[%d].activityId is required", i)
		}
	}
	return nil
}

// sort orders definitions by area, app and id. Status order is kept since the first record wins.
func (s *Snapshot) sort() {
	sort.SliceStable(s.Definitions, func(i, j int) bool {
		a, b := s.Definitions[i], s.Definitions[j]
		if a.BusinessArea != b.BusinessArea {
			return a.BusinessArea < b.BusinessArea
		}
		if a.AppID != b.AppID {
			return a.AppID < b.AppID
		}
		return a.ActivityID < b.ActivityID
	})
}

// clone copies the record slices so callers cannot mutate shared state.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Definitions = append([]domain.ActivityDefinition{}, s.Definitions...)
	out.Statuses = append([]domain.ActivityStatus{}, s.Statuses...)
	return out
}

// latestBusinessDate returns the greatest business date among the status records.
func latestBusinessDate(statuses []domain.ActivityStatus) string {
	latest := ""
	for _, status := range statuses {
		date := strings.TrimSpace(status.BusinessDate)
		if date > latest {
			latest = date
		}
	}
	return latest
}
