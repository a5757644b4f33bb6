package app

import (
	"context"
	"time"

	"github.com/hylla/slaboard/internal/domain"
)

// Source supplies the current definitions and status records.
type Source interface {
	FetchDefinitions(context.Context) ([]domain.ActivityDefinition, error)
	FetchStatuses(context.Context) ([]domain.ActivityStatus, error)
}

// OriginReporter is implemented by sources that can say where their last result came from.
type OriginReporter interface {
	Origin() string
}

// TrendQuery selects one trend series.
type TrendQuery struct {
	Scope         domain.Scope
	ReferenceDate time.Time
	HorizonDays   int
}

// TrendSource supplies synthetic trend series.
type TrendSource interface {
	FetchTrends(context.Context, TrendQuery) ([]domain.HistoricalTrendDay, error)
}

// SnapshotStore persists a snapshot so a SQL-backed source can serve it later.
type SnapshotStore interface {
	ReplaceSnapshot(context.Context, []domain.ActivityDefinition, []domain.ActivityStatus) error
}

// Logger is the structured logging surface adapters and the service write to.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// nopLogger discards every event.
type nopLogger struct{}

// Debug discards a debug event.
func (nopLogger) Debug(string, ...any) {}

// Info discards an info event.
func (nopLogger) Info(string, ...any) {}

// Warn discards a warning event.
func (nopLogger) Warn(string, ...any) {}

// Error discards an error event.
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}
