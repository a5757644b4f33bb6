// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/rollup"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrUnavailable reports a surface whose backing data is not loaded or not configured.
var ErrUnavailable = errors.New("unavailable")

// TrendRequest selects one trend series. Empty fields widen the scope.
type TrendRequest struct {
	BusinessArea string `json:"business_area,omitempty"`
	AppID        string `json:"app_id,omitempty"`
	ActivityID   string `json:"activity_id,omitempty"`
	ActivityName string `json:"activity_name,omitempty"`
}

// Overview is the overview view plus a hash of its content for cheap change detection.
type Overview struct {
	app.OverviewView
	StateHash string `json:"stateHash"`
}

// DashboardReader resolves every read-only dashboard view.
type DashboardReader interface {
	Overview(context.Context) (Overview, error)
	BusinessAreas(context.Context) ([]rollup.AreaSummary, error)
	BusinessArea(context.Context, string) (app.AreaView, error)
	Application(context.Context, string, string) (rollup.AppSummary, error)
	Activity(context.Context, string) (app.ActivityView, error)
	Consistency(context.Context) (rollup.Report, error)
	Trends(context.Context, TrendRequest) (app.TrendView, error)
	State(context.Context) (app.SessionState, error)
}

// Refresher reloads the dashboard snapshot.
type Refresher interface {
	Refresh(context.Context) (app.RefreshResult, error)
}
