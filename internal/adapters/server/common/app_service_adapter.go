package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/domain"
	"github.com/hylla/slaboard/internal/rollup"
)

// AppServiceAdapter maps transport contracts onto app.Service views.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// Overview returns the overview view with its state hash.
func (a *AppServiceAdapter) Overview(ctx context.Context) (Overview, error) {
	if err := a.ready(); err != nil {
		return Overview{}, err
	}
	view, err := a.service.Overview(ctx)
	if err != nil {
		return Overview{}, mapAppError("overview", err)
	}
	hash, err := computeOverviewHash(view)
	if err != nil {
		return Overview{}, fmt.Errorf("overview: %w", err)
	}
	return Overview{OverviewView: view, StateHash: hash}, nil
}

// BusinessAreas returns one summary per business area.
func (a *AppServiceAdapter) BusinessAreas(ctx context.Context) ([]rollup.AreaSummary, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	view, err := a.service.Overview(ctx)
	if err != nil {
		return nil, mapAppError("list business areas", err)
	}
	return view.Areas, nil
}

// BusinessArea returns one business area view.
func (a *AppServiceAdapter) BusinessArea(ctx context.Context, area string) (app.AreaView, error) {
	if err := a.ready(); err != nil {
		return app.AreaView{}, err
	}
	view, err := a.service.BusinessArea(ctx, area)
	if err != nil {
		return app.AreaView{}, mapAppError("business area", err)
	}
	return view, nil
}

// Application returns one application view.
func (a *AppServiceAdapter) Application(ctx context.Context, area, appID string) (rollup.AppSummary, error) {
	if err := a.ready(); err != nil {
		return rollup.AppSummary{}, err
	}
	view, err := a.service.Application(ctx, area, appID)
	if err != nil {
		return rollup.AppSummary{}, mapAppError("application", err)
	}
	return view, nil
}

// Activity returns one activity view.
func (a *AppServiceAdapter) Activity(ctx context.Context, activityID string) (app.ActivityView, error) {
	if err := a.ready(); err != nil {
		return app.ActivityView{}, err
	}
	view, err := a.service.Activity(ctx, activityID)
	if err != nil {
		return app.ActivityView{}, mapAppError("activity", err)
	}
	return view, nil
}

// Consistency returns the data-quality report.
func (a *AppServiceAdapter) Consistency(ctx context.Context) (rollup.Report, error) {
	if err := a.ready(); err != nil {
		return rollup.Report{}, err
	}
	report, err := a.service.Consistency(ctx)
	if err != nil {
		return rollup.Report{}, mapAppError("consistency", err)
	}
	return report, nil
}

// Trends validates the requested scope and returns its series.
func (a *AppServiceAdapter) Trends(ctx context.Context, in TrendRequest) (app.TrendView, error) {
	if err := a.ready(); err != nil {
		return app.TrendView{}, err
	}
	scope, err := domain.NewScope(in.BusinessArea, in.AppID, in.ActivityID, in.ActivityName)
	if err != nil {
		return app.TrendView{}, mapAppError("trends", err)
	}
	view, err := a.service.Trends(ctx, scope)
	if err != nil {
		return app.TrendView{}, mapAppError("trends", err)
	}
	return view, nil
}

// State returns the session load state.
func (a *AppServiceAdapter) State(context.Context) (app.SessionState, error) {
	if err := a.ready(); err != nil {
		return app.SessionState{}, err
	}
	return a.service.State(), nil
}

// Refresh reloads the snapshot.
func (a *AppServiceAdapter) Refresh(ctx context.Context) (app.RefreshResult, error) {
	if err := a.ready(); err != nil {
		return app.RefreshResult{}, err
	}
	res, err := a.service.Refresh(ctx)
	if err != nil {
		return app.RefreshResult{}, mapAppError("refresh", err)
	}
	return res, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

// computeOverviewHash hashes the rollup content, ignoring load metadata.
func computeOverviewHash(view app.OverviewView) (string, error) {
	payload, err := json.Marshal(struct {
		BusinessDate string               `json:"businessDate"`
		Summary      rollup.Summary       `json:"summary"`
		Areas        []rollup.AreaSummary `json:"areas"`
	}{
		BusinessDate: view.BusinessDate,
		Summary:      view.Summary,
		Areas:        view.Areas,
	})
	if err != nil {
		return "", fmt.Errorf("encode overview hash payload: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// mapAppError maps app and domain sentinels onto transport sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidScope),
		errors.Is(err, domain.ErrInvalidBusinessArea),
		errors.Is(err, domain.ErrInvalidAppID):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	case errors.Is(err, app.ErrNoSnapshot), errors.Is(err, app.ErrSourceRequired):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnavailable, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
