// Package navigation holds the drill-down view state and its legal transitions.
package navigation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/slaboard/internal/domain"
)

// ErrIllegalTransition reports a transition that is not legal from the current view.
var ErrIllegalTransition = errors.New("illegal navigation transition")

// Transition describes one applied navigation step.
// Refresh is set when the caller should recompute rollups or fetch trends.
type Transition struct {
	From    domain.ViewState
	To      domain.ViewState
	Refresh bool
}

// Navigator is an immutable navigation position. Every operation returns a new value.
type Navigator struct {
	view      domain.ViewState
	selected  string
	trend     domain.Scope
	trendOpen bool
}

// New returns a navigator at the overview with nothing selected.
func New() Navigator {
	return Navigator{view: domain.OverviewState()}
}

// View returns the current view.
func (n Navigator) View() domain.ViewState {
	if n.view.Kind == "" {
		return domain.OverviewState()
	}
	return n.view
}

// Selected returns the business area marked on the overview.
func (n Navigator) Selected() (string, bool) {
	return n.selected, n.selected != ""
}

// Trend returns the open trend overlay scope.
func (n Navigator) Trend() (domain.Scope, bool) {
	return n.trend, n.trendOpen
}

// DataScope returns the scope the current view aggregates over.
func (n Navigator) DataScope() domain.Scope {
	return n.View().Scope()
}

// Select marks one business area on the overview without navigating.
func (n Navigator) Select(area string) (Navigator, Transition, error) {
	area = strings.TrimSpace(area)
	from := n.View()
	if from.Kind != domain.ViewOverview {
		return n, Transition{}, fmt.Errorf("select %q from %s: %w", area, from, ErrIllegalTransition)
	}
	if area == "" {
		return n, Transition{}, fmt.Errorf("select empty area: %w", domain.ErrInvalidBusinessArea)
	}
	n.selected = area
	return n, Transition{From: from, To: from}, nil
}

// ClearSelection removes the overview selection marker.
func (n Navigator) ClearSelection() Navigator {
	n.selected = ""
	return n
}

// DrillIntoArea moves from the overview into one business area.
func (n Navigator) DrillIntoArea(area string) (Navigator, Transition, error) {
	area = strings.TrimSpace(area)
	from := n.View()
	if from.Kind != domain.ViewOverview {
		return n, Transition{}, fmt.Errorf("drill into %q from %s: %w", area, from, ErrIllegalTransition)
	}
	if area == "" {
		return n, Transition{}, fmt.Errorf("drill into empty area: %w", domain.ErrInvalidBusinessArea)
	}
	n.view = domain.BusinessAreaState(area)
	n.selected = ""
	return n, Transition{From: from, To: n.view, Refresh: true}, nil
}

// OpenApplication moves from a business area into one of its applications.
func (n Navigator) OpenApplication(appID string) (Navigator, Transition, error) {
	appID = strings.TrimSpace(appID)
	from := n.View()
	if from.Kind != domain.ViewBusinessArea {
		return n, Transition{}, fmt.Errorf("open app %q from %s: %w", appID, from, ErrIllegalTransition)
	}
	if appID == "" {
		return n, Transition{}, fmt.Errorf("open empty app: %w", domain.ErrInvalidAppID)
	}
	n.view = domain.ApplicationState(from.BusinessArea, appID)
	return n, Transition{From: from, To: n.view, Refresh: true}, nil
}

// Back moves up exactly one level. The trend overlay is not part of history and is left as is.
func (n Navigator) Back() (Navigator, Transition, error) {
	from := n.View()
	switch from.Kind {
	case domain.ViewApplication:
		n.view = domain.BusinessAreaState(from.BusinessArea)
		return n, Transition{From: from, To: n.view, Refresh: true}, nil
	case domain.ViewBusinessArea:
		n.view = domain.OverviewState()
		n.selected = ""
		return n, Transition{From: from, To: n.view, Refresh: true}, nil
	default:
		return n, Transition{}, fmt.Errorf("back from %s: %w", from, ErrIllegalTransition)
	}
}

// OpenTrends shows the trend overlay for scope on top of any view.
func (n Navigator) OpenTrends(scope domain.Scope) (Navigator, Transition) {
	n.trend = scope
	n.trendOpen = true
	view := n.View()
	return n, Transition{From: view, To: view, Refresh: true}
}

// CloseTrends hides the trend overlay and leaves the view unchanged.
func (n Navigator) CloseTrends() (Navigator, Transition) {
	n.trend = domain.Scope{}
	n.trendOpen = false
	view := n.View()
	return n, Transition{From: view, To: view}
}

// Breadcrumb lists the path from the overview to the current view.
func (n Navigator) Breadcrumb() []string {
	view := n.View()
	crumbs := []string{"Overview"}
	switch view.Kind {
	case domain.ViewBusinessArea:
		crumbs = append(crumbs, view.BusinessArea)
	case domain.ViewApplication:
		crumbs = append(crumbs, view.BusinessArea, view.AppID)
	}
	return crumbs
}
