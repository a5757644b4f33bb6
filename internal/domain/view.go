package domain

// ViewKind identifies the hierarchy level being displayed.
type ViewKind string

const (
	ViewOverview     ViewKind = "overview"
	ViewBusinessArea ViewKind = "business_area"
	ViewApplication  ViewKind = "application"
)

// ViewState is the current navigation position. Only the fields of its Kind are set.
type ViewState struct {
	Kind         ViewKind `json:"kind" yaml:"kind"`
	BusinessArea string   `json:"businessArea,omitempty" yaml:"businessArea,omitempty"`
	AppID        string   `json:"appId,omitempty" yaml:"appId,omitempty"`
}

// OverviewState returns the root view.
func OverviewState() ViewState {
	return ViewState{Kind: ViewOverview}
}

// BusinessAreaState returns the view of one business area.
func BusinessAreaState(area string) ViewState {
	return ViewState{Kind: ViewBusinessArea, BusinessArea: area}
}

// ApplicationState returns the view of one application.
func ApplicationState(area, appID string) ViewState {
	return ViewState{Kind: ViewApplication, BusinessArea: area, AppID: appID}
}

// Scope returns the data scope displayed by the view.
func (v ViewState) Scope() Scope {
	switch v.Kind {
	case ViewBusinessArea:
		return AreaScope(v.BusinessArea)
	case ViewApplication:
		return AppScope(v.BusinessArea, v.AppID)
	default:
		return SystemScope()
	}
}

// String renders the view for logs and breadcrumbs.
func (v ViewState) String() string {
	switch v.Kind {
	case ViewBusinessArea:
		return "area(" + v.BusinessArea + ")"
	case ViewApplication:
		return "app(" + v.BusinessArea + "/" + v.AppID + ")"
	default:
		return "overview"
	}
}
