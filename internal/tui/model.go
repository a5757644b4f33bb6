package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/domain"
	"github.com/hylla/slaboard/internal/navigation"
	"github.com/hylla/slaboard/internal/rollup"
)

// Service is the dashboard session the model renders.
type Service interface {
	Refresh(context.Context) (app.RefreshResult, error)
	Overview(context.Context) (app.OverviewView, error)
	BusinessArea(context.Context, string) (app.AreaView, error)
	Application(context.Context, string, string) (rollup.AppSummary, error)
	Activity(context.Context, string) (app.ActivityView, error)
	Trends(context.Context, domain.Scope) (app.TrendView, error)
}

// overlayMode identifies a modal shown on top of the current view.
type overlayMode int

const (
	overlayNone overlayMode = iota
	overlayActivity
)

// focusItem is one focusable card or row of the current view.
type focusItem struct {
	ID    string
	Label string
	Scope domain.Scope
}

// Model is the bubbletea dashboard model.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error
	status string

	help help.Model
	keys keyMap
	md   *markdownRenderer

	nav          navigation.Navigator
	clicks       navigation.ClickTracker
	doubleClick  time.Duration
	now          func() time.Time
	copyText     ClipboardWriter
	refreshEvery time.Duration

	showDetailPanel bool

	loaded       bool
	overview     app.OverviewView
	area         app.AreaView
	application  rollup.AppSummary
	selectedArea *app.AreaView
	cursor       int
	focusAfter   string

	overlay   overlayMode
	trendView app.TrendView
	trendOK   bool
	activity  app.ActivityView
}

// refreshedMsg carries the outcome of one session refresh.
type refreshedMsg struct {
	result app.RefreshResult
	err    error
}

// loadedMsg carries the view models of one navigation position.
type loadedMsg struct {
	view        domain.ViewState
	overview    app.OverviewView
	area        app.AreaView
	application rollup.AppSummary
	selected    *app.AreaView
	err         error
}

// trendsLoadedMsg carries one trend series.
type trendsLoadedMsg struct {
	scope domain.Scope
	view  app.TrendView
	err   error
}

// activityLoadedMsg carries one activity detail.
type activityLoadedMsg struct {
	view app.ActivityView
	err  error
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	text string
	err  error
}

// tickMsg triggers a periodic refresh.
type tickMsg time.Time

// NewModel constructs the dashboard model.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:             svc,
		status:          "loading...",
		help:            h,
		keys:            newKeyMap(),
		md:              &markdownRenderer{},
		nav:             navigation.New(),
		doubleClick:     navigation.DefaultDoubleClickWindow,
		now:             time.Now,
		copyText:        DefaultClipboardWriter(),
		showDetailPanel: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.clicks = navigation.NewClickTracker(m.doubleClick)
	return m
}

// Init refreshes the session and schedules the optional periodic refresh.
func (m Model) Init() tea.Cmd {
	if m.refreshEvery > 0 {
		return tea.Batch(m.refreshCmd(), m.tickCmd())
	}
	return m.refreshCmd()
}

// Update applies one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
		} else {
			m.err = nil
			m.status = fmt.Sprintf("loaded %d activities, %d runs from %s", msg.result.Definitions, msg.result.Statuses, msg.result.Origin)
		}
		return m, m.loadCmd()

	case loadedMsg:
		if msg.view != m.nav.View() {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, app.ErrNotFound) {
				m.nav = navigation.New()
				m.cursor = 0
				m.status = "view no longer present in data, back to overview"
				return m, m.loadCmd()
			}
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.overview = msg.overview
		m.area = msg.area
		m.application = msg.application
		m.selectedArea = msg.selected
		if m.focusAfter != "" {
			for idx, item := range m.focusItems() {
				if item.ID == m.focusAfter {
					m.cursor = idx
					break
				}
			}
			m.focusAfter = ""
		}
		m.clampCursor()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case trendsLoadedMsg:
		scope, open := m.nav.Trend()
		if !open || scope != msg.scope {
			return m, nil
		}
		if msg.err != nil {
			m.nav, _ = m.nav.CloseTrends()
			m.status = "trends unavailable: " + msg.err.Error()
			return m, nil
		}
		m.trendView = msg.view
		m.trendOK = true
		m.status = msg.view.Title
		return m, nil

	case activityLoadedMsg:
		if msg.err != nil {
			m.overlay = overlayNone
			m.status = "activity unavailable: " + msg.err.Error()
			return m, nil
		}
		m.activity = msg.view
		m.overlay = overlayActivity
		m.status = "activity " + msg.view.Row.Definition.ActivityID
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied " + msg.text
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.refreshCmd(), m.tickCmd())

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	default:
		return m, nil
	}
}

// handleKey routes one key press.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.back):
		return m.back()
	case key.Matches(msg, m.keys.refresh):
		m.status = "refreshing..."
		return m, m.refreshCmd()
	}

	if m.help.ShowAll {
		return m, nil
	}
	if _, open := m.nav.Trend(); open {
		if key.Matches(msg, m.keys.viewTrends, m.keys.focusTrends) {
			m.nav, _ = m.nav.CloseTrends()
			m.trendOK = false
		}
		return m, nil
	}
	if m.overlay == overlayActivity {
		switch {
		case key.Matches(msg, m.keys.viewTrends, m.keys.focusTrends):
			def := m.activity.Row.Definition
			m.overlay = overlayNone
			return m.openTrends(domain.ActivityScope(def.ActivityID, def.ActivityName))
		case key.Matches(msg, m.keys.copyID):
			return m, m.copyCmd(m.activity.Row.Definition.ActivityID)
		}
		return m, nil
	}

	items := m.focusItems()
	switch {
	case key.Matches(msg, m.keys.moveLeft):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.moveRight):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.moveUp):
		m.moveCursor(-m.rowStride())
	case key.Matches(msg, m.keys.moveDown):
		m.moveCursor(m.rowStride())
	case key.Matches(msg, m.keys.selectCard):
		if len(items) == 0 {
			return m, nil
		}
		return m.selectItem(items[m.cursor])
	case key.Matches(msg, m.keys.open):
		if len(items) == 0 {
			return m, nil
		}
		return m.drill(items[m.cursor])
	case key.Matches(msg, m.keys.viewTrends):
		return m.openTrends(m.nav.DataScope())
	case key.Matches(msg, m.keys.focusTrends):
		if len(items) == 0 {
			return m.openTrends(m.nav.DataScope())
		}
		return m.openTrends(items[m.cursor].Scope)
	case key.Matches(msg, m.keys.copyID):
		if len(items) == 0 {
			return m, nil
		}
		return m, m.copyCmd(items[m.cursor].ID)
	case key.Matches(msg, m.keys.toggleGrid):
		m.showDetailPanel = !m.showDetailPanel
		if !m.showDetailPanel {
			m.selectedArea = nil
			return m, nil
		}
		return m, m.loadCmd()
	}
	return m, nil
}

// back closes the innermost layer: help, trend overlay, activity detail, selection, then one view level.
func (m Model) back() (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		m.help.ShowAll = false
		return m, nil
	}
	if _, open := m.nav.Trend(); open {
		m.nav, _ = m.nav.CloseTrends()
		m.trendOK = false
		m.status = "trends closed"
		return m, nil
	}
	if m.overlay != overlayNone {
		m.overlay = overlayNone
		m.status = "ready"
		return m, nil
	}
	from := m.nav.View()
	if from.Kind == domain.ViewOverview {
		if _, ok := m.nav.Selected(); ok {
			m.nav = m.nav.ClearSelection()
			m.selectedArea = nil
			m.status = "selection cleared"
		}
		return m, nil
	}
	next, tr, err := m.nav.Back()
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.nav = next
	m.clicks.Reset()
	m.selectedArea = nil
	m.cursor = 0
	switch from.Kind {
	case domain.ViewApplication:
		m.focusAfter = from.AppID
	case domain.ViewBusinessArea:
		m.focusAfter = from.BusinessArea
	}
	m.status = strings.Join(m.nav.Breadcrumb(), " › ")
	if tr.Refresh {
		return m, m.loadCmd()
	}
	return m, nil
}

// selectItem marks a business area on the overview.
func (m Model) selectItem(item focusItem) (tea.Model, tea.Cmd) {
	next, _, err := m.nav.Select(item.ID)
	if err != nil {
		m.status = "select works on the overview; enter opens"
		return m, nil
	}
	m.nav = next
	m.status = "selected " + item.ID
	if m.showDetailPanel {
		return m, m.loadCmd()
	}
	return m, nil
}

// drill opens the focused item one level down.
func (m Model) drill(item focusItem) (tea.Model, tea.Cmd) {
	var (
		next navigation.Navigator
		tr   navigation.Transition
		err  error
	)
	switch m.nav.View().Kind {
	case domain.ViewOverview:
		next, tr, err = m.nav.DrillIntoArea(item.ID)
	case domain.ViewBusinessArea:
		next, tr, err = m.nav.OpenApplication(item.ID)
	default:
		return m, m.activityCmd(item.ID)
	}
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.nav = next
	m.cursor = 0
	m.selectedArea = nil
	m.clicks.Reset()
	m.status = strings.Join(m.nav.Breadcrumb(), " › ")
	if tr.Refresh {
		return m, m.loadCmd()
	}
	return m, nil
}

// openTrends shows the trend overlay for scope and fetches its series.
func (m Model) openTrends(scope domain.Scope) (tea.Model, tea.Cmd) {
	next, tr := m.nav.OpenTrends(scope)
	m.nav = next
	m.trendOK = false
	m.status = "loading trends..."
	if tr.Refresh {
		return m, m.trendsCmd(scope)
	}
	return m, nil
}

// handleMouseWheel moves the focus.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.overlay != overlayNone {
		return m, nil
	}
	if _, open := m.nav.Trend(); open {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.moveCursor(-1)
	case tea.MouseWheelDown:
		m.moveCursor(1)
	}
	return m, nil
}

// handleMouseClick focuses the clicked item. Application cards open on a single click;
// area cards and activity rows drill in on a second click within the window.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.help.ShowAll || m.overlay != overlayNone {
		return m, nil
	}
	if _, open := m.nav.Trend(); open {
		return m, nil
	}
	idx, ok := m.itemAt(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	items := m.focusItems()
	item := items[idx]
	m.cursor = idx
	if m.nav.View().Kind == domain.ViewBusinessArea {
		return m.drill(item)
	}
	target := m.nav.View().String() + "/" + item.ID
	if m.clicks.Register(target, m.now()) {
		return m.drill(item)
	}
	if m.nav.View().Kind == domain.ViewOverview {
		return m.selectItem(item)
	}
	return m, nil
}

// focusItems lists the focusable items of the current view in display order.
func (m Model) focusItems() []focusItem {
	view := m.nav.View()
	switch view.Kind {
	case domain.ViewBusinessArea:
		out := make([]focusItem, 0, len(m.area.Applications))
		for _, appSummary := range m.area.Applications {
			out = append(out, focusItem{
				ID:    appSummary.AppID,
				Label: "Application " + appSummary.AppID,
				Scope: domain.AppScope(view.BusinessArea, appSummary.AppID),
			})
		}
		return out
	case domain.ViewApplication:
		out := make([]focusItem, 0, len(m.application.Activities))
		for _, row := range m.application.Activities {
			out = append(out, focusItem{
				ID:    row.Definition.ActivityID,
				Label: row.Definition.ActivityName,
				Scope: domain.ActivityScope(row.Definition.ActivityID, row.Definition.ActivityName),
			})
		}
		return out
	default:
		out := make([]focusItem, 0, len(m.overview.Areas))
		for _, area := range m.overview.Areas {
			out = append(out, focusItem{
				ID:    area.BusinessArea,
				Label: area.BusinessArea,
				Scope: domain.AreaScope(area.BusinessArea),
			})
		}
		return out
	}
}

// moveCursor shifts the focus by delta, clamped to the item list.
func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

// clampCursor keeps the focus inside the item list.
func (m *Model) clampCursor() {
	m.cursor = clamp(m.cursor, 0, len(m.focusItems())-1)
}

// rowStride is the cursor step of up/down: one grid row, or one list row.
func (m Model) rowStride() int {
	if m.nav.View().Kind == domain.ViewApplication {
		return 1
	}
	_, _, cols := m.gridGeometry()
	return cols
}

// refreshCmd reloads the session snapshot.
func (m Model) refreshCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		res, err := svc.Refresh(context.Background())
		return refreshedMsg{result: res, err: err}
	}
}

// loadCmd reads the view models of the current navigation position.
func (m Model) loadCmd() tea.Cmd {
	svc := m.svc
	view := m.nav.View()
	selected, hasSelected := m.nav.Selected()
	withGrid := m.showDetailPanel && hasSelected
	return func() tea.Msg {
		ctx := context.Background()
		msg := loadedMsg{view: view}
		msg.overview, msg.err = svc.Overview(ctx)
		if msg.err != nil {
			return msg
		}
		switch view.Kind {
		case domain.ViewBusinessArea:
			msg.area, msg.err = svc.BusinessArea(ctx, view.BusinessArea)
		case domain.ViewApplication:
			msg.application, msg.err = svc.Application(ctx, view.BusinessArea, view.AppID)
		default:
			if withGrid {
				if area, err := svc.BusinessArea(ctx, selected); err == nil {
					msg.selected = &area
				}
			}
		}
		return msg
	}
}

// trendsCmd fetches the trend series of scope.
func (m Model) trendsCmd(scope domain.Scope) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		view, err := svc.Trends(context.Background(), scope)
		return trendsLoadedMsg{scope: scope, view: view, err: err}
	}
}

// activityCmd fetches one activity detail.
func (m Model) activityCmd(activityID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		view, err := svc.Activity(context.Background(), activityID)
		return activityLoadedMsg{view: view, err: err}
	}
}

// copyCmd writes text to the clipboard.
func (m Model) copyCmd(text string) tea.Cmd {
	write := m.copyText
	return func() tea.Msg {
		if write == nil {
			return copiedMsg{text: text, err: errors.New("clipboard unavailable")}
		}
		return copiedMsg{text: text, err: write(text)}
	}
}

// tickCmd schedules the next periodic refresh.
func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// clamp bounds v to [minV, maxV]; an empty range yields minV.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
