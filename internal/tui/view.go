package tui

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/domain"
	"github.com/hylla/slaboard/internal/rollup"
	"github.com/hylla/slaboard/internal/trend"
)

const (
	dashboardTitle    = "Capital Markets - Clean PNL View"
	dashboardSubtitle = "Real-time activity and SLA tracking"
)

// layout constants used by rendering and mouse hit testing.
const (
	// headerHeight is the number of lines above the body: title, subtitle, totals, breadcrumb, spacer.
	headerHeight   = 5
	cardInnerWidth = 26
	cardLines      = 4
	cardGap        = 1
)

// sparkLevels are the glyphs of the trend sparklines, lowest first.
var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// View renders the dashboard.
func (m Model) View() tea.View {
	return newView(m.renderContent())
}

// renderContent renders the full screen including overlays.
func (m Model) renderContent() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	statusStyle := lipgloss.NewStyle().Foreground(dimColor)
	sections := []string{m.renderHeader(), m.renderBody()}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine
	if overlay := m.renderOverlay(); overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// newView wraps content in an alt-screen view with mouse reporting.
func newView(content string) tea.View {
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderHeader renders exactly headerHeight lines.
func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(textColor)
	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)
	summary := m.overview.Summary
	counts := summary.Counts

	totals := fmt.Sprintf("Activities %d • Apps %d • ", counts.Total, summary.Applications) +
		lipgloss.NewStyle().Foreground(healthColor(rollup.HealthHealthy)).Render(fmt.Sprintf("Success %d", counts.Success)) + " • " +
		lipgloss.NewStyle().Foreground(healthColor(rollup.HealthActive)).Render(fmt.Sprintf("Running %d", counts.Running)) + " • " +
		lipgloss.NewStyle().Foreground(healthColor(rollup.HealthCritical)).Render(fmt.Sprintf("Violations %d", counts.Violations))

	meta := []string{}
	if m.overview.BusinessDate != "" {
		meta = append(meta, "business date "+m.overview.BusinessDate)
	}
	if m.overview.Origin != "" {
		meta = append(meta, "source "+m.overview.Origin)
	}
	if len(meta) > 0 {
		totals += mutedStyle.Render("   " + strings.Join(meta, " • "))
	}

	crumbs := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(strings.Join(m.nav.Breadcrumb(), " › "))
	if selected, ok := m.nav.Selected(); ok {
		crumbs += mutedStyle.Render("  selected: " + selected)
	}

	lines := []string{
		titleStyle.Render(dashboardTitle),
		mutedStyle.Render(dashboardSubtitle),
		totals,
		crumbs,
		"",
	}
	return strings.Join(lines, "\n")
}

// renderBody renders the current view below the header.
func (m Model) renderBody() string {
	if !m.loaded {
		return lipgloss.NewStyle().Foreground(mutedColor).Render("loading...")
	}
	switch m.nav.View().Kind {
	case domain.ViewBusinessArea:
		return m.renderAreaView()
	case domain.ViewApplication:
		return m.renderApplicationView()
	default:
		return m.renderOverview()
	}
}

// renderOverview renders one card per business area and the selected area's detail grid.
func (m Model) renderOverview() string {
	if len(m.overview.Areas) == 0 {
		return lipgloss.NewStyle().Foreground(mutedColor).Render("No activities loaded. Press r to refresh.")
	}
	selected, _ := m.nav.Selected()
	cards := make([]string, 0, len(m.overview.Areas))
	for idx, area := range m.overview.Areas {
		lines := []string{
			lipgloss.NewStyle().Bold(true).Foreground(healthColor(area.Health)).Render(truncate(area.BusinessArea, cardInnerWidth-4)),
			lipgloss.NewStyle().Foreground(healthColor(area.Health)).Render(healthLabel(area.Health)),
			fmt.Sprintf("%d apps • %d activities", len(area.AppIDs), area.Counts.Total),
			countsLine(area.Counts),
		}
		cards = append(cards, m.renderCard(lines, area.Health, idx == m.cursor, area.BusinessArea == selected))
	}
	body := m.layoutGrid(cards)
	if m.showDetailPanel && m.selectedArea != nil {
		body += "\n\n" + renderAreaDetailGrid(*m.selectedArea)
	}
	return body
}

// renderAreaView renders one card per application of the current area.
func (m Model) renderAreaView() string {
	if len(m.area.Applications) == 0 {
		return lipgloss.NewStyle().Foreground(mutedColor).Render("No applications in this area.")
	}
	cards := make([]string, 0, len(m.area.Applications))
	for idx, appSummary := range m.area.Applications {
		lines := []string{
			lipgloss.NewStyle().Bold(true).Foreground(healthColor(appSummary.Health)).Render("App " + truncate(appSummary.AppID, cardInnerWidth-8)),
			lipgloss.NewStyle().Foreground(healthColor(appSummary.Health)).Render(healthLabel(appSummary.Health)),
			fmt.Sprintf("%d activities", appSummary.Counts.Total),
			countsLine(appSummary.Counts),
		}
		cards = append(cards, m.renderCard(lines, appSummary.Health, idx == m.cursor, false))
	}
	return m.layoutGrid(cards)
}

// renderApplicationView renders the activity table of the current application.
func (m Model) renderApplicationView() string {
	rows := m.application.Activities
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(mutedColor)
	lines := []string{headerStyle.Render(activityRowText("", "Activity", "Type", "Window", "Status", "Runs"))}
	if len(rows) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(mutedColor).Render("  (no activities)"))
		return strings.Join(lines, "\n")
	}
	for idx, row := range rows {
		prefix := "  "
		if idx == m.cursor {
			prefix = "│ "
		}
		name := row.Definition.ActivityName
		if strings.TrimSpace(name) == "" {
			name = row.Definition.ActivityID
		}
		line := activityRowText(
			prefix,
			name,
			string(row.Definition.ActivityType),
			row.Definition.Window(),
			row.Label,
			fmt.Sprintf("%d", row.Runs),
		)
		style := lipgloss.NewStyle().Foreground(outcomeColor(row.Outcome))
		if idx == m.cursor {
			style = style.Bold(true)
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

// activityRowText lays out one activity table row in fixed-width columns.
func activityRowText(prefix, name, activityType, window, status, runs string) string {
	return prefix +
		padRight(truncate(name, 30), 31) +
		padRight(truncate(activityType, 12), 13) +
		padRight(truncate(window, 28), 29) +
		padRight(truncate(status, 14), 15) +
		runs
}

// renderAreaDetailGrid lists every application of an area with its activities and first-match status.
func renderAreaDetailGrid(view app.AreaView) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(textColor)
	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{
		titleStyle.Render(view.Area.BusinessArea + " - Applications & Activities"),
		mutedStyle.Render(fmt.Sprintf("%d Applications • %d Activities", len(view.Applications), view.Area.Counts.Total)),
	}
	for _, appSummary := range view.Applications {
		lines = append(lines, lipgloss.NewStyle().Foreground(healthColor(appSummary.Health)).Render(
			fmt.Sprintf("  App %s  %s", appSummary.AppID, healthLabel(appSummary.Health)),
		))
		for _, row := range appSummary.Activities {
			lines = append(lines, "    "+
				padRight(truncate(row.Definition.ActivityName, 30), 31)+
				padRight(typeBadge(row.Definition.ActivityType), 13)+
				lipgloss.NewStyle().Foreground(outcomeColor(row.Outcome)).Render(row.Label))
		}
	}
	return strings.Join(lines, "\n")
}

// countsLine renders the compact outcome counts of a card.
func countsLine(c rollup.Counts) string {
	return fmt.Sprintf("✓%d ▶%d ✗%d …%d", c.Success, c.Running, c.Violations, c.Pending())
}

// cardStyle returns the bordered style of one card.
func cardStyle(border color.Color, thick bool) lipgloss.Style {
	b := lipgloss.RoundedBorder()
	if thick {
		b = lipgloss.ThickBorder()
	}
	return lipgloss.NewStyle().
		Border(b).
		BorderForeground(border).
		Padding(0, 1).
		Width(cardInnerWidth)
}

// renderCard renders one fixed-height card; focus wins the border colour, selection thickens it.
func (m Model) renderCard(lines []string, health rollup.Health, focused, selected bool) string {
	border := healthColor(health)
	if focused {
		border = lipgloss.Color("212")
	}
	return cardStyle(border, selected).Render(fitLines(strings.Join(lines, "\n"), cardLines))
}

// gridGeometry returns the horizontal stride, card height and column count of card grids.
func (m Model) gridGeometry() (stride, height, cols int) {
	sample := cardStyle(dimColor, false).Render(fitLines("", cardLines))
	stride = lipgloss.Width(sample) + cardGap
	height = lipgloss.Height(sample)
	width := m.width
	if width <= 0 {
		width = 120
	}
	cols = max(1, (width+cardGap)/stride)
	return stride, height, cols
}

// layoutGrid arranges cards row by row.
func (m Model) layoutGrid(cards []string) string {
	_, _, cols := m.gridGeometry()
	gap := strings.Repeat(" ", cardGap)
	rows := make([]string, 0, len(cards)/cols+1)
	for start := 0; start < len(cards); start += cols {
		end := min(start+cols, len(cards))
		parts := make([]string, 0, 2*(end-start))
		for idx, card := range cards[start:end] {
			if idx > 0 {
				parts = append(parts, gap)
			}
			parts = append(parts, card)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}
	return strings.Join(rows, "\n")
}

// itemAt maps a mouse position to the index of the item under it.
func (m Model) itemAt(x, y int) (int, bool) {
	rel := y - headerHeight
	if rel < 0 || x < 0 {
		return 0, false
	}
	items := m.focusItems()
	if m.nav.View().Kind == domain.ViewApplication {
		row := rel - 1
		if row < 0 || row >= len(items) {
			return 0, false
		}
		return row, true
	}
	stride, height, cols := m.gridGeometry()
	col := x / stride
	if col >= cols || x%stride >= stride-cardGap {
		return 0, false
	}
	idx := (rel/height)*cols + col
	if idx >= len(items) {
		return 0, false
	}
	return idx, true
}

// renderOverlay renders the topmost modal, if any.
func (m Model) renderOverlay() string {
	maxWidth := m.width - 8
	if m.help.ShowAll {
		return m.renderHelpOverlay(maxWidth)
	}
	if _, open := m.nav.Trend(); open {
		return m.renderTrendOverlay(maxWidth)
	}
	if m.overlay == overlayActivity {
		return m.renderActivityOverlay(maxWidth)
	}
	return ""
}

// renderHelpOverlay renders the full key reference.
func (m Model) renderHelpOverlay(maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("slaboard help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Workflows"),
		"1. space or click selects an area  •  enter or double click opens it  •  click opens an app",
		"2. esc closes trends/detail first, then clears selection, then goes up a level",
		"3. t trends for the current view  •  T trends for the focused card",
		"4. enter on an activity shows its runs  •  y copies the focused id",
		"5. g toggles the selected area's detail grid  •  r refreshes the data",
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(mutedColor).Render("press ? or esc to close"),
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// renderTrendOverlay renders the trend series with sparklines and the summary.
func (m Model) renderTrendOverlay(maxWidth int) string {
	width := clamp(maxWidth, 56, 90)
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(width)
	if !m.trendOK {
		return style.Render("loading trends...")
	}
	view := m.trendView
	mutedStyle := lipgloss.NewStyle().Foreground(mutedColor)
	success := make([]int, 0, len(view.Days))
	violations := make([]int, 0, len(view.Days))
	running := make([]int, 0, len(view.Days))
	for _, day := range view.Days {
		success = append(success, day.Success)
		violations = append(violations, day.Violations)
		running = append(running, day.Running)
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(view.Title),
		mutedStyle.Render(view.Subtitle),
		"",
		padRight("success", 11) + lipgloss.NewStyle().Foreground(healthColor(rollup.HealthHealthy)).Render(sparkline(success)),
		padRight("violations", 11) + lipgloss.NewStyle().Foreground(healthColor(rollup.HealthCritical)).Render(sparkline(violations)),
		padRight("running", 11) + lipgloss.NewStyle().Foreground(healthColor(rollup.HealthActive)).Render(sparkline(running)),
	}
	if len(view.Days) > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("%11s%s → %s", "", view.Days[0].Date, view.Days[len(view.Days)-1].Date)))
	}
	sum := view.Summary
	lines = append(lines,
		"",
		fmt.Sprintf("Total %d • Success rate %.1f%% • Avg/day %.1f • %s",
			sum.TotalActivities, sum.SuccessRate, sum.AvgDaily, directionLabel(sum.Direction)),
		"",
		mutedStyle.Render("Last 7 days"),
	)
	start := max(0, len(view.Days)-7)
	for _, day := range view.Days[start:] {
		label := day.Date
		if ts, err := day.Day(); err == nil {
			label = ts.Format("Mon 01-02")
		}
		lines = append(lines, fmt.Sprintf("  %s  ✓%-3d ✗%-3d ▶%-3d total %d", label, day.Success, day.Violations, day.Running, day.Total))
	}
	lines = append(lines, "", mutedStyle.Render("press t or esc to close"))
	return style.Render(strings.Join(lines, "\n"))
}

// renderActivityOverlay renders the markdown detail of one activity.
func (m Model) renderActivityOverlay(maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	body := m.md.render(activityMarkdown(m.activity), width-4)
	hint := lipgloss.NewStyle().Foreground(mutedColor).Render("t trends • y copy id • esc close")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(width).
		Render(body + "\n\n" + hint)
}

// directionLabel renders a trend direction with an arrow.
func directionLabel(d trend.Direction) string {
	switch d {
	case trend.DirectionImproving:
		return "↓ violations improving"
	case trend.DirectionDegrading:
		return "↑ violations degrading"
	default:
		return "→ stable"
	}
}

// sparkline scales values onto sparkLevels; zero renders as a blank.
func sparkline(values []int) string {
	peak := 0
	for _, v := range values {
		peak = max(peak, v)
	}
	var b strings.Builder
	for _, v := range values {
		if v <= 0 || peak == 0 {
			b.WriteRune(' ')
			continue
		}
		idx := (v*len(sparkLevels) - 1) / peak
		b.WriteRune(sparkLevels[clamp(idx, 0, len(sparkLevels)-1)])
	}
	return b.String()
}

// padRight pads s with spaces to a display width of n.
func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

// fitLines truncates or pads content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centres overlay on top of base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
