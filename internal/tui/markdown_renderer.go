package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hylla/slaboard/internal/app"
	"github.com/hylla/slaboard/internal/domain"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// activityMarkdown builds the detail document of one activity and its runs.
func activityMarkdown(view app.ActivityView) string {
	def := view.Row.Definition
	name := strings.TrimSpace(def.ActivityName)
	if name == "" {
		name = def.ActivityID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", mdEscape(name))
	fmt.Fprintf(&b, "**%s** · %s / %s\n\n", view.Row.Label, mdEscape(def.BusinessArea), mdEscape(def.AppID))
	b.WriteString("| Field | Value |\n|---|---|\n")
	rows := [][2]string{
		{"Activity ID", def.ActivityID},
		{"Type", string(def.ActivityType)},
		{"Business step", def.BusinessStepID},
		{"Expected window", def.Window()},
		{"Outcome", string(view.Row.Outcome)},
		{"Runs", fmt.Sprintf("%d", view.Row.Runs)},
	}
	for _, row := range rows {
		if strings.TrimSpace(row[1]) == "" {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], mdEscape(row[1]))
	}

	if len(view.Runs) == 0 {
		b.WriteString("\n_No status record for the current business date._\n")
		return b.String()
	}
	b.WriteString("\n## Runs\n\n| Run | Business date | Reported | State | SLA |\n|---|---|---|---|---|\n")
	for _, run := range view.Runs {
		reported := run.ReportingTime
		if ts, ok := run.ReportedAt(); ok {
			reported = ts.Format("2006-01-02 15:04 MST")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			mdEscape(run.RunID),
			mdEscape(run.BusinessDate),
			mdEscape(reported),
			run.ActivityStatus,
			slaText(run.SLAStatus),
		)
	}
	if desc := strings.TrimSpace(view.Runs[0].ActivityDescription); desc != "" {
		fmt.Fprintf(&b, "\n> %s\n", mdEscape(desc))
	}
	return b.String()
}

// slaText renders an SLA status for tables.
func slaText(s domain.SLAStatus) string {
	switch s {
	case domain.SLASuccess:
		return "success"
	case domain.SLAViolationMissedWindow:
		return "missed window"
	case domain.SLAViolationDuplication:
		return "duplication"
	case "":
		return "-"
	default:
		return strings.ToLower(string(s))
	}
}

// mdEscape keeps table cells intact.
func mdEscape(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}
