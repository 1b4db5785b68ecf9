package ui

import (
	"fmt"
	"strings"

	"github.com/atomicstack/assetdesk/internal/format/table"
	"github.com/atomicstack/assetdesk/internal/tasks"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const defaultWidth = 80

type styledLine struct {
	text  string
	style *lipgloss.Style
	raw   bool // already styled; never re-wrapped
}

// View implements tea.Model.
func (m *Model) View() string {
	var lines []styledLine
	if m.mode == ModeWizard {
		lines = m.wizardLines()
	} else {
		lines = m.dashboardLines()
	}
	if m.errMsg != "" {
		lines = append(lines, styledLine{text: m.errMsg, style: styles.Error})
	}
	if m.showFooter {
		lines = append(lines, styledLine{}, styledLine{text: m.footerText(), style: styles.Footer})
	}
	width := m.viewWidth()
	return renderLines(limitHeight(applyWidth(lines, width), m.height, width))
}

func (m *Model) viewWidth() int {
	if m.width > 0 {
		return m.width
	}
	return defaultWidth
}

func (m *Model) footerText() string {
	if m.mode == ModeWizard {
		return "enter next · ← back · 1-7 jump · s skip · f finish · q quit"
	}
	return "/ search · ↑↓ select · r restart checks · w setup · q quit"
}

func (m *Model) wizardLines() []styledLine {
	w := m.session.Wizard()
	lines := []styledLine{
		{text: "assetdesk setup", style: styles.Header},
		{text: m.stepBar(), raw: true},
		{},
	}
	page := w.Current()
	lines = append(lines,
		styledLine{text: fmt.Sprintf("%d/%d %s", w.Cursor()+1, w.Len(), page.Title()), style: styles.Title},
		styledLine{text: page.Description(), style: styles.Description},
		styledLine{},
	)
	for _, row := range strings.Split(page.View(m.viewWidth()), "\n") {
		lines = append(lines, styledLine{text: row, style: styles.Item})
	}
	if err := w.PageErr(w.Cursor()); err != nil && m.verbose {
		lines = append(lines, styledLine{}, styledLine{text: err.Error(), style: styles.Warning})
	}
	return lines
}

func (m *Model) stepBar() string {
	w := m.session.Wizard()
	steps := make([]string, 0, w.Len())
	for i := 0; i < w.Len(); i++ {
		label := fmt.Sprintf("%d %s", i+1, w.Page(i).Title())
		switch {
		case i == w.Cursor():
			steps = append(steps, styles.StepCurrent.Render(label))
		case w.Skipped(i):
			steps = append(steps, styles.StepSkipped.Render("↷ "+label))
		case w.IsCompleted(i):
			steps = append(steps, styles.StepDone.Render("✓ "+label))
		default:
			steps = append(steps, styles.StepPending.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, steps...)
}

func (m *Model) dashboardLines() []styledLine {
	lines := []styledLine{
		{text: "assetdesk", style: styles.Header},
		{text: m.countersLine(), style: styles.Counter},
		{text: m.search.View(), raw: true},
	}
	lines = append(lines, m.resultLines()...)
	lines = append(lines, styledLine{})
	if m.index != nil {
		for _, node := range m.index.Tree() {
			lines = append(lines, styledLine{
				text:  fmt.Sprintf("%s (%d)", node.Category, len(node.Packages)),
				style: styles.Info,
			})
		}
		rows := make([][]string, 0, 4)
		for _, r := range m.index.Report() {
			rows = append(rows, []string{r.Label, r.Value})
		}
		for _, line := range table.Format(rows, []table.Alignment{table.AlignLeft, table.AlignLeft}) {
			lines = append(lines, styledLine{text: line, style: styles.Item})
		}
	}
	lines = append(lines, styledLine{})
	lines = append(lines, m.taskLines()...)
	if m.verbose {
		lines = append(lines, m.statsLines()...)
	}
	if warn, msg := m.hasBackendIssue(); warn {
		lines = append(lines, styledLine{text: "watcher: " + msg, style: styles.Warning})
	}
	if m.infoMsg != "" {
		lines = append(lines, styledLine{text: m.infoMsg, style: styles.Info})
	}
	return lines
}

func (m *Model) countersLine() string {
	c := m.session.Counters()
	return fmt.Sprintf("updates: %s   transfers: %s", counterText(c.PendingUpdates, c.PendingErr, c.Polls), counterText(c.ActiveTransfers, c.TransfersErr, c.Polls))
}

// counterText renders a blank counter until a value is known. A failed poll
// keeps showing the previous value.
func counterText(v int, err error, polls int) string {
	if polls == 0 || (err != nil && v == 0) {
		return "–"
	}
	return fmt.Sprint(v)
}

func (m *Model) resultLines() []styledLine {
	if m.index == nil {
		return nil
	}
	results := m.index.Results()
	if len(results) == 0 {
		msg := "(no packages)"
		if q := m.index.Query(); q != "" {
			msg = fmt.Sprintf("No matches for %q", q)
		}
		return []styledLine{{text: msg, style: styles.Info}}
	}
	limit := len(results)
	if m.height > 0 {
		if room := m.height / 2; room > 0 && room < limit {
			limit = room
		}
	}
	selected := m.index.Selected()
	lines := make([]styledLine, 0, limit)
	for _, r := range results[:limit] {
		if r.Name == selected {
			lines = append(lines, styledLine{text: "> " + r.Name, style: styles.SelectedItem})
			continue
		}
		lines = append(lines, styledLine{text: "  " + r.Name, style: styles.Item})
	}
	return lines
}

func (m *Model) taskLines() []styledLine {
	var lines []styledLine
	for _, st := range m.session.TaskStatuses() {
		text := fmt.Sprintf("%s: %s", st.Kind, st.State)
		switch st.State {
		case tasks.StatePending, tasks.StateRunning:
			text = m.spinner.View() + " " + text
			lines = append(lines, styledLine{text: text, raw: true})
			continue
		case tasks.StateSucceeded:
			text += " (" + st.Summary + ")"
		case tasks.StateFailed:
			lines = append(lines, styledLine{text: text + ": " + st.Err.Error(), style: styles.Warning})
			continue
		}
		lines = append(lines, styledLine{text: text, style: styles.Info})
	}
	return lines
}

func (m *Model) statsLines() []styledLine {
	rows := [][]string{{"target", "rebuilds", "failures", "last"}}
	for _, st := range m.session.Stats() {
		last := st.LastLevel.String()
		if st.LastErr != nil {
			last = st.LastErr.Error()
		}
		rows = append(rows, []string{st.Target.String(), fmt.Sprint(st.Rebuilds), fmt.Sprint(st.Failures), last})
	}
	align := []table.Alignment{table.AlignLeft, table.AlignRight, table.AlignRight, table.AlignLeft}
	lines := make([]styledLine, 0, len(rows))
	for _, line := range table.FormatWidth(rows, align, m.viewWidth()) {
		lines = append(lines, styledLine{text: line, style: styles.Footer})
	}
	return lines
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText("…", width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		line.text = truncateText(line.text, width)
		result[i] = line
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if line.raw || line.style == nil || line.text == "" {
			out[i] = line.text
			continue
		}
		out[i] = line.style.Render(line.text)
	}
	return strings.Join(out, "\n")
}

func truncateText(text string, width int) string {
	if width <= 0 || ansi.StringWidth(text) <= width {
		return text
	}
	return ansi.Truncate(text, width, "…")
}
