package tui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/netrack/internal/ledger"
	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/score"
	"github.com/verte-zerg/netrack/internal/stats"
)

const (
	plotHeight    = 8
	bestSessionsN = 5
	curveWindow   = 3
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FBF7F"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	starStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C542"))
	cardStyle    = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderStatusArea(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 3
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) renderHeader() string {
	parts := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts[i] = activeNavStyle.Render(tab)
		} else {
			parts[i] = inactiveNavStyle.Render(tab)
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	subject := fmt.Sprintf("Subject: %s  ([ ] to switch)  Today: %s", m.subject().Name, m.counterState.LastResetDate)
	return tabs + "\n" + mutedStyle.Render(truncateLine(subject, m.width))
}

func (m *Model) renderBody() string {
	switch m.activeTab {
	case tabRecords:
		if len(m.records) == 0 {
			return fmt.Sprintf("No records for %s yet.", m.subject().Name)
		}
		return m.recordsTable.View()
	case tabProgress:
		return m.progress.View()
	default:
		return m.renderTracker()
	}
}

func (m *Model) renderTracker() string {
	lines := []string{
		sectionStyle.Render("Daily goal"),
		fmt.Sprintf("Remaining: %s   Solved today: %s",
			valueStyle.Render(fmt.Sprintf("%d", m.counterState.Remaining)),
			valueStyle.Render(fmt.Sprintf("%d", m.counterState.SolvedToday))),
		m.inputs[fieldTarget].View(),
		"",
		sectionStyle.Render("New session"),
	}
	for i := fieldQuestions; i <= fieldBlank; i++ {
		lines = append(lines, m.inputs[i].View())
	}
	lines = append(lines, "")
	lines = append(lines, m.renderPreview()...)
	return strings.Join(lines, "\n")
}

// renderPreview scores the form as typed so far.
func (m *Model) renderPreview() []string {
	raw := m.rawInput()
	if raw.QuestionCount == "" && raw.Correct == "" && raw.Incorrect == "" && raw.Blank == "" {
		return []string{mutedStyle.Render("Fill in the session to see your net score.")}
	}
	rec, err := ledger.ParseInput(raw, m.counterState.LastResetDate, m.cfg.StrictTotals)
	if err != nil {
		return []string{mutedStyle.Render(err.Error())}
	}
	tier := score.ParseTier(rec.Tier)
	pct, ok := score.ComputePercentage(rec.Net, rec.QuestionCount)
	summary := fmt.Sprintf("Net %s  %s", valueStyle.Render(fmt.Sprintf("%.2f", rec.Net)), formatPercentage(pct, ok))
	if tier == score.TierNone {
		return []string{summary}
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	out := []string{
		summary,
		fmt.Sprintf("%s %s", valueStyle.Render(tier.Label()), starStyle.Render(tier.StarBar())),
	}
	for _, line := range wrapWords(tier.Subtitle(), width) {
		out = append(out, mutedStyle.Render(line))
	}
	return out
}

func (m *Model) renderStatusArea() string {
	help := "Tabs: ctrl+←/→  Subject: [ ]  Solve one: +  Quit: esc"
	switch m.activeTab {
	case tabTracker:
		help = "Field: tab/↑/↓  Save: enter  " + help
	case tabRecords:
		help = "Delete: d  " + help
	}
	message := statusStyle.Render(m.status)
	if m.errMsg != "" {
		message = errorStyle.Render(m.errMsg)
	}
	return strings.Join([]string{
		footerStyle.Render(truncateLine(help, m.width)),
		message,
		m.renderFooter(),
	}, "\n")
}

// renderFooter summarizes the counters and ledger of the current subject.
func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Remaining %d", m.counterState.Remaining),
		fmt.Sprintf("Solved today %d", m.counterState.SolvedToday),
		fmt.Sprintf("Sessions %d", len(m.records)),
	}
	if avg, ok := m.averages(); ok {
		segments = append(segments, fmt.Sprintf("Avg net %.2f", avg.NetAvg))
		if avg.HasPercentage {
			segments = append(segments, fmt.Sprintf("Avg %.2f%%", avg.PercentageAvg))
		}
	}
	return footerStyle.Render(strings.Join(segments, " · "))
}

func (m *Model) renderProgress() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.progress.SetContent(renderSubjectProgress(m.subject(), m.records, width))
}

func renderSubjectProgress(subject model.Subject, records []model.SessionRecord, width int) string {
	avg, ok := stats.ComputeAverages(records)
	if !ok {
		return fmt.Sprintf("No sessions for %s yet.", subject.Name)
	}
	tier := avg.Tier()
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Sessions", fmt.Sprintf("%d", avg.Count)),
		card("Avg net", fmt.Sprintf("%.2f", avg.NetAvg)),
		card("Avg %", formatPercentage(avg.PercentageAvg, avg.HasPercentage)),
	)
	parts := []string{cards}
	if tier != score.TierNone {
		parts = append(parts,
			fmt.Sprintf("%s %s", valueStyle.Render(tier.Label()), starStyle.Render(tier.StarBar())),
			mutedStyle.Render(score.Motivation(avg.PercentageAvg)))
	}

	var buf bytes.Buffer
	report := stats.CrossSubject(map[model.Subject][]model.SessionRecord{subject: records})
	if err := stats.RenderNetCurve(&buf, report, curveWindow, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render net curve: %v", err)
	}
	if err := stats.RenderTierDistribution(&buf, records); err != nil {
		return fmt.Sprintf("Failed to render tiers: %v", err)
	}
	if err := stats.RenderBestSessions(&buf, subject, records, 0, bestSessionsN); err != nil {
		return fmt.Sprintf("Failed to render best sessions: %v", err)
	}
	parts = append(parts, "", strings.TrimRight(buf.String(), "\n"))
	return strings.Join(parts, "\n")
}

func card(label, value string) string {
	return cardStyle.Render(mutedStyle.Render(label) + "\n" + valueStyle.Render(value))
}

func newRecordsTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Date", Width: 11},
			{Title: "Q", Width: 5},
			{Title: "C", Width: 5},
			{Title: "I", Width: 5},
			{Title: "B", Width: 5},
			{Title: "Net", Width: 7},
			{Title: "Tier", Width: 20},
		}),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#4A4A4A"))
	t.SetStyles(styles)
	return t
}

func recordRows(records []model.SessionRecord) []table.Row {
	rows := make([]table.Row, len(records))
	for i, r := range records {
		rows[i] = table.Row{
			fmt.Sprintf("%d", i),
			r.Date,
			fmt.Sprintf("%d", r.QuestionCount),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
			fmt.Sprintf("%d", r.Blank),
			fmt.Sprintf("%.2f", r.Net),
			tierLabel(r.Tier),
		}
	}
	return rows
}

func tierLabel(stored string) string {
	t := score.ParseTier(stored)
	if t == score.TierNone {
		return "-"
	}
	return t.Label()
}

func formatPercentage(pct float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", score.Round2(pct))
}
