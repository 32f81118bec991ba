// Package statsui provides the Bubble Tea cross-subject statistics interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/score"
	"github.com/verte-zerg/netrack/internal/stats"
)

const (
	tabOverview = iota
	tabCurves
	tabRecords
)

const plotHeight = 10

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
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	starStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C542"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store  kv.Store
	cfg    model.StatsConfig
	logger *slog.Logger

	report stats.Report
	errMsg string

	tabs       []string
	activeTab  int
	viewports  []viewport.Model
	records    table.Model
	recordsIdx int

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model.
func NewModel(st kv.Store, cfg model.StatsConfig, logger *slog.Logger) *Model {
	if cfg.CurveWindow < 1 {
		cfg.CurveWindow = 1
	}
	m := &Model{
		store:  st,
		cfg:    cfg,
		logger: logger,
		tabs:   []string{"Overview", "Net Curves", "Records"},
	}
	m.initInputs()
	m.records = newRecordsTable()
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderTabContents()
			return m, nil
		case "[":
			m.cycleRecordsSubject(-1)
			return m, nil
		case "]":
			m.cycleRecordsSubject(1)
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabRecords {
				m.records.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRecords {
				m.records.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if m.activeTab == tabRecords {
			m.records, cmd = m.records.Update(msg)
			return m, cmd
		}
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = max(1, lipgloss.Height(activeNavStyle.Render("X"))) + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.records.SetWidth(m.width)
	m.records.SetHeight(max(1, bodyHeight-2))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabRecords {
		m.records.Focus()
	} else {
		m.records.Blur()
	}
}

func (m *Model) subjects() []model.Subject {
	if len(m.cfg.Subjects) == 0 {
		return model.Subjects()
	}
	return m.cfg.Subjects
}

func (m *Model) recordsSubject() model.Subject {
	subjects := m.subjects()
	return subjects[m.recordsIdx%len(subjects)]
}

func (m *Model) cycleRecordsSubject(delta int) {
	count := len(m.subjects())
	m.recordsIdx = (m.recordsIdx + delta + count) % count
	s := m.recordsSubject()
	m.records.SetRows(recordRows(m.report.Ledgers[s], m.report.Offsets[s]))
	m.records.GotoTop()
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg, m.logger)
	if err != nil {
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.recordsIdx = 0
	s := m.recordsSubject()
	m.records.SetRows(recordRows(report.Ledgers[s], report.Offsets[s]))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Cross, width))
	m.viewports[tabCurves].SetContent(renderCurves(m.report.Cross, m.cfg.CurveWindow, width))
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
	tabs := padLines(lipgloss.JoinHorizontal(lipgloss.Top, parts...), m.width)
	return tabs + "\n" + padLines(m.renderFilterSummary(), m.width)
}

func (m *Model) renderFilterSummary() string {
	subjects := "all"
	if len(m.cfg.Subjects) > 0 {
		names := make([]string, 0, len(m.cfg.Subjects))
		for _, s := range m.cfg.Subjects {
			names = append(names, s.Name)
		}
		subjects = strings.Join(names, ",")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: subjects=%s  last=%s  window=%d", subjects, last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderBody() string {
	if m.filterMode {
		return m.renderFilterForm()
	}
	if m.activeTab == tabRecords {
		s := m.recordsSubject()
		title := cardValueStyle.Render(s.Name) + headerStyle.Render("  ([ ] to switch subject)")
		if len(m.report.Ledgers[s]) == 0 {
			return title + "\n\nNo records."
		}
		return title + "\n" + tableMutedStyle.Render(m.records.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Reload: r  Quit: q"
	if m.activeTab == tabRecords {
		help = "Nav: left/right  Subject: [ ]  Scroll: up/down  Settings: /  Reload: r  Quit: q"
	}
	out := headerStyle.Render(truncateLine(help, m.width))
	if m.errMsg != "" {
		out += "\n" + errorStyle.Render(m.errMsg)
	}
	return out
}

func renderOverview(report stats.CrossReport, width int) string {
	if len(report.Subjects) == 0 {
		return "No sessions recorded yet."
	}
	cards := make([]string, 0, len(report.Subjects))
	for _, s := range report.Subjects {
		cards = append(cards, subjectCard(s))
	}
	var grid string
	if width < 100 {
		grid = lipgloss.JoinVertical(lipgloss.Left, cards...)
	} else {
		grid = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	parts := []string{grid}
	if overall, ok := report.Overall(); ok {
		line := fmt.Sprintf("Overall: %d sessions · avg net %.2f · avg %s",
			overall.Count, overall.NetAvg, formatPercentage(overall.PercentageAvg, overall.HasPercentage))
		parts = append(parts, "", cardValueStyle.Render(line))
		if overall.HasPercentage {
			parts = append(parts, headerStyle.Render(score.Motivation(overall.PercentageAvg)))
		}
	}
	return strings.Join(parts, "\n")
}

func subjectCard(s stats.SubjectAverages) string {
	tier := s.Tier()
	lines := []string{
		cardValueStyle.Render(s.Subject.Name),
		cardTitleStyle.Render("Sessions ") + strconv.Itoa(s.Count),
		cardTitleStyle.Render("Avg net  ") + fmt.Sprintf("%.2f", s.NetAvg),
		cardTitleStyle.Render("Avg %    ") + formatPercentage(s.PercentageAvg, s.HasPercentage),
	}
	if tier != score.TierNone {
		lines = append(lines, tier.Label(), starStyle.Render(tier.StarBar()))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func renderCurves(report stats.CrossReport, window, width int) string {
	if len(report.Subjects) == 0 {
		return "No sessions recorded yet."
	}
	var buf bytes.Buffer
	if err := stats.RenderNetCurve(&buf, report, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	for _, s := range report.Subjects {
		spark := stats.Sparkline(stats.NetValues(report.SeriesFor(s.Subject)))
		fmt.Fprintf(&buf, "%s %s\n", runewidth.FillRight(s.Subject.Name, 10), spark)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func newRecordsTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Date", Width: 11},
			{Title: "Questions", Width: 9},
			{Title: "Correct", Width: 7},
			{Title: "Incorrect", Width: 9},
			{Title: "Blank", Width: 5},
			{Title: "Net", Width: 7},
			{Title: "Tier", Width: 20},
		}),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func recordRows(records []model.SessionRecord, offset int) []table.Row {
	rows := make([]table.Row, len(records))
	for i, r := range records {
		tier := score.ParseTier(r.Tier)
		label := "-"
		if tier != score.TierNone {
			label = tier.Label()
		}
		rows[i] = table.Row{
			strconv.Itoa(offset + i),
			r.Date,
			strconv.Itoa(r.QuestionCount),
			strconv.Itoa(r.Correct),
			strconv.Itoa(r.Incorrect),
			strconv.Itoa(r.Blank),
			fmt.Sprintf("%.2f", r.Net),
			label,
		}
	}
	return rows
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Subjects (comma separated): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	names := make([]string, len(m.cfg.Subjects))
	for i, s := range m.cfg.Subjects {
		names[i] = s.Name
	}
	m.filterInputs[0].SetValue(strings.Join(names, ","))
	m.filterInputs[1].SetValue("")
	if m.cfg.Last > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		cfg, err := parseFilter(m.filterInputs[0].Value(), m.filterInputs[1].Value(), m.filterInputs[2].Value())
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	m.filterIndex = (idx + count) % count
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

// parseFilter validates the settings form. Empty subjects means all.
func parseFilter(subjectsInput, lastInput, windowInput string) (model.StatsConfig, error) {
	var cfg model.StatsConfig
	for _, part := range strings.Split(subjectsInput, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := model.ParseSubject(part)
		if err != nil {
			return model.StatsConfig{}, err
		}
		cfg.Subjects = append(cfg.Subjects, s)
	}
	if v := strings.TrimSpace(lastInput); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return model.StatsConfig{}, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = n
	}
	cfg.CurveWindow = 1
	if v := strings.TrimSpace(windowInput); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return model.StatsConfig{}, fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		cfg.CurveWindow = n
	}
	return cfg, nil
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return n / 5 * 5
}

func formatPercentage(pct float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	return strings.Join(lines, "\n")
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(padLines(s, width), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
