// Package tui provides the Bubble Tea tracker interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/netrack/internal/clock"
	"github.com/verte-zerg/netrack/internal/daily"
	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/ledger"
	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/stats"
)

const (
	tabTracker = iota
	tabProgress
	tabRecords
)

// Tracker form fields, in focus order.
const (
	fieldTarget = iota
	fieldQuestions
	fieldCorrect
	fieldIncorrect
	fieldBlank
)

// rolloverMsg carries a reset counter state. subject names the counter that
// produced it so a late message from a previous subject can be dropped.
type rolloverMsg struct {
	subject model.Subject
	state   model.DailyCounterState
}

// Model implements the Bubble Tea tracker UI for one subject at a time.
type Model struct {
	ctx    context.Context
	cfg    model.Config
	kv     kv.Store
	clock  clock.Clock
	logger *slog.Logger

	subjects   []model.Subject
	subjectIdx int
	ledger     *ledger.Store
	counter    *daily.Counter
	watcher    *daily.Watcher
	rollover   chan rolloverMsg
	closeOnce  sync.Once

	records      []model.SessionRecord
	counterState model.DailyCounterState

	tabs         []string
	activeTab    int
	inputs       []textinput.Model
	focus        int
	recordsTable table.Model
	progress     viewport.Model

	pendingDelete int
	status        string
	errMsg        string

	width  int
	height int
}

// NewModel constructs the tracker UI and loads the configured subject.
func NewModel(ctx context.Context, st kv.Store, cfg model.Config, clk clock.Clock, logger *slog.Logger) (*Model, error) {
	if clk == nil {
		clk = clock.System{Location: cfg.Location}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	m := &Model{
		ctx:           ctx,
		cfg:           cfg,
		kv:            st,
		clock:         clk,
		logger:        logger,
		subjects:      model.Subjects(),
		rollover:      make(chan rolloverMsg, 1),
		tabs:          []string{"Tracker", "Progress", "Records"},
		pendingDelete: -1,
		progress:      viewport.New(0, 0),
	}
	for i, s := range m.subjects {
		if s == cfg.Subject {
			m.subjectIdx = i
		}
	}
	m.initInputs()
	m.recordsTable = newRecordsTable()
	if err := m.selectSubject(m.subjectIdx); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForRollover(m.rollover))
}

// Close stops the day watcher. It is safe to call more than once.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		if m.watcher != nil {
			m.watcher.Stop()
		}
		close(m.rollover)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case rolloverMsg:
		if msg.subject != m.subject() {
			return m, waitForRollover(m.rollover)
		}
		m.counterState = msg.state
		m.status = fmt.Sprintf("New day (%s): counters reset.", m.counterState.LastResetDate)
		return m, waitForRollover(m.rollover)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.Close()
		return m, tea.Quit
	case "ctrl+right":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "ctrl+left":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "[":
		return m, m.switchSubject(-1)
	case "]":
		return m, m.switchSubject(1)
	case "+":
		m.solveOne()
		return m, nil
	}
	switch m.activeTab {
	case tabTracker:
		return m.updateTracker(msg)
	case tabRecords:
		return m.updateRecords(msg)
	default:
		return m.updateProgress(msg)
	}
}

func (m *Model) updateTracker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		return m, m.setFocus(m.focus + 1)
	case tea.KeyShiftTab, tea.KeyUp:
		return m, m.setFocus(m.focus - 1)
	case tea.KeyEnter:
		if m.focus == fieldTarget {
			m.applyTarget()
			return m, nil
		}
		return m, m.submitSession()
	case tea.KeyRunes:
		if !allDigits(msg.Runes) {
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) updateRecords(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.pendingDelete >= 0 {
		if msg.String() == "y" {
			m.deleteRecord(m.pendingDelete)
		} else {
			m.status = "Delete cancelled."
		}
		m.pendingDelete = -1
		return m, nil
	}
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "d", "delete":
		if len(m.records) == 0 {
			return m, nil
		}
		m.pendingDelete = m.recordsTable.Cursor()
		m.status = fmt.Sprintf("Delete record #%d? y/n", m.pendingDelete)
		return m, nil
	}
	var cmd tea.Cmd
	m.recordsTable, cmd = m.recordsTable.Update(msg)
	return m, cmd
}

func (m *Model) updateProgress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "g", "home":
		m.progress.GotoTop()
		return m, nil
	case "G", "end":
		m.progress.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.progress, cmd = m.progress.Update(msg)
	return m, cmd
}

func (m *Model) subject() model.Subject {
	return m.subjects[m.subjectIdx]
}

// selectSubject swaps the ledger, counter and watcher over to subject idx.
func (m *Model) selectSubject(idx int) error {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
	// Drop a reset the stopped watcher left behind.
	select {
	case <-m.rollover:
	default:
	}
	m.subjectIdx = idx
	s := m.subject()
	m.ledger = ledger.New(m.kv, s,
		ledger.WithClock(m.clock),
		ledger.WithDateLayout(m.cfg.DateLayout),
		ledger.WithLogger(m.logger))
	m.counter = daily.New(m.kv, s, m.clock, m.cfg.DateLayout)
	if _, err := m.counter.Load(m.ctx); err != nil {
		return fmt.Errorf("failed to load daily counter: %w", err)
	}
	m.counterState = m.counter.State()
	m.pendingDelete = -1
	if err := m.refreshRecords(); err != nil {
		return err
	}
	rollover := m.rollover
	m.watcher = daily.NewWatcher(m.counter, m.cfg.PollInterval, func(state model.DailyCounterState) {
		select {
		case rollover <- rolloverMsg{subject: s, state: state}:
		default:
		}
	}, m.logger)
	m.watcher.Start(m.ctx)
	return nil
}

func (m *Model) switchSubject(delta int) tea.Cmd {
	next := (m.subjectIdx + delta + len(m.subjects)) % len(m.subjects)
	if err := m.selectSubject(next); err != nil {
		m.errMsg = err.Error()
		return nil
	}
	m.errMsg = ""
	m.status = fmt.Sprintf("Switched to %s.", m.subject().Name)
	return tea.ClearScreen
}

func (m *Model) refreshRecords() error {
	records, err := m.ledger.Load(m.ctx)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	m.records = records
	m.recordsTable.SetRows(recordRows(records))
	if c := m.recordsTable.Cursor(); c >= len(records) && len(records) > 0 {
		m.recordsTable.SetCursor(len(records) - 1)
	}
	m.renderProgress()
	return nil
}

func (m *Model) applyTarget() {
	raw := strings.TrimSpace(m.inputs[fieldTarget].Value())
	if raw == "" {
		m.errMsg = "Enter how many questions you plan to solve today."
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		m.errMsg = "Remaining target must be a whole number."
		return
	}
	if err := m.counter.SetRemaining(m.ctx, n); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.counterState = m.counter.State()
	m.inputs[fieldTarget].SetValue("")
	m.errMsg = ""
	m.status = fmt.Sprintf("Daily target set to %d.", m.counterState.Remaining)
}

func (m *Model) solveOne() {
	changed, err := m.counter.Decrement(m.ctx)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.counterState = m.counter.State()
	m.errMsg = ""
	if !changed {
		m.status = "Nothing left for today. Set a new target first."
		return
	}
	if m.counterState.Remaining == 0 {
		m.status = "Daily target reached!"
		return
	}
	m.status = fmt.Sprintf("%d to go.", m.counterState.Remaining)
}

func (m *Model) submitSession() tea.Cmd {
	record, err := m.ledger.Submit(m.ctx, m.rawInput(), m.cfg.StrictTotals)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			m.errMsg = verr.Error()
			return nil
		}
		m.errMsg = err.Error()
		logErrf("failed to save session: %v\n", err)
		return nil
	}
	for i := fieldQuestions; i <= fieldBlank; i++ {
		m.inputs[i].SetValue("")
	}
	m.errMsg = ""
	m.status = fmt.Sprintf("Saved: net %.2f (%s).", record.Net, tierLabel(record.Tier))
	if err := m.refreshRecords(); err != nil {
		m.errMsg = err.Error()
	}
	return m.setFocus(fieldQuestions)
}

func (m *Model) deleteRecord(index int) {
	err := m.ledger.DeleteAt(m.ctx, index)
	switch {
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		m.status = ""
		return
	case err != nil:
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.status = fmt.Sprintf("Deleted record #%d.", index)
	if err := m.refreshRecords(); err != nil {
		m.errMsg = err.Error()
	}
}

func (m *Model) rawInput() ledger.RawInput {
	return ledger.RawInput{
		QuestionCount: m.inputs[fieldQuestions].Value(),
		Correct:       m.inputs[fieldCorrect].Value(),
		Incorrect:     m.inputs[fieldIncorrect].Value(),
		Blank:         m.inputs[fieldBlank].Value(),
	}
}

func (m *Model) initInputs() {
	prompts := []string{"Remaining target: ", "Questions: ", "Correct:   ", "Incorrect: ", "Blank:     "}
	m.inputs = make([]textinput.Model, len(prompts))
	for i, p := range prompts {
		in := textinput.New()
		in.Prompt = p
		in.CharLimit = 5
		in.Width = 8
		in.Placeholder = "0"
		in.Cursor.SetMode(cursor.CursorBlink)
		m.inputs[i] = in
	}
	m.setFocus(fieldQuestions)
}

func (m *Model) setFocus(idx int) tea.Cmd {
	count := len(m.inputs)
	idx = (idx + count) % count
	m.focus = idx
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == idx {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = (m.activeTab + delta + count) % count
	m.pendingDelete = -1
	if m.activeTab == tabRecords {
		m.recordsTable.Focus()
	} else {
		m.recordsTable.Blur()
	}
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.progress.Width = m.width
	m.progress.Height = bodyHeight
	m.recordsTable.SetWidth(m.width)
	m.recordsTable.SetHeight(max(1, bodyHeight-1))
	m.renderProgress()
}

func (m *Model) averages() (stats.Averages, bool) {
	return stats.ComputeAverages(m.records)
}

func waitForRollover(ch <-chan rolloverMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func allDigits(runes []rune) bool {
	for _, r := range runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(runes) > 0
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
