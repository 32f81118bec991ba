package statsui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/ledger"
	"github.com/verte-zerg/netrack/internal/model"
)

func seededStore(t *testing.T) kv.Store {
	t.Helper()
	st := kv.NewMemory()
	seed := map[model.Subject][]model.SessionRecord{
		model.Math: {
			ledger.NewRecord("14.10.2026", 20, 18, 4, 0),
			ledger.NewRecord("15.10.2026", 20, 10, 4, 6),
		},
		model.Science: {
			ledger.NewRecord("15.10.2026", 10, 9, 0, 1),
		},
	}
	for s, records := range seed {
		if err := ledger.New(st, s).ReplaceAll(context.Background(), records); err != nil {
			t.Fatalf("seed %s: %v", s, err)
		}
	}
	return st
}

func newTestModel(t *testing.T, cfg model.StatsConfig) *Model {
	t.Helper()
	m := NewModel(seededStore(t), cfg, nil)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestOverviewShowsSubjects(t *testing.T) {
	m := newTestModel(t, model.StatsConfig{CurveWindow: 1})
	if m.errMsg != "" {
		t.Fatalf("unexpected error %q", m.errMsg)
	}
	view := m.View()
	for _, want := range []string{"Overview", "Matematik", "Fen", "Overall: 3 sessions"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in overview", want)
		}
	}
	if strings.Contains(view, "Sosyal") {
		t.Fatalf("empty subjects should be omitted from the overview")
	}
}

func TestRecordsTabCyclesSubjects(t *testing.T) {
	m := newTestModel(t, model.StatsConfig{CurveWindow: 1})
	m.Update(key("l"))
	m.Update(key("l"))
	if m.activeTab != tabRecords {
		t.Fatalf("expected records tab, got %d", m.activeTab)
	}
	if m.recordsSubject() != model.Turkish {
		t.Fatalf("expected first subject, got %s", m.recordsSubject())
	}
	if !strings.Contains(m.View(), "No records.") {
		t.Fatalf("expected empty Türkçe ledger")
	}
	m.Update(key("]"))
	if m.recordsSubject() != model.Math || len(m.records.Rows()) != 2 {
		t.Fatalf("expected Matematik rows, got %s with %d rows", m.recordsSubject(), len(m.records.Rows()))
	}
	if got := m.records.Rows()[0][6]; got != "17.00" {
		t.Fatalf("unexpected net cell %q", got)
	}
	m.Update(key("["))
	m.Update(key("["))
	if m.recordsSubject() != model.Social {
		t.Fatalf("expected wrap to Sosyal, got %s", m.recordsSubject())
	}
}

func TestCurveWindowStepping(t *testing.T) {
	m := newTestModel(t, model.StatsConfig{CurveWindow: 1})
	m.Update(key("="))
	if m.cfg.CurveWindow != 5 {
		t.Fatalf("expected window 5, got %d", m.cfg.CurveWindow)
	}
	m.Update(key("="))
	m.Update(key("-"))
	m.Update(key("-"))
	if m.cfg.CurveWindow != 1 {
		t.Fatalf("expected window 1, got %d", m.cfg.CurveWindow)
	}
}

func TestFilterFormAppliesSettings(t *testing.T) {
	m := newTestModel(t, model.StatsConfig{CurveWindow: 3})
	m.Update(key("/"))
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.Update(key("fen"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter to close, error %q", m.filterError)
	}
	if len(m.cfg.Subjects) != 1 || m.cfg.Subjects[0] != model.Science || m.cfg.CurveWindow != 3 {
		t.Fatalf("unexpected config %+v", m.cfg)
	}
	if len(m.report.Cross.Subjects) != 1 {
		t.Fatalf("expected one subject in report, got %d", len(m.report.Cross.Subjects))
	}

	m.Update(key("/"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(key("x"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.filterMode || m.filterError == "" {
		t.Fatalf("expected invalid last value to keep the form open")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.filterMode {
		t.Fatalf("expected esc to cancel")
	}
}

func TestParseFilter(t *testing.T) {
	cfg, err := parseFilter(" math, Türkçe ", "5", "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cfg.Subjects) != 2 || cfg.Subjects[0] != model.Math || cfg.Subjects[1] != model.Turkish {
		t.Fatalf("unexpected subjects %v", cfg.Subjects)
	}
	if cfg.Last != 5 || cfg.CurveWindow != 1 {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	for _, tc := range [][3]string{
		{"history", "", ""},
		{"", "-1", ""},
		{"", "", "0"},
	} {
		if _, err := parseFilter(tc[0], tc[1], tc[2]); err == nil {
			t.Fatalf("expected error for %v", tc)
		}
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct {
		n, next, prev int
	}{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
	}
	for _, tc := range cases {
		if got := nextCurveWindow(tc.n); got != tc.next {
			t.Fatalf("next(%d) = %d, want %d", tc.n, got, tc.next)
		}
		if got := prevCurveWindow(tc.n); got != tc.prev {
			t.Fatalf("prev(%d) = %d, want %d", tc.n, got, tc.prev)
		}
	}
}

func TestRecordsTabKeepsLedgerIndexWithLast(t *testing.T) {
	m := newTestModel(t, model.StatsConfig{CurveWindow: 1, Last: 1})
	m.Update(key("l"))
	m.Update(key("l"))
	m.Update(key("]"))
	rows := m.records.Rows()
	if len(rows) != 1 || rows[0][0] != "1" || rows[0][1] != "15.10.2026" {
		t.Fatalf("expected the last Matematik record at ledger index 1, got %v", rows)
	}
}
