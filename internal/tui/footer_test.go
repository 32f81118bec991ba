package tui

import (
	"strings"
	"testing"

	"github.com/verte-zerg/netrack/internal/ledger"
	"github.com/verte-zerg/netrack/internal/model"
)

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{
		counterState: model.DailyCounterState{Remaining: 12, SolvedToday: 8, LastResetDate: "16.10.2026"},
		records: []model.SessionRecord{
			ledger.NewRecord("15.10.2026", 20, 18, 4, 0),
			ledger.NewRecord("16.10.2026", 40, 30, 8, 2),
		},
	}
	out := m.renderFooter()
	if !containsAll(out, []string{"Remaining 12", "Solved today 8", "Sessions 2", "Avg net 22.50", "Avg 77.50%"}) {
		t.Fatalf("footer missing expected segments: %s", out)
	}
}

func TestRenderFooterWithoutRecords(t *testing.T) {
	m := &Model{}
	out := m.renderFooter()
	if !strings.Contains(out, "Sessions 0") || strings.Contains(out, "Avg") {
		t.Fatalf("unexpected footer: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
