package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/verte-zerg/netrack/internal/model"
)

func TestPlotSeries(t *testing.T) {
	var buf bytes.Buffer
	err := PlotSeries(&buf, "Net", []Series{
		{Name: "Matematik", Values: []float64{1, 2, 3, 2, 1}},
		{Name: "Fen", Values: []float64{-2, 1, 2, 3, 4}},
		{Name: "Empty"},
	}, 12, 4)
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1+4+1 {
		t.Fatalf("expected title, 4 rows and legend, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "    4.0 │ ") {
		t.Fatalf("expected shared max label, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[4], "   -2.0 │ ") {
		t.Fatalf("expected shared min label, got %q", lines[4])
	}
	if strings.Contains(lines[5], "Empty") || !strings.Contains(lines[5], "Fen (dashed)") {
		t.Fatalf("unexpected legend %q", lines[5])
	}
	if w := runewidth.StringWidth(lines[1]); w != axisLabelWidth+3+12 {
		t.Fatalf("unexpected row width %d", w)
	}
}

func TestPlotSeriesSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotSeries(&buf, "Net", []Series{{Name: "A"}}, 10, 4); err != nil {
		t.Fatalf("plot: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	if got := PlotWidthFor(80); got != 80-axisLabelWidth-3 {
		t.Fatalf("unexpected width %d", got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width, got %d", got)
	}
	if got := PlotWidthFor(5); got != minPlotWidth {
		t.Fatalf("expected min width for narrow terminals, got %d", got)
	}
}

func TestResample(t *testing.T) {
	if got := resample([]float64{0, 10}, 3); got[1] != 5 || got[2] != 10 {
		t.Fatalf("unexpected stretch %v", got)
	}
	if got := resample([]float64{1, 3, 5, 7}, 2); got[0] != 2 || got[1] != 6 {
		t.Fatalf("unexpected shrink %v", got)
	}
}

func TestRenderNetCurve(t *testing.T) {
	var buf bytes.Buffer
	report := CrossSubject(map[model.Subject][]model.SessionRecord{
		model.Math: {rec("a", 10, 2), rec("b", 10, 4), rec("c", 10, 6)},
	})
	if err := RenderNetCurve(&buf, report, 2, 40, 5, false); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "moving average of 2") || !strings.Contains(buf.String(), "Matematik") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestFormatTableUsesDisplayWidth(t *testing.T) {
	lines := formatTable([]string{"Subject", "Net"}, [][]string{{"Türkçe", "9.50"}, {"Fen", "12.00"}}, map[int]bool{1: true})
	want := []string{
		"Subject    Net",
		"Türkçe    9.50",
		"Fen      12.00",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
