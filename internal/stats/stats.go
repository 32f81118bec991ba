// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/score"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Averages summarizes one ledger.
type Averages struct {
	Count int
	// NetAvg is the mean net over all records.
	NetAvg float64
	// PercentageAvg is the mean percentage over records with a question
	// count; HasPercentage is false when there are none.
	PercentageAvg float64
	HasPercentage bool
}

// Tier classifies the average percentage. It is TierNone without one.
func (a Averages) Tier() score.Tier {
	if !a.HasPercentage {
		return score.TierNone
	}
	return score.ClassifyTier(a.PercentageAvg)
}

// Point is one record projected for charts.
type Point struct {
	Subject       model.Subject
	Date          string
	Net           float64
	Percentage    float64
	HasPercentage bool
}

// SubjectAverages pairs a subject with its averages.
type SubjectAverages struct {
	Subject model.Subject
	Averages
}

// CrossReport holds per-subject averages and the combined series.
type CrossReport struct {
	Subjects []SubjectAverages
	Series   []Point
}

// ComputeAverages returns mean net and mean percentage of records. ok is
// false for an empty ledger.
func ComputeAverages(records []model.SessionRecord) (avg Averages, ok bool) {
	if len(records) == 0 {
		return Averages{}, false
	}
	var netSum, pctSum float64
	pctCount := 0
	for _, r := range records {
		netSum += r.Net
		if pct, ok := score.ComputePercentage(r.Net, r.QuestionCount); ok {
			pctSum += pct
			pctCount++
		}
	}
	avg = Averages{
		Count:  len(records),
		NetAvg: score.Round2(netSum / float64(len(records))),
	}
	if pctCount > 0 {
		avg.PercentageAvg = score.Round2(pctSum / float64(pctCount))
		avg.HasPercentage = true
	}
	return avg, true
}

// TimeSeries projects records in ledger order.
func TimeSeries(records []model.SessionRecord) []Point {
	points := make([]Point, 0, len(records))
	for _, r := range records {
		pct, ok := score.ComputePercentage(r.Net, r.QuestionCount)
		points = append(points, Point{
			Date:          r.Date,
			Net:           r.Net,
			Percentage:    score.Round2(pct),
			HasPercentage: ok,
		})
	}
	return points
}

// CrossSubject combines ledgers in the fixed subject order. Subjects with an
// empty ledger are left out of the averages.
func CrossSubject(ledgers map[model.Subject][]model.SessionRecord) CrossReport {
	var report CrossReport
	for _, s := range model.Subjects() {
		records := ledgers[s]
		avg, ok := ComputeAverages(records)
		if !ok {
			continue
		}
		report.Subjects = append(report.Subjects, SubjectAverages{Subject: s, Averages: avg})
		for _, p := range TimeSeries(records) {
			p.Subject = s
			report.Series = append(report.Series, p)
		}
	}
	return report
}

// SeriesFor returns the points of one subject.
func (r CrossReport) SeriesFor(s model.Subject) []Point {
	var out []Point
	for _, p := range r.Series {
		if p.Subject == s {
			out = append(out, p)
		}
	}
	return out
}

// Overall averages every record of every subject together.
func (r CrossReport) Overall() (Averages, bool) {
	if len(r.Series) == 0 {
		return Averages{}, false
	}
	var netSum, pctSum float64
	pctCount := 0
	for _, p := range r.Series {
		netSum += p.Net
		if p.HasPercentage {
			pctSum += p.Percentage
			pctCount++
		}
	}
	avg := Averages{Count: len(r.Series), NetAvg: score.Round2(netSum / float64(len(r.Series)))}
	if pctCount > 0 {
		avg.PercentageAvg = score.Round2(pctSum / float64(pctCount))
		avg.HasPercentage = true
	}
	return avg, true
}

// NetValues extracts net values from points.
func NetValues(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Net
	}
	return out
}

// MovingAverage computes a trailing mean over window values. Leading values
// average over what is available.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders values as a single line of block characters.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	top := len(sparkBlocks) - 1
	var b strings.Builder
	for _, v := range values {
		idx := top / 2
		if hi-lo > 1e-9 {
			idx = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		idx = max(0, min(idx, top))
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

// RenderSummary prints the per-subject overview.
func RenderSummary(w io.Writer, report CrossReport) error {
	if len(report.Subjects) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	headers := []string{"Subject", "Sessions", "Avg Net", "Avg %", "Tier", "Rating", "Trend"}
	rows := make([][]string, 0, len(report.Subjects))
	for _, s := range report.Subjects {
		tier := s.Tier()
		rows = append(rows, []string{
			s.Subject.Name,
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%.2f", s.NetAvg),
			formatPercentage(s.PercentageAvg, s.HasPercentage),
			tier.Label(),
			tier.StarBar(),
			Sparkline(NetValues(report.SeriesFor(s.Subject))),
		})
	}
	if err := writeTable(w, headers, rows, map[int]bool{1: true, 2: true, 3: true}); err != nil {
		return err
	}
	if overall, ok := report.Overall(); ok {
		if _, err := fmt.Fprintf(w, "Overall: %d sessions, avg net %.2f, avg %s\n",
			overall.Count, overall.NetAvg, formatPercentage(overall.PercentageAvg, overall.HasPercentage)); err != nil {
			return err
		}
		if overall.HasPercentage {
			if _, err := fmt.Fprintln(w, score.Motivation(overall.PercentageAvg)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderRecordsTable prints a ledger with its positional indexes.
func RenderRecordsTable(w io.Writer, subject model.Subject, records []model.SessionRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintf(w, "No records for %s.\n", subject.Name)
		return err
	}
	if _, err := fmt.Fprintf(w, "Records: %s\n", subject.Name); err != nil {
		return err
	}
	headers := []string{"#", "Date", "Questions", "Correct", "Incorrect", "Blank", "Net", "%", "Tier"}
	rows := make([][]string, 0, len(records))
	for i, r := range records {
		pct, ok := score.ComputePercentage(r.Net, r.QuestionCount)
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			r.Date,
			fmt.Sprintf("%d", r.QuestionCount),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
			fmt.Sprintf("%d", r.Blank),
			fmt.Sprintf("%.2f", r.Net),
			formatPercentage(score.Round2(pct), ok),
			tierLabel(r.Tier),
		})
	}
	right := map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	if err := writeTable(w, headers, rows, right); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderNetCurve plots the moving-average net of each subject in report.
func RenderNetCurve(w io.Writer, report CrossReport, window, totalWidth, height int, useColor bool) error {
	series := make([]Series, 0, len(report.Subjects))
	for _, s := range report.Subjects {
		values := MovingAverage(NetValues(report.SeriesFor(s.Subject)), window)
		series = append(series, Series{Name: s.Subject.Name, Values: values})
	}
	if len(series) == 0 {
		return nil
	}
	title := "Net Curve"
	if window > 1 {
		title = fmt.Sprintf("Net Curve (moving average of %d)", window)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, title, series, width, height, useColor)
}

// RenderTierDistribution prints how many sessions landed in each tier.
func RenderTierDistribution(w io.Writer, records []model.SessionRecord) error {
	counts := TierDistribution(records)
	if len(counts) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Tiers"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{tierLabel(string(c.Tier)), c.Tier.StarBar(), fmt.Sprintf("%d", c.Count)})
	}
	if err := writeTable(w, []string{"Tier", "Rating", "Sessions"}, rows, map[int]bool{2: true}); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderBestSessions prints the n highest-net sessions of a ledger. offset is
// the ledger index of records[0].
func RenderBestSessions(w io.Writer, subject model.Subject, records []model.SessionRecord, offset, n int) error {
	best := BestSessions(records, offset, n)
	if len(best) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Best sessions: %s\n", subject.Name); err != nil {
		return err
	}
	rows := make([][]string, 0, len(best))
	for _, b := range best {
		rows = append(rows, []string{
			fmt.Sprintf("%d", b.Index),
			b.Record.Date,
			fmt.Sprintf("%.2f", b.Record.Net),
			tierLabel(b.Record.Tier),
		})
	}
	if err := writeTable(w, []string{"#", "Date", "Net", "Tier"}, rows, map[int]bool{0: true, 2: true}); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatPercentage(pct float64, ok bool) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

func tierLabel(stored string) string {
	t := score.ParseTier(stored)
	if t == score.TierNone {
		return "-"
	}
	return t.Label()
}
