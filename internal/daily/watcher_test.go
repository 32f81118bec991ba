package daily

import (
	"context"
	"testing"
	"time"

	"github.com/verte-zerg/netrack/internal/clock"
	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/model"
)

func TestWatcherPoll(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixed(day(16))
	c := New(kv.NewMemory(), model.Math, clk, "")
	if err := c.SetRemaining(ctx, 10); err != nil {
		t.Fatalf("set remaining: %v", err)
	}

	var got []model.DailyCounterState
	w := NewWatcher(c, time.Hour, func(s model.DailyCounterState) { got = append(got, s) }, nil)
	if w.Poll(ctx) {
		t.Fatalf("expected no rollover on the same day")
	}
	clk.Advance(24 * time.Hour)
	if !w.Poll(ctx) {
		t.Fatalf("expected rollover after midnight")
	}
	if len(got) != 1 || got[0].LastResetDate != "17.10.2026" || got[0].Remaining != 0 {
		t.Fatalf("unexpected rollover notifications: %+v", got)
	}
}

func TestWatcherStartStop(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixed(day(16))
	c := New(kv.NewMemory(), model.Math, clk, "")
	if _, err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	fired := make(chan model.DailyCounterState, 1)
	w := NewWatcher(c, 5*time.Millisecond, func(s model.DailyCounterState) {
		select {
		case fired <- s:
		default:
		}
	}, nil)
	w.Start(ctx)
	w.Start(ctx)
	clk.Advance(24 * time.Hour)

	select {
	case s := <-fired:
		if s.LastResetDate != "17.10.2026" {
			t.Fatalf("unexpected state %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not report the rollover")
	}
	w.Stop()
	w.Stop()
}
