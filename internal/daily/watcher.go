package daily

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/netrack/internal/model"
)

// DefaultPollInterval is how often a Watcher checks for a new day.
const DefaultPollInterval = time.Minute

// Watcher polls a Counter for day rollover on a fixed interval. It is owned
// by a single screen and must be stopped when that screen goes away.
type Watcher struct {
	counter    *Counter
	interval   time.Duration
	onRollover func(model.DailyCounterState)
	logger     *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher builds a stopped watcher. onRollover, when set, receives the
// fresh state after every reset; it runs on the watcher goroutine.
func NewWatcher(counter *Counter, interval time.Duration, onRollover func(model.DailyCounterState), logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{
		counter:    counter,
		interval:   interval,
		onRollover: onRollover,
		logger:     logger,
	}
}

// Start launches the polling goroutine. Calling Start on a running watcher
// does nothing.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
}

// Stop cancels polling and waits for the goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	subject := w.counter.Subject().Slug
	w.logger.DebugContext(ctx, "day watcher started",
		slog.String("subject", subject),
		slog.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.DebugContext(context.Background(), "day watcher stopped", slog.String("subject", subject))
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll runs one rollover check. It reports whether the counters were reset.
func (w *Watcher) Poll(ctx context.Context) bool {
	reset, err := w.counter.CheckRollover(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "day rollover check failed",
			slog.String("subject", w.counter.Subject().Slug),
			slog.Any("error", err))
	}
	if !reset {
		return false
	}
	state := w.counter.State()
	w.logger.InfoContext(ctx, "new day, counters reset",
		slog.String("subject", w.counter.Subject().Slug),
		slog.String("date", state.LastResetDate))
	if w.onRollover != nil {
		w.onRollover(state)
	}
	return true
}
