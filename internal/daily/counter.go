// Package daily tracks the day-scoped remaining/solved counters of a subject.
package daily

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/verte-zerg/netrack/internal/clock"
	"github.com/verte-zerg/netrack/internal/keys"
	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/model"
)

// Counter owns the DailyCounterState of one subject. It is safe for use by
// the UI goroutine and a Watcher at the same time.
type Counter struct {
	mu      sync.Mutex
	kv      kv.Store
	subject model.Subject
	clock   clock.Clock
	layout  string
	state   model.DailyCounterState
	loaded  bool
}

// New returns a counter. State is loaded lazily on first use or by Load.
func New(store kv.Store, subject model.Subject, clk clock.Clock, dateLayout string) *Counter {
	if clk == nil {
		clk = clock.System{}
	}
	if dateLayout == "" {
		dateLayout = clock.DefaultDateLayout
	}
	return &Counter{kv: store, subject: subject, clock: clk, layout: dateLayout}
}

// Subject returns the subject this counter belongs to.
func (c *Counter) Subject() model.Subject {
	return c.subject
}

// State returns a snapshot of the counters.
func (c *Counter) State() model.DailyCounterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load restores each persisted counter whose own date stamp is today and
// resets the ones that are stale. It reports whether a reset happened.
func (c *Counter) Load(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

func (c *Counter) loadLocked(ctx context.Context) (bool, error) {
	today := c.today()
	remDate, err := c.readDate(ctx, keys.RemainingDate(c.subject))
	if err != nil {
		return false, err
	}
	solvedDate, err := c.readDate(ctx, keys.Today(c.subject))
	if err != nil {
		return false, err
	}
	// A missing stamp borrows the other one.
	if remDate == "" {
		remDate = solvedDate
	}
	if solvedDate == "" {
		solvedDate = remDate
	}

	state := model.DailyCounterState{LastResetDate: today}
	stale := make(map[string]string, 4)
	if remDate == today {
		if state.Remaining, err = c.readInt(ctx, keys.Remaining(c.subject)); err != nil {
			return false, err
		}
	} else {
		stale[keys.Remaining(c.subject)] = "0"
		stale[keys.RemainingDate(c.subject)] = today
	}
	if solvedDate == today {
		if state.SolvedToday, err = c.readInt(ctx, keys.TodaySolved(c.subject)); err != nil {
			return false, err
		}
	} else {
		stale[keys.TodaySolved(c.subject)] = "0"
		stale[keys.Today(c.subject)] = today
	}
	c.loaded = true
	c.state = state
	if len(stale) == 0 {
		return false, nil
	}
	return true, c.write(ctx, stale)
}

// CheckRollover resets the counters when the calendar date moved past
// LastResetDate. It reports whether a reset happened.
func (c *Counter) CheckRollover(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rolloverLocked(ctx)
}

func (c *Counter) rolloverLocked(ctx context.Context) (bool, error) {
	if !c.loaded {
		return c.loadLocked(ctx)
	}
	today := c.today()
	if c.state.LastResetDate == today {
		return false, nil
	}
	return true, c.resetLocked(ctx, today)
}

// SetRemaining sets the countdown target. Negative values clamp to 0. Only a
// positive target is persisted and re-stamps the date.
func (c *Counter) SetRemaining(ctx context.Context, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.rolloverLocked(ctx); err != nil {
		return err
	}
	if n < 0 {
		n = 0
	}
	c.state.Remaining = n
	if n == 0 {
		return nil
	}
	today := c.today()
	c.state.LastResetDate = today
	return c.write(ctx, map[string]string{
		keys.Remaining(c.subject):     strconv.Itoa(n),
		keys.RemainingDate(c.subject): today,
		keys.Today(c.subject):         today,
	})
}

// Decrement marks one question solved. It is a no-op when nothing remains.
// It reports whether the counters changed.
func (c *Counter) Decrement(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.rolloverLocked(ctx); err != nil {
		return false, err
	}
	if c.state.Remaining == 0 {
		return false, nil
	}
	c.state.Remaining--
	c.state.SolvedToday++
	err := c.write(ctx, map[string]string{
		keys.Remaining(c.subject):   strconv.Itoa(c.state.Remaining),
		keys.TodaySolved(c.subject): strconv.Itoa(c.state.SolvedToday),
		keys.Today(c.subject):       c.state.LastResetDate,
	})
	return err == nil, err
}

// Reset deletes every persisted counter key and zeroes the state.
func (c *Counter) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys.Counter(c.subject) {
		if err := c.kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}
	c.state = model.DailyCounterState{LastResetDate: c.today()}
	c.loaded = true
	return nil
}

func (c *Counter) resetLocked(ctx context.Context, today string) error {
	c.state = model.DailyCounterState{LastResetDate: today}
	return c.write(ctx, map[string]string{
		keys.Remaining(c.subject):     "0",
		keys.TodaySolved(c.subject):   "0",
		keys.RemainingDate(c.subject): today,
		keys.Today(c.subject):         today,
	})
}

func (c *Counter) write(ctx context.Context, values map[string]string) error {
	if err := kv.SetMany(ctx, c.kv, values); err != nil {
		return fmt.Errorf("failed to write daily counter: %w", err)
	}
	return nil
}

func (c *Counter) readDate(ctx context.Context, key string) (string, error) {
	v, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(v), nil
}

func (c *Counter) readInt(ctx context.Context, key string) (int, error) {
	v, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

func (c *Counter) today() string {
	return clock.Today(c.clock, c.layout)
}
