// Package ledger persists the ordered session records of one subject.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/verte-zerg/netrack/internal/clock"
	"github.com/verte-zerg/netrack/internal/keys"
	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/model"
)

// ErrIndexOutOfRange is returned by DeleteAt for an index outside the ledger.
var ErrIndexOutOfRange = errors.New("index out of range")

// Store reads and rewrites the ledger of one subject. Every mutation
// rewrites the whole blob.
type Store struct {
	kv         kv.Store
	subject    model.Subject
	clock      clock.Clock
	dateLayout string
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to date submitted sessions.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithDateLayout sets the date layout of submitted sessions.
func WithDateLayout(layout string) Option {
	return func(s *Store) { s.dateLayout = layout }
}

// WithLogger sets the logger used to report corrupt ledgers.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns the ledger store of subject.
func New(store kv.Store, subject model.Subject, opts ...Option) *Store {
	s := &Store{
		kv:         store,
		subject:    subject,
		clock:      clock.System{},
		dateLayout: clock.DefaultDateLayout,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subject returns the subject this store belongs to.
func (s *Store) Subject() model.Subject {
	return s.subject
}

// Load returns the ledger. A missing or corrupt blob reads as empty.
func (s *Store) Load(ctx context.Context) ([]model.SessionRecord, error) {
	records, _, err := s.load(ctx)
	return records, err
}

func (s *Store) load(ctx context.Context) (records []model.SessionRecord, corrupt string, err error) {
	blob, ok, err := s.kv.Get(ctx, keys.Records(s.subject))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read ledger: %w", err)
	}
	if !ok {
		return []model.SessionRecord{}, "", nil
	}
	records, err = Decode(blob)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable ledger",
			slog.String("subject", s.subject.Slug),
			slog.Any("error", err))
		return []model.SessionRecord{}, blob, nil
	}
	if records == nil {
		records = []model.SessionRecord{}
	}
	return records, "", nil
}

// Append adds record at the end of the ledger and returns the new length.
func (s *Store) Append(ctx context.Context, record model.SessionRecord) (int, error) {
	records, corrupt, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	records = append(records, record)
	if err := s.save(ctx, records, corrupt); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Submit validates raw, dates it today and appends it.
func (s *Store) Submit(ctx context.Context, raw RawInput, strict bool) (model.SessionRecord, error) {
	record, err := ParseInput(raw, clock.Today(s.clock, s.dateLayout), strict)
	if err != nil {
		return model.SessionRecord{}, err
	}
	if _, err := s.Append(ctx, record); err != nil {
		return model.SessionRecord{}, err
	}
	return record, nil
}

// ReplaceAll overwrites the ledger with records.
func (s *Store) ReplaceAll(ctx context.Context, records []model.SessionRecord) error {
	out := make([]model.SessionRecord, len(records))
	copy(out, records)
	return s.save(ctx, out, "")
}

// DeleteAt removes the record at index. An out-of-range index changes
// nothing and returns ErrIndexOutOfRange.
func (s *Store) DeleteAt(ctx context.Context, index int) error {
	records, corrupt, err := s.load(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(records) {
		return fmt.Errorf("%w: %d (ledger has %d records)", ErrIndexOutOfRange, index, len(records))
	}
	records = append(records[:index], records[index+1:]...)
	return s.save(ctx, records, corrupt)
}

// Clear removes the ledger.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, keys.Records(s.subject)); err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, records []model.SessionRecord, corrupt string) error {
	blob, err := Encode(records)
	if err != nil {
		return err
	}
	values := map[string]string{keys.Records(s.subject): blob}
	if corrupt != "" {
		values[keys.CorruptRecords(s.subject)] = corrupt
	}
	if err := kv.SetMany(ctx, s.kv, values); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}
