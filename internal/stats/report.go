package stats

import (
	"context"
	"log/slog"

	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/ledger"
	"github.com/verte-zerg/netrack/internal/model"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Ledgers map[model.Subject][]model.SessionRecord
	// Offsets holds the full-ledger index of the first record kept in
	// Ledgers after cfg.Last trimmed it.
	Offsets map[model.Subject]int
	Cross   CrossReport
}

// LoadLedgers reads the ledger of every subject. Unreadable ledgers come back
// empty.
func LoadLedgers(ctx context.Context, st kv.Store, subjects []model.Subject, logger *slog.Logger) (map[model.Subject][]model.SessionRecord, error) {
	if len(subjects) == 0 {
		subjects = model.Subjects()
	}
	var opts []ledger.Option
	if logger != nil {
		opts = append(opts, ledger.WithLogger(logger))
	}
	out := make(map[model.Subject][]model.SessionRecord, len(subjects))
	for _, s := range subjects {
		records, err := ledger.New(st, s, opts...).Load(ctx)
		if err != nil {
			return nil, err
		}
		out[s] = records
	}
	return out, nil
}

// BuildReport loads and prepares data for stats rendering. cfg.Last keeps
// only the most recent records of each subject.
func BuildReport(ctx context.Context, st kv.Store, cfg model.StatsConfig, logger *slog.Logger) (Report, error) {
	ledgers, err := LoadLedgers(ctx, st, cfg.Subjects, logger)
	if err != nil {
		return Report{}, err
	}
	offsets := make(map[model.Subject]int, len(ledgers))
	for s, records := range ledgers {
		kept := lastRecords(records, cfg.Last)
		offsets[s] = len(records) - len(kept)
		ledgers[s] = kept
	}
	return Report{
		Ledgers: ledgers,
		Offsets: offsets,
		Cross:   CrossSubject(ledgers),
	}, nil
}

func lastRecords(records []model.SessionRecord, n int) []model.SessionRecord {
	if n <= 0 || len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}
