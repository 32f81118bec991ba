package stats

import (
	"sort"

	"github.com/verte-zerg/netrack/internal/model"
)

// RankedRecord is a record together with its position in the ledger.
type RankedRecord struct {
	Index  int
	Record model.SessionRecord
}

// BestSessions returns the n records with the highest net. Ties keep ledger
// order. offset is the ledger index of records[0], so a trimmed tail still
// reports positions in the full ledger.
func BestSessions(records []model.SessionRecord, offset, n int) []RankedRecord {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	ranked := make([]RankedRecord, len(records))
	for i, r := range records {
		ranked[i] = RankedRecord{Index: offset + i, Record: r}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Record.Net > ranked[j].Record.Net
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}
