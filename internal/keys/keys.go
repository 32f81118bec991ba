// Package keys builds the per-subject store keys.
//
// Records and the solved tally are keyed by the subject slug while the
// remaining-questions pair is keyed by the display name. Existing stores were
// written with that split, so it stays.
package keys

import "github.com/verte-zerg/netrack/internal/model"

const (
	recordsPrefix       = "records_"
	todaySolvedPrefix   = "todaySolved_"
	todayPrefix         = "today_"
	remainingPrefix     = "remainingQuestions_"
	remainingDatePrefix = "remainingQuestionsDate_"
	corruptSuffix       = ".corrupt"
)

// Records is the key of the serialized ledger.
func Records(s model.Subject) string {
	return recordsPrefix + s.Slug
}

// CorruptRecords keeps the last unreadable ledger blob before it is overwritten.
func CorruptRecords(s model.Subject) string {
	return recordsPrefix + s.Slug + corruptSuffix
}

// TodaySolved is the key of the solved-today tally.
func TodaySolved(s model.Subject) string {
	return todaySolvedPrefix + s.Slug
}

// Today is the date stamp of the solved-today tally.
func Today(s model.Subject) string {
	return todayPrefix + s.Slug
}

// Remaining is the key of the remaining-questions countdown.
func Remaining(s model.Subject) string {
	return remainingPrefix + s.Name
}

// RemainingDate is the date stamp of the remaining-questions countdown.
func RemainingDate(s model.Subject) string {
	return remainingDatePrefix + s.Name
}

// Counter returns every key owned by the daily counter of s.
func Counter(s model.Subject) []string {
	return []string{TodaySolved(s), Today(s), Remaining(s), RemainingDate(s)}
}

// All returns every key owned by s.
func All(s model.Subject) []string {
	return append([]string{Records(s), CorruptRecords(s)}, Counter(s)...)
}
