package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/score"
)

// RawInput is a session as typed by the user.
type RawInput struct {
	QuestionCount string
	Correct       string
	Incorrect     string
	Blank         string
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("%s %q %s", e.Field, e.Value, e.Reason)
}

// ParseInput validates raw and builds a record dated date. All four fields
// are required non-negative integers. With strict, correct+incorrect+blank
// must equal the question count.
func ParseInput(raw RawInput, date string, strict bool) (model.SessionRecord, error) {
	var qc, correct, incorrect, blank int
	fields := []struct {
		name  string
		value string
		dst   *int
	}{
		{"question count", raw.QuestionCount, &qc},
		{"correct", raw.Correct, &correct},
		{"incorrect", raw.Incorrect, &incorrect},
		{"blank", raw.Blank, &blank},
	}
	for _, f := range fields {
		n, err := parseCount(f.name, f.value)
		if err != nil {
			return model.SessionRecord{}, err
		}
		*f.dst = n
	}
	if strict && correct+incorrect+blank != qc {
		return model.SessionRecord{}, &ValidationError{
			Field:  "total",
			Reason: fmt.Sprintf("correct+incorrect+blank is %d but question count is %d", correct+incorrect+blank, qc),
		}
	}
	return NewRecord(date, qc, correct, incorrect, blank), nil
}

// NewRecord builds a record, fixing net and tier at creation time.
func NewRecord(date string, questionCount, correct, incorrect, blank int) model.SessionRecord {
	res := score.Evaluate(questionCount, correct, incorrect)
	return model.SessionRecord{
		Date:          date,
		QuestionCount: questionCount,
		Correct:       correct,
		Incorrect:     incorrect,
		Blank:         blank,
		Net:           res.Net,
		Tier:          string(res.Tier),
	}
}

func parseCount(field, value string) (int, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, &ValidationError{Field: field, Reason: "is required"}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ValidationError{Field: field, Value: v, Reason: "must be a whole number"}
	}
	if n < 0 {
		return 0, &ValidationError{Field: field, Value: v, Reason: "must not be negative"}
	}
	return n, nil
}
