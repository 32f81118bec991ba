package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/score"
)

// ErrCorrupt marks a persisted ledger that cannot be decoded.
var ErrCorrupt = errors.New("corrupt ledger")

// decimalText is a number persisted as text. Older blobs may hold plain JSON
// numbers, so both forms decode.
type decimalText string

func (d *decimalText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = decimalText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = decimalText(n.String())
	return nil
}

type recordJSON struct {
	Date          string      `json:"date"`
	QuestionCount decimalText `json:"questionCount"`
	Correct       decimalText `json:"correct"`
	Incorrect     decimalText `json:"incorrect"`
	Blank         decimalText `json:"blank"`
	Net           decimalText `json:"net"`
	Performance   string      `json:"performance"`
}

// Encode serializes records into the ledger blob format.
func Encode(records []model.SessionRecord) (string, error) {
	out := make([]recordJSON, 0, len(records))
	for i, r := range records {
		if math.IsNaN(r.Net) || math.IsInf(r.Net, 0) {
			return "", fmt.Errorf("failed to encode ledger: record %d: net is not a finite number", i)
		}
		out = append(out, recordJSON{
			Date:          r.Date,
			QuestionCount: decimalText(strconv.Itoa(r.QuestionCount)),
			Correct:       decimalText(strconv.Itoa(r.Correct)),
			Incorrect:     decimalText(strconv.Itoa(r.Incorrect)),
			Blank:         decimalText(strconv.Itoa(r.Blank)),
			Net:           decimalText(strconv.FormatFloat(r.Net, 'f', 2, 64)),
			Performance:   string(score.ParseTier(r.Tier)),
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode ledger: %w", err)
	}
	return string(b), nil
}

// Decode parses a ledger blob. Any malformed record makes the whole blob
// corrupt.
func Decode(blob string) ([]model.SessionRecord, error) {
	if strings.TrimSpace(blob) == "" {
		return nil, nil
	}
	var raw []recordJSON
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	records := make([]model.SessionRecord, 0, len(raw))
	for i, r := range raw {
		rec, err := decodeRecord(r)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecord(r recordJSON) (model.SessionRecord, error) {
	rec := model.SessionRecord{
		Date: r.Date,
		Tier: string(score.ParseTier(r.Performance)),
	}
	ints := []struct {
		name string
		val  decimalText
		dst  *int
	}{
		{"questionCount", r.QuestionCount, &rec.QuestionCount},
		{"correct", r.Correct, &rec.Correct},
		{"incorrect", r.Incorrect, &rec.Incorrect},
		{"blank", r.Blank, &rec.Blank},
	}
	for _, f := range ints {
		n, err := parseDecimalInt(string(f.val))
		if err != nil {
			return model.SessionRecord{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if n < 0 {
			return model.SessionRecord{}, fmt.Errorf("%s: negative count %d", f.name, n)
		}
		*f.dst = n
	}
	net, err := strconv.ParseFloat(strings.TrimSpace(string(r.Net)), 64)
	if err != nil {
		return model.SessionRecord{}, fmt.Errorf("net: %w", err)
	}
	if math.IsNaN(net) || math.IsInf(net, 0) {
		return model.SessionRecord{}, fmt.Errorf("net: not a finite number: %s", r.Net)
	}
	rec.Net = net
	return rec, nil
}

// parseDecimalInt accepts "12" as well as "12.0".
func parseDecimalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not a whole number: %s", s)
	}
	return int(f), nil
}
