package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/verte-zerg/netrack/internal/clock"
	"github.com/verte-zerg/netrack/internal/keys"
	"github.com/verte-zerg/netrack/internal/kv"
	"github.com/verte-zerg/netrack/internal/model"
	"github.com/verte-zerg/netrack/internal/score"
)

func newTestStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	clk := clock.NewFixed(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
	return New(mem, model.Math, WithClock(clk)), mem
}

func TestSubmitValidSession(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := st.Submit(ctx, RawInput{QuestionCount: "20", Correct: "18", Incorrect: "4", Blank: "0"}, false)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Net != 17 {
		t.Fatalf("expected net 17, got %v", rec.Net)
	}
	if rec.Tier != string(score.TierElite) {
		t.Fatalf("expected ELITE tier, got %q", rec.Tier)
	}
	if rec.Date != "16.10.2026" {
		t.Fatalf("unexpected record date %q", rec.Date)
	}
	records, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected ledger length 1, got %d", len(records))
	}
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	st, mem := newTestStore(t)
	ctx := context.Background()

	inputs := []RawInput{
		{QuestionCount: "20", Correct: "18", Incorrect: "4", Blank: "-2"},
		{QuestionCount: "", Correct: "18", Incorrect: "4", Blank: "0"},
		{QuestionCount: "20", Correct: "abc", Incorrect: "4", Blank: "0"},
		{QuestionCount: "20", Correct: "18", Incorrect: "4.5", Blank: "0"},
	}
	for _, in := range inputs {
		_, err := st.Submit(ctx, in, false)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected validation error for %+v, got %v", in, err)
		}
	}
	if _, ok, _ := mem.Get(ctx, keys.Records(model.Math)); ok {
		t.Fatalf("expected no ledger to be written after rejected input")
	}
}

func TestParseInputStrictTotals(t *testing.T) {
	raw := RawInput{QuestionCount: "20", Correct: "10", Incorrect: "4", Blank: "0"}
	if _, err := ParseInput(raw, "01.01.2026", false); err != nil {
		t.Fatalf("permissive parse failed: %v", err)
	}
	_, err := ParseInput(raw, "01.01.2026", true)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "total" {
		t.Fatalf("expected total validation error, got %v", err)
	}
	raw.Blank = "6"
	if _, err := ParseInput(raw, "01.01.2026", true); err != nil {
		t.Fatalf("strict parse of matching totals failed: %v", err)
	}
}

func TestAppendPreservesCallOrder(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		n, err := st.Append(ctx, NewRecord("01.01.2026", 10, i, 0, 10-i))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if n != i {
			t.Fatalf("expected length %d after append, got %d", i, n)
		}
	}
	records, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i, r := range records {
		if r.Correct != i+1 {
			t.Fatalf("record %d out of order: %+v", i, r)
		}
	}
}

func TestReplaceAllRoundTrip(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	want := []model.SessionRecord{
		NewRecord("03.01.2026", 20, 15, 2, 3),
		NewRecord("01.01.2026", 20, 10, 4, 6),
		NewRecord("01.01.2026", 20, 10, 4, 6),
		NewRecord("02.01.2026", 0, 0, 0, 0),
	}
	if err := st.ReplaceAll(ctx, want); err != nil {
		t.Fatalf("replace all: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("replace all round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestDeleteAt(t *testing.T) {
	st, _ := newTestStore(t)
	ctx := context.Background()
	records := []model.SessionRecord{
		NewRecord("01.01.2026", 10, 1, 0, 9),
		NewRecord("02.01.2026", 10, 2, 0, 8),
		NewRecord("03.01.2026", 10, 3, 0, 7),
	}
	if err := st.ReplaceAll(ctx, records); err != nil {
		t.Fatalf("replace all: %v", err)
	}
	if err := st.DeleteAt(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := st.Load(ctx)
	if len(got) != 2 || got[0].Correct != 1 || got[1].Correct != 3 {
		t.Fatalf("unexpected ledger after delete: %+v", got)
	}

	for _, idx := range []int{-1, 2, 99} {
		err := st.DeleteAt(ctx, idx)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("expected ErrIndexOutOfRange for %d, got %v", idx, err)
		}
	}
	got, _ = st.Load(ctx)
	if len(got) != 2 {
		t.Fatalf("out-of-range delete mutated the ledger: %+v", got)
	}
}

func TestCorruptLedgerReadsAsEmpty(t *testing.T) {
	st, mem := newTestStore(t)
	ctx := context.Background()
	if err := mem.Set(ctx, keys.Records(model.Math), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	records, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load corrupt ledger: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty ledger, got %+v", records)
	}
	if _, err := st.Append(ctx, NewRecord("01.01.2026", 10, 5, 0, 5)); err != nil {
		t.Fatalf("append after corruption: %v", err)
	}
	backup, ok, _ := mem.Get(ctx, keys.CorruptRecords(model.Math))
	if !ok || backup != "{not json" {
		t.Fatalf("expected corrupt blob to be kept, got %q ok=%v", backup, ok)
	}
}

func TestLoadLegacyBlob(t *testing.T) {
	st, mem := newTestStore(t)
	ctx := context.Background()
	blob := `[{"date":"14.10.2026","questionCount":"40","correct":"30","incorrect":"8","blank":"2","net":"28.00","performance":"ELITE WARRIOR"},` +
		`{"date":"15.10.2026","questionCount":10,"correct":9,"incorrect":0,"blank":1,"net":9,"performance":"CHAMPION DARK SOULS"}]`
	if err := mem.Set(ctx, keys.Records(model.Math), blob); err != nil {
		t.Fatalf("seed: %v", err)
	}
	records, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 legacy records, got %d", len(records))
	}
	if records[0].Net != 28 || records[0].Tier != string(score.TierElite) {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].QuestionCount != 10 || records[1].Tier != string(score.TierChampion) {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
}

func TestStoredTierIsNotRecomputed(t *testing.T) {
	st, mem := newTestStore(t)
	ctx := context.Background()
	// 5/10 would classify as RISING today; the stored tier wins.
	blob := `[{"date":"01.01.2026","questionCount":"10","correct":"5","incorrect":"0","blank":"5","net":"5.00","performance":"LEGENDARY"}]`
	if err := mem.Set(ctx, keys.Records(model.Math), blob); err != nil {
		t.Fatalf("seed: %v", err)
	}
	records, _ := st.Load(ctx)
	if len(records) != 1 || records[0].Tier != string(score.TierLegendary) {
		t.Fatalf("expected frozen LEGENDARY tier, got %+v", records)
	}
}

func TestClear(t *testing.T) {
	st, mem := newTestStore(t)
	ctx := context.Background()
	if _, err := st.Append(ctx, NewRecord("01.01.2026", 10, 5, 0, 5)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := mem.Get(ctx, keys.Records(model.Math)); ok {
		t.Fatalf("expected ledger key to be removed")
	}
}
