package store

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "netrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return s
}

func TestSQLiteSetGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "records_Fen"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "records_Fen", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "records_Fen", `[{"date":"16.10.2026"}]`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, "records_Fen")
	if err != nil || !ok || v != `[{"date":"16.10.2026"}]` {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
	if err := s.Delete(ctx, "records_Fen"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "records_Fen"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "records_Fen"); ok {
		t.Fatalf("expected key to be gone")
	}
}

func TestSQLiteSetManyAndKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	err := s.SetMany(ctx, map[string]string{
		"todaySolved_Fen":            "3",
		"today_Fen":                  "16.10.2026",
		"remainingQuestions_Fen":     "5",
		"remainingQuestionsDate_Fen": "16.10.2026",
		"records_Sosyal":             "[]",
	})
	if err != nil {
		t.Fatalf("set many: %v", err)
	}
	got, err := s.Keys(ctx, "remaining")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	want := []string{"remainingQuestionsDate_Fen", "remainingQuestions_Fen"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	all, err := s.Keys(ctx, "")
	if err != nil || len(all) != 5 {
		t.Fatalf("expected 5 keys, got %v err=%v", all, err)
	}
}

func TestSQLiteUpdatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	if err := s.Set(ctx, "today_Fen", "16.10.2026"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := s.UpdatedAt(ctx, "today_Fen")
	if err != nil || !ok || !got.Equal(fixed) {
		t.Fatalf("updated_at = %v ok=%v err=%v", got, ok, err)
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netrack.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(context.Background(), "records_Turkce", "[]"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s.Close() }()
	if v, ok, err := s.Get(context.Background(), "records_Turkce"); err != nil || !ok || v != "[]" {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
}
