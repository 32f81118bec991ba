package store

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"testing"
	"time"
)

func openTestRedis(t *testing.T) *Redis {
	t.Helper()
	addr := os.Getenv("NETRACK_TEST_REDIS")
	if addr == "" {
		t.Skip("NETRACK_TEST_REDIS not set")
	}
	ctx := context.Background()
	prefix := fmt.Sprintf("netrack-test-%d:", time.Now().UnixNano())
	r, err := OpenRedis(ctx, RedisOptions{Addr: addr, Prefix: prefix})
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	t.Cleanup(func() {
		keys, err := r.Keys(ctx, "")
		if err == nil {
			for _, k := range keys {
				_ = r.Delete(ctx, k)
			}
		}
		_ = r.Close()
	})
	return r
}

func TestRedisRoundTrip(t *testing.T) {
	r := openTestRedis(t)
	ctx := context.Background()
	if _, ok, err := r.Get(ctx, "today_Fen"); err != nil || ok {
		t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
	}
	if err := r.SetMany(ctx, map[string]string{
		"today_Fen":       "16.10.2026",
		"todaySolved_Fen": "4",
	}); err != nil {
		t.Fatalf("set many: %v", err)
	}
	if v, ok, err := r.Get(ctx, "todaySolved_Fen"); err != nil || !ok || v != "4" {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
	keys, err := r.Keys(ctx, "today")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if want := []string{"todaySolved_Fen", "today_Fen"}; !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	if err := r.Delete(ctx, "today_Fen"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := r.Get(ctx, "today_Fen"); ok {
		t.Fatalf("expected key to be gone")
	}
}

func TestEscapeGlob(t *testing.T) {
	if got := escapeGlob("a*b?[c]"); got != `a\*b\?\[c\]` {
		t.Fatalf("escapeGlob = %q", got)
	}
}
