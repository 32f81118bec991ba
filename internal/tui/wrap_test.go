package tui

import (
	"reflect"
	"strings"
	"testing"
)

func TestWrapWords(t *testing.T) {
	got := wrapWords("Slow but steady on the way to the top", 16)
	want := []string{"Slow but steady", "on the way to", "the top"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wrapWords = %q, want %q", got, want)
	}
	if got := wrapWords("   ", 10); got != nil {
		t.Fatalf("expected nil for blank text, got %q", got)
	}
	if got := wrapWords("Türkçe çalışması", 0); !reflect.DeepEqual(got, []string{"Türkçe çalışması"}) {
		t.Fatalf("expected single line without width, got %q", got)
	}
}

func TestWrapWordsLongWord(t *testing.T) {
	got := wrapWords("a extraordinarily b", 5)
	want := []string{"a", "extraordinarily", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("wrapWords = %q, want %q", got, want)
	}
}

func TestFitLines(t *testing.T) {
	out := fitLines("ab\ncd\nef", 4, 2)
	if out != "ab  \ncd  " {
		t.Fatalf("unexpected clip %q", out)
	}
	out = fitLines("ab", 3, 3)
	if lines := strings.Split(out, "\n"); len(lines) != 3 || lines[2] != "   " {
		t.Fatalf("unexpected fill %q", out)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("Subject: Matematik", 10); got != "Subject..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("short", 10); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
