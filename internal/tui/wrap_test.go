package tui

import (
	"strings"
	"testing"
)

func TestStyleDrillCursor(t *testing.T) {
	runes := styleDrill([]rune("ab"), []rune("a"), 1)
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	if runes[1].s != currentWordStyle.Underline(true).Render("b") {
		t.Fatalf("expected underlined current-word style at the cursor")
	}
}

func TestStyleDrillKeepsTargetOnMistype(t *testing.T) {
	runes := styleDrill([]rune("ab"), []rune("ax"), -1)
	if runes[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected incorrect style for second rune")
	}
}

func TestStyleDrillWordHighlighting(t *testing.T) {
	runes := styleDrill([]rune("one two"), []rune("o"), 1)
	if runes[1].s != currentWordStyle.Underline(true).Render("n") {
		t.Fatalf("expected cursor on current word")
	}
	if runes[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for untyped in current word")
	}
	if runes[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for next word")
	}
}

func TestStyleDrillWrongSpaceDot(t *testing.T) {
	runes := styleDrill([]rune("a b"), []rune("ax"), 2)
	if runes[1].s != incorrectStyle.Render("•") {
		t.Fatalf("expected red dot for wrong space")
	}
}

func TestCurrentWord(t *testing.T) {
	target := []rune("one two  three")
	cases := []struct {
		cursor     int
		start, end int
	}{
		{-1, 0, 3},
		{1, 0, 3},
		{3, 4, 7},
		{8, 9, 14},
		{20, 9, 14},
	}
	for _, tc := range cases {
		start, end := currentWord(target, tc.cursor)
		if start != tc.start || end != tc.end {
			t.Fatalf("cursor %d: expected [%d,%d), got [%d,%d)", tc.cursor, tc.start, tc.end, start, end)
		}
	}
}

func TestWrapStyledRunes(t *testing.T) {
	plain := func(s string) []styledRune {
		out := make([]styledRune, 0, len(s))
		for _, r := range s {
			out = append(out, styledRune{s: string(r), width: 1, isSpace: r == ' '})
		}
		return out
	}
	if got := wrapStyledRunes(plain("tea note rain"), 9); got != "tea note\nrain" {
		t.Fatalf("unexpected wrap: %q", got)
	}
	if got := wrapStyledRunes(plain("abcdefgh"), 3); got != "abc\ndef\ngh" {
		t.Fatalf("unexpected hard wrap: %q", got)
	}
	if got := wrapStyledRunes(plain("a b"), 0); got != "a b" {
		t.Fatalf("unexpected unwrapped: %q", got)
	}
	if strings.Count(wrapStyledRunes(plain("ab cdefg"), 5), "\n") != 1 {
		t.Fatalf("expected a single break")
	}
}
