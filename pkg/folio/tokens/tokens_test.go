package tokens

import (
	"strings"
	"testing"
)

func TestEstimate_Ratio(t *testing.T) {
	// 35 chars / 3.5 chars-per-token = exactly 10 tokens.
	text := strings.Repeat("a", 35)
	if got := Estimate(text); got != 10 {
		t.Errorf("Estimate(35 chars) = %d, want 10", got)
	}
}

func TestEstimate_RoundsUp(t *testing.T) {
	// 36 chars / 3.5 = 10.28..., must round up.
	text := strings.Repeat("a", 36)
	if got := Estimate(text); got != 11 {
		t.Errorf("Estimate(36 chars) = %d, want 11", got)
	}
}

func TestEstimate_Empty(t *testing.T) {
	if got := Estimate(""); got != 0 {
		t.Errorf("Estimate(\"\") = %d, want 0", got)
	}
}

func TestTruncate_NoOpUnderBudget(t *testing.T) {
	text := "short message"
	if got := Truncate(text, 100); got != text {
		t.Errorf("Truncate() = %q, want input unchanged", got)
	}
}

func TestTruncate_SatisfiesBudget(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)
	for _, budget := range []int{10, 50, 200, 500} {
		got := Truncate(text, budget)
		if est := Estimate(got); est > budget {
			t.Errorf("Estimate(Truncate(t, %d)) = %d, exceeds budget", budget, est)
		}
	}
}

func TestTruncate_ResultIsPrefix(t *testing.T) {
	text := strings.Repeat("no boundaries here at all just words ", 50)
	got := Truncate(text, 40)
	trimmed := strings.TrimSuffix(got, Ellipsis)
	if !strings.HasPrefix(text, trimmed) {
		t.Errorf("Truncate() result is not a prefix of the input: %q", got)
	}
	if len(trimmed) >= len(text) {
		t.Error("Truncate() over budget should produce a strict prefix")
	}
}

func TestTruncate_PrefersSentenceBoundary(t *testing.T) {
	// A sentence terminator sits just before the cut point, well within 70%.
	text := strings.Repeat("x", 30) + ". " + strings.Repeat("y", 100)
	got := Truncate(text, 10) // cut at 35 chars
	want := strings.Repeat("x", 30) + "."
	if got != want {
		t.Errorf("Truncate() = %q, want cut at sentence boundary %q", got, want)
	}
}

func TestTruncate_PrefersLineBreakWhenLater(t *testing.T) {
	text := "first. line\nsecond line with more text here" + strings.Repeat("z", 100)
	got := Truncate(text, 4) // cut at 14 chars; "\n" at 11 beats "." at 5
	if got != "first. line\n" {
		t.Errorf("Truncate() = %q, want cut after line break", got)
	}
}

func TestTruncate_HardCutAppendsEllipsis(t *testing.T) {
	text := strings.Repeat("a", 200) // no boundaries at all
	got := Truncate(text, 20)
	if !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("Truncate() = %q, want ellipsis suffix on hard cut", got)
	}
	if est := Estimate(got); est > 20 {
		t.Errorf("Estimate after hard cut = %d, exceeds budget 20", est)
	}
}

func TestTruncate_IgnoresEarlyBoundary(t *testing.T) {
	// The only terminator is at 10% of the cut length, far below 70%;
	// must hard-truncate instead.
	text := "ab." + strings.Repeat("c", 300)
	got := Truncate(text, 20)
	if got == "ab." {
		t.Error("Truncate() used a boundary below the 70% threshold")
	}
	if !strings.HasSuffix(got, Ellipsis) {
		t.Errorf("Truncate() = %q, want hard cut with ellipsis", got)
	}
}

func TestTruncate_Deterministic(t *testing.T) {
	text := strings.Repeat("some deterministic input. ", 40)
	first := Truncate(text, 30)
	for i := 0; i < 5; i++ {
		if got := Truncate(text, 30); got != first {
			t.Fatalf("Truncate() not deterministic: %q vs %q", got, first)
		}
	}
}

func TestBudgetFor_OversizeFallback(t *testing.T) {
	big := strings.Repeat("a", OversizeSourceChars+1)
	if got := BudgetFor(big, 8000); got != OversizeFallbackTokens {
		t.Errorf("BudgetFor(oversize, 8000) = %d, want %d", got, OversizeFallbackTokens)
	}
	if got := BudgetFor("small", 8000); got != 8000 {
		t.Errorf("BudgetFor(small, 8000) = %d, want 8000", got)
	}
}
