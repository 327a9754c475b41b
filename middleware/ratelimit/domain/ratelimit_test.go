package domain

import (
	"errors"
	"testing"
	"time"
)

func TestCounterKey_UsesUnixSecond(t *testing.T) {
	at := time.Unix(1740730536, 999_000_000)
	if got := CounterKey("9.9.9.9", at); got != "rate_limit:9.9.9.9:1740730536" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestParseFailurePolicy(t *testing.T) {
	cases := map[string]FailurePolicy{
		"":       FailOpen,
		"open":   FailOpen,
		"closed": FailClosed,
		"local":  FailLocal,
	}
	for in, want := range cases {
		got, err := ParseFailurePolicy(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("expected %q for %q, got %q", want, in, got)
		}
	}

	if _, err := ParseFailurePolicy("sometimes"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDecision_RemainingNeverNegative(t *testing.T) {
	d := Decision{Limit: 3, Count: 5}
	if d.Remaining() != 0 {
		t.Fatalf("expected 0, got %d", d.Remaining())
	}
	d = Decision{Limit: 3, Count: 1}
	if d.Remaining() != 2 {
		t.Fatalf("expected 2, got %d", d.Remaining())
	}
}
