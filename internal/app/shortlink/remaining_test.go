package shortlink

import (
	"testing"
	"time"
)

func timed(until time.Time) LinkRecord {
	return LinkRecord{ID: "a", ShortURL: "https://s.example.com/a", Expiry: TimedUntil(until)}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{999 * time.Millisecond, "0s"},
		{15*time.Minute + 42*time.Second, "15m 42s"},
		{3725 * time.Second, "1h 2m 5s"},
		{24 * time.Hour, "1 day 0h 0m"},
		{27*time.Hour + 15*time.Minute + 59*time.Second, "1 day 3h 15m"},
		{51*time.Hour + 15*time.Minute, "2 days 3h 15m"},
		{-5 * time.Second, "0s"},
	}
	for _, c := range cases {
		if got := FormatRemaining(c.d); got != c.want {
			t.Fatalf("FormatRemaining(%v): got %q, want %q", c.d, got, c.want)
		}
	}
}

func TestIsExpired_Boundary(t *testing.T) {
	until := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	r := timed(until)

	if IsExpired(r, until.Add(-time.Nanosecond)) {
		t.Fatal("expired before deadline")
	}
	if IsExpired(r, until) {
		t.Fatal("expired exactly at deadline")
	}
	if !IsExpired(r, until.Add(time.Nanosecond)) {
		t.Fatal("not expired after deadline")
	}

	label, ok := RemainingTime(r, until)
	if !ok || label != "0s" {
		t.Fatalf("at deadline: got (%q, %v), want (\"0s\", true)", label, ok)
	}
	if _, ok := RemainingTime(r, until.Add(time.Second)); ok {
		t.Fatal("remaining time reported for expired record")
	}
}

func TestIsExpired_Monotonic(t *testing.T) {
	until := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	r := timed(until)
	now := until.Add(time.Millisecond)
	for i := 0; i < 100; i++ {
		if !IsExpired(r, now) {
			t.Fatalf("record became live again at %v", now)
		}
		now = now.Add(time.Hour)
	}
}

func TestPermanentNeverExpires(t *testing.T) {
	r := LinkRecord{ID: "p", ShortURL: "https://s.example.com/p", Expiry: Permanent()}
	far := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	if IsExpired(r, far) {
		t.Fatal("permanent record expired")
	}
	if _, ok := RemainingTime(r, far); ok {
		t.Fatal("permanent record has remaining time")
	}
	if got := Status(r, far); got != "Permanent" {
		t.Fatalf("status: got %q", got)
	}
}

func TestStatus(t *testing.T) {
	until := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	r := timed(until)
	if got := Status(r, until.Add(-3725*time.Second)); got != "1h 2m 5s" {
		t.Fatalf("live: got %q", got)
	}
	if got := Status(r, until.Add(time.Second)); got != "Expired" {
		t.Fatalf("expired: got %q", got)
	}
}
