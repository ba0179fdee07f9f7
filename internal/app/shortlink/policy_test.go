package shortlink

import (
	"testing"
	"time"
)

func TestParseChoice(t *testing.T) {
	cases := []struct {
		in    string
		want  ExpirationChoice
		known bool
	}{
		{"1h", Expire1h, true},
		{" 12H ", Expire12h, true},
		{"1d", Expire1d, true},
		{"7d", Expire7d, true},
		{"30d", Expire30d, true},
		{"Permanent", ExpirePermanent, true},
		{"", Expire1h, false},
		{"2w", Expire1h, false},
	}
	for _, c := range cases {
		got, known := ParseChoice(c.in)
		if got != c.want || known != c.known {
			t.Fatalf("ParseChoice(%q): got (%v, %v), want (%v, %v)", c.in, got, known, c.want, c.known)
		}
	}
}

func TestExpiresAt_RequestFormat(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		choice ExpirationChoice
		want   string
	}{
		{Expire1h, "2025-01-01T01:00:00.000Z"},
		{Expire12h, "2025-01-01T12:00:00.000Z"},
		{Expire1d, "2025-01-02T00:00:00.000Z"},
		{Expire7d, "2025-01-08T00:00:00.000Z"},
		{Expire30d, "2025-01-31T00:00:00.000Z"},
		{ExpirePermanent, "1970-01-01T00:00:00.000Z"},
		{ExpirationChoice("bogus"), "2025-01-01T01:00:00.000Z"},
	}
	for _, c := range cases {
		if got := FormatRequestTime(c.choice.ExpiresAt(now)); got != c.want {
			t.Fatalf("%s: got %q, want %q", c.choice, got, c.want)
		}
	}
}

func TestFormatRequestTime_ConvertsToUTCMillis(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	ts := time.Date(2025, 3, 4, 8, 30, 15, 123456789, loc)
	if got, want := FormatRequestTime(ts), "2025-03-04T00:30:15.123Z"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestChoiceLabel(t *testing.T) {
	if got := Expire1d.Label(); got != "1 Day" {
		t.Fatalf("1d label: got %q", got)
	}
	if got := Expire30d.Label(); got != "30 Days" {
		t.Fatalf("30d label: got %q", got)
	}
}
