package datetime

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateWithFormatSlash(t *testing.T) {
	got, format, ok := ParseDateWithFormat("01/05/2024")
	if !ok {
		t.Fatalf("expected parse")
	}
	if got != date(2024, time.January, 5) {
		t.Fatalf("unexpected date: %v", got)
	}
	if format != "%m/%d/%Y" {
		t.Fatalf("unexpected format: %q", format)
	}
	if rendered := FormatDate(got, format); rendered != "01/05/2024" {
		t.Fatalf("round trip mismatch: %q", rendered)
	}
}

func TestParseDateRoundTrip(t *testing.T) {
	inputs := []string{
		"1/5/2024",
		"01/05/2024",
		"2024-01-05",
		"12.25.2010",
		"Dec 10 2024",
		"10 Dec 2024",
		"1/5/24",
	}
	for _, in := range inputs {
		got, format, ok := ParseDateWithFormat(in)
		if !ok {
			t.Fatalf("%q: expected parse", in)
		}
		if rendered := FormatDate(got, format); rendered != in {
			t.Fatalf("%q: round trip produced %q", in, rendered)
		}
	}
}

func TestParseDateTwoDigitYearCutoff(t *testing.T) {
	got, ok := ParseDate("12/31/36")
	if !ok {
		t.Fatalf("expected parse")
	}
	if got.Year() != 2036 {
		t.Fatalf("expected 2036, got %d", got.Year())
	}
	got, ok = ParseDate("12/31/76")
	if !ok {
		t.Fatalf("expected parse")
	}
	if got.Year() != 1976 {
		t.Fatalf("expected 1976, got %d", got.Year())
	}
}

func TestParseDateYmd(t *testing.T) {
	got, ok := ParseDate("2024/10/12")
	if !ok {
		t.Fatalf("expected parse")
	}
	if got != date(2024, time.October, 12) {
		t.Fatalf("unexpected date: %v", got)
	}
}

func TestParseDateOrdinalDay(t *testing.T) {
	got, ok := ParseDate("Jan 3rd 2024")
	if !ok {
		t.Fatalf("expected parse")
	}
	if got != date(2024, time.January, 3) {
		t.Fatalf("unexpected date: %v", got)
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []string{"3.5", "hello", "1/2/3/4", "13/45/2024", "123"} {
		if _, ok := ParseDate(in); ok {
			t.Fatalf("%q: expected rejection", in)
		}
	}
}

func TestParseTimeForms(t *testing.T) {
	cases := map[string]struct {
		h, m, s int
		format  string
	}{
		"16:35:02": {16, 35, 2, "%-H:%M:%S"},
		"4:35 PM":  {16, 35, 0, "%-I:%M %p"},
		"4:35pm":   {16, 35, 0, "%-I:%M %p"},
		"16:35":    {16, 35, 0, "%-H:%M"},
		"4pm":      {16, 0, 0, "%-I:%M %p"},
		"4 pm":     {16, 0, 0, "%-I:%M %p"},
	}
	for in, want := range cases {
		got, format, ok := ParseTimeWithFormat(in)
		if !ok {
			t.Fatalf("%q: expected parse", in)
		}
		if got.Hour() != want.h || got.Minute() != want.m || got.Second() != want.s {
			t.Fatalf("%q: got %v", in, got)
		}
		if format != want.format {
			t.Fatalf("%q: got format %q, want %q", in, format, want.format)
		}
	}
}

func TestFormatDateStripsTimeItems(t *testing.T) {
	d := date(2024, time.March, 7)
	got := FormatDate(d, "%m/%d/%Y %-I:%M %p")
	if got != "03/07/2024" {
		t.Fatalf("got %q", got)
	}
	// A time-only template falls back to the default date format.
	if got := FormatDate(d, "%-I:%M %p"); got != "03/07/2024" {
		t.Fatalf("fallback got %q", got)
	}
}

func TestFormatTimeStripsDateItems(t *testing.T) {
	clock := time.Date(0, 1, 1, 16, 5, 0, 0, time.UTC)
	if got := FormatTime(clock, "%m/%d/%Y %-I:%M %p"); got != "4:05 PM" {
		t.Fatalf("got %q", got)
	}
	if got := FormatTime(clock, "%m/%d/%Y"); got != "4:05 PM" {
		t.Fatalf("fallback got %q", got)
	}
}

func TestFormatDateTime(t *testing.T) {
	dt := time.Date(2024, time.March, 7, 16, 5, 0, 0, time.UTC)
	if got := FormatDateTime(dt, ""); got != "03/07/2024 4:05 PM" {
		t.Fatalf("got %q", got)
	}
}

func TestParseDateTimeCombined(t *testing.T) {
	got, ok := ParseDateTime("01/05/2024 4:35 PM")
	if !ok {
		t.Fatalf("expected parse")
	}
	want := time.Date(2024, time.January, 5, 16, 35, 0, 0, time.UTC)
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
