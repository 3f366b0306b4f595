package importer

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseEventDates(t *testing.T) {
	cases := []struct {
		label string
		year  int
		start time.Time
		end   time.Time
	}{
		{"06.01.2018", 2018, day(2018, 1, 6), day(2018, 1, 6)},
		{"05.-06.01.2018", 2018, day(2018, 1, 5), day(2018, 1, 6)},
		{"23.-25.03.2018", 2018, day(2018, 3, 23), day(2018, 3, 25)},
		{"23.03.-08.04.2018", 2018, day(2018, 3, 23), day(2018, 4, 8)},
		// Range crossing the year boundary.
		{"28.12.-02.01.2019", 2019, day(2018, 12, 28), day(2019, 1, 2)},
		// Missing year falls back to the event year.
		{"14.06.", 2020, day(2020, 6, 14), day(2020, 6, 14)},
		// En dash and slashes are tolerated.
		{"05.–06.01.2018", 2018, day(2018, 1, 5), day(2018, 1, 6)},
		{"06/01/2018", 2018, day(2018, 1, 6), day(2018, 1, 6)},
	}
	for _, tc := range cases {
		start, end := parseEventDates(tc.label, tc.year)
		if start == nil || end == nil {
			t.Errorf("parseEventDates(%q) = %v, %v, want %v, %v", tc.label, start, end, tc.start, tc.end)
			continue
		}
		if !start.Equal(tc.start) || !end.Equal(tc.end) {
			t.Errorf("parseEventDates(%q) = %v, %v, want %v, %v", tc.label, start, end, tc.start, tc.end)
		}
	}

	if start, end := parseEventDates("", 2018); start != nil || end != nil {
		t.Error("expected nil dates for empty label")
	}
	if start, _ := parseEventDates("31.02.2018", 2018); start != nil {
		t.Error("expected nil for day that overflows the month")
	}
}

func TestParseDistanceKM(t *testing.T) {
	cases := []struct {
		label string
		km    float64
		ok    bool
	}{
		{"100km", 100, true},
		{"42.2km", 42.2, true},
		{"50mi", 80.47, true},
		{"24h", 0, true},
		{"6 day race", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		km, ok := parseDistanceKM(tc.label)
		if ok != tc.ok || km != tc.km {
			t.Errorf("parseDistanceKM(%q) = %v, %v, want %v, %v", tc.label, km, ok, tc.km, tc.ok)
		}
	}
}

func TestSplitEventName(t *testing.T) {
	name, code := splitEventName("Spartathlon (GRC)")
	if name != "Spartathlon" || code != "GRC" {
		t.Errorf("got %q, %q", name, code)
	}
	name, code = splitEventName("Backyard Ultra (X1)")
	if name != "Backyard Ultra (X1)" || code != "" {
		t.Errorf("non-alpha code should not split, got %q, %q", name, code)
	}
	name, code = splitEventName("Plain Race")
	if name != "Plain Race" || code != "" {
		t.Errorf("got %q, %q", name, code)
	}
}

func TestNormalizeCountry(t *testing.T) {
	if got := normalizeCountry("ned"); got != "Netherlands" {
		t.Errorf("expected Netherlands, got %s", got)
	}
	if got := normalizeCountry("ZZZ"); got != "ZZZ" {
		t.Errorf("unknown codes pass through, got %s", got)
	}
	if got := normalizeCountry(""); got != "Unknown" {
		t.Errorf("expected Unknown, got %s", got)
	}
}

func TestDetermineStatus(t *testing.T) {
	today := day(2026, 8, 29)
	if got := determineStatus(day(2026, 9, 10), nil, today); got != "upcoming" {
		t.Errorf("expected upcoming, got %s", got)
	}
	end := day(2026, 8, 30)
	if got := determineStatus(day(2026, 8, 28), &end, today); got != "ongoing" {
		t.Errorf("expected ongoing, got %s", got)
	}
	if got := determineStatus(day(2026, 8, 1), nil, today); got != "completed" {
		t.Errorf("expected completed, got %s", got)
	}
}

func TestGenerateScheduleIsDeterministic(t *testing.T) {
	today := day(2026, 8, 29)
	newRec := func() *record {
		return &record{year: 2018, baseName: "Spartathlon", countryCode: "GRC", distances: map[string]struct{}{}}
	}

	a, b := newRec(), newRec()
	generateSchedule(a, today)
	generateSchedule(b, today)

	if !a.start.Equal(b.start) || !a.deadline.Equal(b.deadline) || !a.registrationOpen.Equal(b.registrationOpen) {
		t.Error("expected identical schedules for the same event identity")
	}
	if !a.registrationOpen.Before(a.deadline) {
		t.Error("registration must open before the deadline")
	}
	if !a.deadline.Before(a.start) && !a.deadline.Equal(a.start) {
		t.Error("deadline must not fall after the start")
	}

	other := &record{year: 2019, baseName: "Spartathlon", countryCode: "GRC", distances: map[string]struct{}{}}
	generateSchedule(other, today)
	if other.start.Equal(a.start) && other.deadline.Equal(a.deadline) {
		t.Error("expected a different edition to get a different schedule")
	}
}

func TestHighlightDistancePrefersLongest(t *testing.T) {
	rec := &record{distances: map[string]struct{}{
		"50km":  {},
		"100mi": {},
		"24h":   {},
	}}
	if got := highlightDistance(rec); got != "100mi" {
		t.Errorf("expected 100mi highlighted, got %s", got)
	}
}
