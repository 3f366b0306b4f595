package importer

import (
	"fmt"
	"sort"
	"strings"
)

// buildDescription writes the catalog blurb for an imported event from the
// aggregated dataset facts. Call after generateSchedule.
func buildDescription(rec *record) string {
	location := formatLocation(rec)
	dateRange := formatDateRange(rec)
	highlighted := highlightDistance(rec)

	var adventureLabel string
	switch {
	case rec.end != nil && !rec.end.Equal(rec.start):
		days := int(rec.end.Sub(rec.start).Hours()/24) + 1
		adventureLabel = fmt.Sprintf("%d-day ultra adventure", days)
	default:
		adventureLabel = "single-day ultra challenge"
	}

	distancePhrase := "an unforgettable endurance journey"
	if highlighted != "" {
		distancePhrase = fmt.Sprintf("a %s journey", highlighted)
	}

	raceName := rec.baseName
	if raceName == "" {
		raceName = "this race"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf(
		"Step into one of the most demanding yet rewarding endurance challenges -- %s. "+
			"Test your physical and mental limits across %s, where every mile is a story of grit, determination, and discovery.",
		rec.originalName, location))

	if dateRange != "" {
		lines = append(lines, fmt.Sprintf(
			"This %s (%s) offers %s designed for both elite ultrarunners and determined first-timers. "+
				"With exceptional course support, scenic terrain, and a tight-knit endurance community, %s delivers more than a run -- it's an experience that transforms.",
			adventureLabel, dateRange, distancePhrase, raceName))
	} else {
		lines = append(lines, fmt.Sprintf(
			"This %s offers %s designed for both elite ultrarunners and determined first-timers. "+
				"With exceptional course support, scenic terrain, and a tight-knit endurance community, %s delivers more than a run -- it's an experience that transforms.",
			adventureLabel, distancePhrase, raceName))
	}

	if rec.finishers > 0 {
		lines = append(lines, fmt.Sprintf(
			"Join a legacy of finishers celebrated for their courage, camaraderie, and perseverance. "+
				"Historical results showcase %d athletes who have already conquered the course.",
			rec.finishers))
	} else {
		lines = append(lines, "Join a legacy of finishers celebrated for their courage, camaraderie, and perseverance.")
	}

	lines = append(lines, fmt.Sprintf(
		"Registration opens %s, giving you space to prepare, train, and plan your ultimate ultra-running adventure.",
		rec.registrationOpen.Format("January 02, 2006")))
	lines = append(lines, fmt.Sprintf(
		"Secure your spot before registration closes on %s.",
		rec.deadline.Format("January 02, 2006")))

	lines = append(lines, fmt.Sprintf("Ready to go beyond your limits? %s awaits.", location))

	return strings.Join(lines, "\n\n")
}

func formatLocation(rec *record) string {
	var parts []string
	if rec.baseName != "" {
		parts = append(parts, rec.baseName)
	}
	if rec.country != "" && rec.country != "Unknown" {
		parts = append(parts, rec.country)
	}
	if len(parts) == 0 {
		return "this destination"
	}
	return strings.Join(parts, ", ")
}

func formatDateRange(rec *record) string {
	start := rec.start
	end := start
	if rec.end != nil {
		end = *rec.end
	}
	if start.Equal(end) {
		return start.Format("January 02, 2006")
	}
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return start.Format("January 02") + "-" + end.Format("02, 2006")
	}
	return start.Format("January 02, 2006") + " - " + end.Format("January 02, 2006")
}

// highlightDistance picks the most impressive distance label: longest
// distance first, then longest label, then lexicographic.
func highlightDistance(rec *record) string {
	if len(rec.distances) == 0 {
		return ""
	}
	type entry struct {
		distance float64
		label    string
	}
	entries := make([]entry, 0, len(rec.distances))
	for label := range rec.distances {
		distance, ok := parseDistanceKM(label)
		if !ok {
			distance = 0
		}
		entries = append(entries, entry{distance: distance, label: label})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.distance != b.distance {
			return a.distance > b.distance
		}
		if len(a.label) != len(b.label) {
			return len(a.label) > len(b.label)
		}
		return strings.ToLower(a.label) > strings.ToLower(b.label)
	})
	return entries[0].label
}
