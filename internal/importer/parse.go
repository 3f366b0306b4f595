package importer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// countryOverrides maps the short country codes embedded in race names to
// display names. Codes not listed pass through uppercased.
var countryOverrides = map[string]string{
	"ARG": "Argentina",
	"AUS": "Australia",
	"AUT": "Austria",
	"BEL": "Belgium",
	"BRA": "Brazil",
	"CAN": "Canada",
	"CHE": "Switzerland",
	"CHI": "Chile",
	"CHN": "China",
	"CZE": "Czech Republic",
	"DEU": "Germany",
	"DNK": "Denmark",
	"ESP": "Spain",
	"EST": "Estonia",
	"FIN": "Finland",
	"FRA": "France",
	"GBR": "United Kingdom",
	"HUN": "Hungary",
	"IRL": "Ireland",
	"ITA": "Italy",
	"JPN": "Japan",
	"MEX": "Mexico",
	"NED": "Netherlands",
	"NOR": "Norway",
	"NZL": "New Zealand",
	"POL": "Poland",
	"PRT": "Portugal",
	"ROU": "Romania",
	"SWE": "Sweden",
	"USA": "United States",
}

func normalizeCountry(code string) string {
	if code == "" {
		return "Unknown"
	}
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if name, ok := countryOverrides[normalized]; ok {
		return name
	}
	return normalized
}

// parseNumber reads an integer that may be formatted as a float ("1500.0").
func parseNumber(value string) (int, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// splitEventName separates a trailing country code, e.g.
// "Marathon des Sables (MAR)" -> ("Marathon des Sables", "MAR").
func splitEventName(raw string) (string, string) {
	name := strings.TrimSpace(raw)
	if !strings.HasSuffix(name, ")") {
		return name, ""
	}
	open := strings.LastIndex(name, "(")
	if open < 0 {
		return name, ""
	}
	candidate := strings.TrimSpace(strings.TrimSuffix(name[open+1:], ")"))
	if len(candidate) != 2 && len(candidate) != 3 {
		return name, ""
	}
	for _, r := range candidate {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return name, ""
		}
	}
	return strings.TrimSpace(name[:open]), strings.ToUpper(candidate)
}

// parseEventDates handles the shorthand date formats of the dataset:
//
//	06.01.2018
//	05.-06.01.2018
//	23.-25.03.2018
//	23.03.-08.04.2018
//	28.12.-02.01.2019
func parseEventDates(label string, fallbackYear int) (start, end *time.Time) {
	if label == "" {
		return nil, nil
	}

	cleaned := strings.TrimSpace(label)
	cleaned = strings.ReplaceAll(cleaned, "–", "-")
	cleaned = strings.ReplaceAll(cleaned, "—", "-")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "/", ".")

	parts := strings.Split(cleaned, "-")
	if len(parts) == 1 {
		single := parseDateFragment(parts[0], fallbackYear, 0)
		return single, single
	}

	endDate := parseDateFragment(parts[len(parts)-1], fallbackYear, 0)
	startYear, inheritMonth := fallbackYear, 0
	if endDate != nil {
		startYear = endDate.Year()
		inheritMonth = int(endDate.Month())
	}
	startDate := parseDateFragment(parts[0], startYear, inheritMonth)

	if startDate != nil && endDate != nil && startDate.After(*endDate) {
		// Ranges crossing the year boundary, e.g. 28.12.-02.01.2019.
		adjusted := time.Date(startDate.Year()-1, startDate.Month(), startDate.Day(), 0, 0, 0, 0, time.UTC)
		startDate = &adjusted
	}

	if startDate != nil && endDate == nil {
		return startDate, startDate
	}
	if endDate != nil && startDate == nil {
		return endDate, endDate
	}
	return startDate, endDate
}

func parseDateFragment(fragment string, fallbackYear, inheritMonth int) *time.Time {
	token := strings.Trim(fragment, ".")
	if token == "" {
		return nil
	}

	var bits []string
	for _, part := range strings.Split(token, ".") {
		if part != "" {
			bits = append(bits, part)
		}
	}

	var dayTxt, monthTxt, yearTxt string
	switch len(bits) {
	case 3:
		dayTxt, monthTxt, yearTxt = bits[0], bits[1], bits[2]
	case 2:
		dayTxt, monthTxt = bits[0], bits[1]
		yearTxt = strconv.Itoa(fallbackYear)
	case 1:
		dayTxt = bits[0]
		month := inheritMonth
		if month == 0 {
			month = 1
		}
		monthTxt = strconv.Itoa(month)
		yearTxt = strconv.Itoa(fallbackYear)
	default:
		return nil
	}

	day, err1 := strconv.Atoi(dayTxt)
	month, err2 := strconv.Atoi(monthTxt)
	year, err3 := strconv.Atoi(yearTxt)
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	if month < 1 || month > 12 || day < 1 {
		return nil
	}
	parsed := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if parsed.Day() != day {
		// Day overflowed the month (e.g. 31.02).
		return nil
	}
	return &parsed
}

var distanceRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(km|mi|h)$`)

// parseDistanceKM converts a distance label like "100km", "50mi", or "24h"
// into kilometers. Hour-based events get a nominal zero distance. Returns
// false when the label isn't a recognizable distance.
func parseDistanceKM(label string) (float64, bool) {
	text := strings.ToLower(strings.TrimSpace(label))
	if text == "" {
		return 0, false
	}
	match := distanceRe.FindStringSubmatch(text)
	if match == nil {
		if strings.Contains(text, "h") {
			return 0, true
		}
		return 0, false
	}

	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	switch match[2] {
	case "km":
		return value, true
	case "mi":
		return roundDistance(value * 1.60934), true
	}
	return 0, true
}

func roundDistance(value float64) float64 {
	return math.Round(value*100) / 100
}
