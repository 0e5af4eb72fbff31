// Package dateparse extracts calendar dates from free-text Spanish
// expressions ("mañana", "el viernes", "25 de octubre"). Ambiguous
// expressions resolve forward from the reference instant, so "25 de octubre"
// said in November lands on next year's October.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var months = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

var weekdays = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"miércoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var weekdayNames = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

var (
	dayMonthRe = regexp.MustCompile(`(\d{1,2})\s+de\s+([a-záéíóúñ]+)(?:\s+(?:del?\s+)?(\d{4}))?`)
	numericRe  = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})(?:[/-](\d{2,4}))?`)
	weekdayRe  = regexp.MustCompile(`(?:pr[oó]ximo\s+|este\s+)?([a-záéíóúñ]+)`)
)

// Parse scans text for a Spanish date expression and resolves it against ref.
// The result is a calendar date (midnight in ref's location); the second
// return value is false when no date expression is recognized.
func Parse(text string, ref time.Time) (time.Time, bool) {
	norm := strings.ToLower(strings.TrimSpace(text))
	today := midnight(ref)

	switch {
	case strings.Contains(norm, "pasado mañana") || strings.Contains(norm, "pasado manana"):
		return today.AddDate(0, 0, 2), true
	case strings.Contains(norm, "mañana") || strings.Contains(norm, "manana"):
		return today.AddDate(0, 0, 1), true
	case strings.Contains(norm, "hoy"):
		return today, true
	}

	if m := dayMonthRe.FindStringSubmatch(norm); m != nil {
		if t, ok := resolveDayMonth(m[1], m[2], m[3], today); ok {
			return t, true
		}
	}

	if m := numericRe.FindStringSubmatch(norm); m != nil {
		if t, ok := resolveNumeric(m[1], m[2], m[3], today); ok {
			return t, true
		}
	}

	// Bare or prefixed weekday names resolve to the next occurrence.
	for _, m := range weekdayRe.FindAllStringSubmatch(norm, -1) {
		if wd, ok := weekdays[m[1]]; ok {
			days := int(wd-today.Weekday()+7) % 7
			if days == 0 {
				days = 7
			}
			return today.AddDate(0, 0, days), true
		}
	}

	return time.Time{}, false
}

func resolveDayMonth(dayStr, monthStr, yearStr string, today time.Time) (time.Time, bool) {
	month, ok := months[monthStr]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dayStr)
	if yearStr != "" {
		year, _ := strconv.Atoi(yearStr)
		return makeDate(year, month, day, today.Location())
	}
	t, ok := makeDate(today.Year(), month, day, today.Location())
	if !ok {
		return time.Time{}, false
	}
	if t.Before(today) {
		return makeDate(today.Year()+1, month, day, today.Location())
	}
	return t, true
}

func resolveNumeric(dayStr, monthStr, yearStr string, today time.Time) (time.Time, bool) {
	day, _ := strconv.Atoi(dayStr)
	monthNum, _ := strconv.Atoi(monthStr)
	if monthNum < 1 || monthNum > 12 {
		return time.Time{}, false
	}
	month := time.Month(monthNum)
	if yearStr != "" {
		year, _ := strconv.Atoi(yearStr)
		if year < 100 {
			year += 2000
		}
		return makeDate(year, month, day, today.Location())
	}
	t, ok := makeDate(today.Year(), month, day, today.Location())
	if !ok {
		return time.Time{}, false
	}
	if t.Before(today) {
		return makeDate(today.Year()+1, month, day, today.Location())
	}
	return t, true
}

// makeDate rejects day overflow (e.g. "31 de febrero" must not roll into March).
func makeDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatLong renders a date the way the confirmation messages show it,
// e.g. "viernes, 15 de marzo de 2025".
func FormatLong(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d",
		weekdayNames[t.Weekday()], t.Day(), monthNames[t.Month()-1], t.Year())
}
