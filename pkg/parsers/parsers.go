// Package parsers pulls structured fields out of raw SSAS provider reports.
// Providers deliver terse free text with loosely standardized labels; every
// parser here is best effort and reports whether it found anything.
package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	mmsiRe     = regexp.MustCompile(`(?i)MMSI[:\s]+(\d{9})`)
	terminalRe = regexp.MustCompile(`(?i)Mobile Terminal No[:\s]+(\d+)`)
	imoRe      = regexp.MustCompile(`(?i)IMO[:\s]+(\d{7})`)
	latRe      = regexp.MustCompile(`(\d+)°(\d+\.?\d*)['′]([NS])`)
	lonRe      = regexp.MustCompile(`(\d+)°(\d+\.?\d*)['′]([EW])`)
)

// dateLayouts are tried in order; day-first layouts are common in provider
// reports, ISO in API payloads.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseDate parses a report timestamp in any of the supported layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ExtractMMSI finds a labeled nine digit MMSI in report text.
func ExtractMMSI(text string) (string, bool) {
	m := mmsiRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractTerminal finds a labeled mobile terminal number in report text.
func ExtractTerminal(text string) (string, bool) {
	m := terminalRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractIMO finds a labeled seven digit IMO number in report text.
func ExtractIMO(text string) (string, bool) {
	m := imoRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Position is a decimal-degrees coordinate pair.
type Position struct {
	Latitude  float64
	Longitude float64
}

// ParsePosition extracts a degrees-and-decimal-minutes coordinate pair from
// report text. South and west hemispheres come back negative.
func ParsePosition(text string) (*Position, bool) {
	latMatch := latRe.FindStringSubmatch(text)
	lonMatch := lonRe.FindStringSubmatch(text)
	if latMatch == nil || lonMatch == nil {
		return nil, false
	}

	lat, ok := dmsToDecimal(latMatch[1], latMatch[2])
	if !ok {
		return nil, false
	}
	if latMatch[3] == "S" {
		lat = -lat
	}

	lon, ok := dmsToDecimal(lonMatch[1], lonMatch[2])
	if !ok {
		return nil, false
	}
	if lonMatch[3] == "W" {
		lon = -lon
	}

	return &Position{Latitude: lat, Longitude: lon}, true
}

func dmsToDecimal(degStr, minStr string) (float64, bool) {
	deg, err := strconv.ParseFloat(degStr, 64)
	if err != nil {
		return 0, false
	}
	min, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return 0, false
	}
	return deg + min/60, true
}
