package ingest

// convert.go provides typed conversions for raw cell values.
//
// These functions handle the messy reality of user-provided spreadsheet
// data:
//   - Multiple date formats (US, EU, ISO) plus Excel serial day-counts
//   - Currency symbols and thousand separators in numbers
//   - Excel formula prefixes (="value")
//   - Common CSV artifacts (BOM, stray quotes)
//
// Conversions return an ok flag or error rather than panicking; the
// validator decides whether a failed conversion rejects the row.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// excelEpochOffset is the day count between the Excel serial epoch
// (1899-12-30, accounting for the leap-year bug) and the Unix epoch.
const excelEpochOffset = 25569

// Excel serials outside this year range are treated as invalid calendar
// dates rather than silently accepted.
const (
	minSerialYear = 1900
	maxSerialYear = 2200
)

// Ambiguous day/month orderings resolve in favor of the earlier layout:
// US order is tried before EU order for slashes and dots.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02", "2006.01.02",
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
	"2/1/2006", "02/01/2006", "2.1.2006", "02.01.2006",
	"2 Jan 2006", "Jan 2, 2006",
	"20060102",
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// leading/trailing whitespace, an Excel formula prefix (="..."), and
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// ParseDate converts a cell to a UTC time. It accepts the usual textual
// layouts plus Excel serial day-counts, in which the integer part counts
// days from the 1900 epoch and the fraction encodes time of day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	// Spreadsheet date cells may arrive as a numeric serial.
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := FromExcelSerial(serial); ok {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("serial %q is not a valid calendar date", s)
	}

	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// FromExcelSerial converts an Excel serial date to a UTC time.
// days = floor(serial) - 25569 maps the serial onto the Unix epoch; the
// fractional part is time of day in fractions of a day. Serials mapping
// outside a plausible calendar range report ok=false.
func FromExcelSerial(serial float64) (time.Time, bool) {
	days := math.Floor(serial) - excelEpochOffset
	secs := int64(days) * 86400

	frac := serial - math.Floor(serial)
	secs += int64(math.Round(frac * 86400))

	t := time.Unix(secs, 0).UTC()
	if t.Year() < minSerialYear || t.Year() > maxSerialYear {
		return time.Time{}, false
	}
	return t, true
}

// ParseNumber converts a cell to a float64. Handles currency symbols,
// thousands separators, and accounting format (parentheses for negative).
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, "₹", "") // Rupee
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, fmt.Errorf("invalid number format %q", s)
	}

	return strconv.ParseFloat(s, 64)
}

// ParseGeoPoint converts a "<lat>,<lon>" cell to a GeoPoint. Malformed or
// out-of-range input is an error, never clamped.
func ParseGeoPoint(s string) (GeoPoint, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return GeoPoint{}, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("invalid longitude %q", parts[1])
	}

	if lat < -90 || lat > 90 {
		return GeoPoint{}, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return GeoPoint{}, fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}

	return GeoPoint{Lat: lat, Lon: lon}, nil
}
