package cleaner

// convert.go turns raw spreadsheet text into typed values.
//
// Source sheets come from Excel exports and hand-edited CSVs, so the
// parsers accept:
//   - ISO, US and long-form dates, and Excel serial day numbers
//   - currency symbols, thousands separators and accounting negatives
//   - integral quantities written as decimals ("3.0")
//
// Every parser reports ok=false instead of guessing; the cleaning policy
// decides what a failed parse means.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// numericRegex validates that a string is a plain number after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// compactDateRegex matches the only all-digit date text accepted: yyyymmdd.
var compactDateRegex = regexp.MustCompile(`^\d{8}$`)

// dashedUSDateRegex matches month-day-year dates written with dashes.
var dashedUSDateRegex = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{2}|\d{4})\b`)

// maxExcelSerial is the serial number of 9999-12-31.
const maxExcelSerial = 2958465

// ParseDate parses a date written as text and truncates it to the calendar
// day in UTC. Ambiguous numeric dates are read month first. Plain numbers
// other than yyyymmdd are not dates; see ParseSerialDate.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if numericRegex.MatchString(s) && !compactDateRegex.MatchString(s) {
		return time.Time{}, false
	}

	s = dashedUSDateRegex.ReplaceAllString(s, "$1/$2/$3")

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || t.Year() < 1 {
		return time.Time{}, false
	}
	return calendarDay(t), true
}

// ParseSerialDate parses a workbook serial day number, as stored in raw
// date cells, and truncates it to the calendar day.
func ParseSerialDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return calendarDay(t), true
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDecimal parses a monetary or ratio cell.
// Handles currency symbols, thousands separators, and accounting format
// (parentheses for negative).
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if isNegative {
		d = d.Neg()
	}
	return d, true
}

// ParseQuantity parses an item count. Decimal input is accepted only when
// it has no fractional part.
func ParseQuantity(s string) (int64, bool) {
	d, ok := ParseDecimal(s)
	if !ok {
		return 0, false
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return d.IntPart(), true
}
