package common

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ErrNotNumeric is returned by CleanDecimal when nothing numeric is left after cleaning.
var ErrNotNumeric = errors.New("not a numeric value")

var (
	nonNumericRegex = regexp.MustCompile(`[^0-9.,]`)
	plainNumber     = regexp.MustCompile(`^-?\d+(\.\d+)?([eE][+-]?\d+)?$`)
	spaceRegex      = regexp.MustCompile(`\s+`)
	lowerID         = cases.Lower(language.Indonesian)
)

// DateLayouts are tried in order by ParseCellDate for text cells.
var DateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"02-01-2006 15:04:05",
	"02-01-2006",
	"02 Jan 2006",
	"02 January 2006",
}

// CleanDecimal parses an amount written by a spreadsheet or a bank, removing
// currency prefixes and other non-numeric characters. Both "1.250.000,00"
// and "1,250,000.00" read as 1250000. A leading minus or surrounding
// parentheses make the value negative.
func CleanDecimal(text string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(text)
	if plainNumber.MatchString(trimmed) && !thousandsOnly(trimmed, '.') {
		return decimal.NewFromString(trimmed)
	}

	firstDigit := strings.IndexAny(trimmed, "0123456789")
	if firstDigit < 0 {
		return decimal.Zero, ErrNotNumeric
	}
	prefix := trimmed[:firstDigit]
	negative := strings.Contains(prefix, "-") ||
		(strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")"))

	cleanText := strings.Trim(nonNumericRegex.ReplaceAllString(trimmed, ""), ".,")
	if cleanText == "" {
		return decimal.Zero, ErrNotNumeric
	}
	amount, err := decimal.NewFromString(normalizeSeparators(cleanText))
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// NullDecimal is CleanDecimal folded into the null sentinel used by every extractor.
func NullDecimal(text string) decimal.NullDecimal {
	amount, err := CleanDecimal(text)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(amount)
}

// normalizeSeparators turns a digits/dot/comma string into a plain decimal literal.
func normalizeSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && !thousandsOnly(s, ',') {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || thousandsOnly(s, '.') {
			return strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

// thousandsOnly reports whether sep appears exactly once and is followed by
// exactly three digits, e.g. "20.000".
func thousandsOnly(s string, sep byte) bool {
	i := strings.IndexByte(s, sep)
	if i < 0 || strings.Count(s, string(sep)) != 1 {
		return false
	}
	tail := s[i+1:]
	if len(tail) != 3 {
		return false
	}
	_, err := strconv.Atoi(tail)
	return err == nil
}

// ParseDate parses a date string using a layout, handling common issues
func ParseDate(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, strings.TrimSpace(value), time.Local)
}

// ParseCellDate reads a date from a raw cell: an Excel serial number or one
// of DateLayouts. ok is false when nothing matches.
func ParseCellDate(value string) (t time.Time, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial < 1 || serial >= 2958466 {
			return time.Time{}, false
		}
		dt, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return dt, true
	}
	for _, layout := range DateLayouts {
		if dt, err := ParseDate(layout, value); err == nil {
			return dt, true
		}
	}
	return time.Time{}, false
}

// DayOf truncates t to its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FixDateYear adjusts the year of a transaction date if it falls in a different year than the statement
func FixDateYear(txDate time.Time, statementDate time.Time) time.Time {
	if txDate.Year() != statementDate.Year() {
		transactionYear := statementDate.Year()
		// Statement in January, transaction code for December: previous year.
		if statementDate.Month() < txDate.Month() {
			transactionYear = statementDate.Year() - 1
		}
		return time.Date(transactionYear, txDate.Month(), txDate.Day(), 0, 0, 0, 0, time.Local)
	}
	return txDate
}

// NormalizePort lowercases a port label and strips the "pelabuhan" prefix,
// so "PELABUHAN  Merak " and "merak" compare equal.
func NormalizePort(text string) string {
	s := lowerID.String(norm.NFKC.String(text))
	s = strings.TrimSpace(spaceRegex.ReplaceAllString(s, " "))
	s = strings.TrimPrefix(s, "pelabuhan")
	return strings.TrimSpace(s)
}

// NormalizeKey is the comparison form of an invoice number.
func NormalizeKey(text string) string {
	return strings.ToUpper(strings.TrimSpace(spaceRegex.ReplaceAllString(text, " ")))
}

// NormalizeColumnName is the comparison form of a header label.
func NormalizeColumnName(name string) string {
	return strings.ToUpper(strings.TrimSpace(spaceRegex.ReplaceAllString(norm.NFKC.String(name), " ")))
}
