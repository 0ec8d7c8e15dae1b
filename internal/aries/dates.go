package aries

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const isoDate = "2006-01-02"

// CutoffKind classifies the duration unit at the tail of an expression.
type CutoffKind int

const (
	CutoffNone CutoffKind = iota
	CutoffLife
	CutoffMonths
	CutoffIncrMonths
	CutoffYears
	CutoffIncrYears
	CutoffAbsDate
	CutoffVolume
	CutoffOilRate
	CutoffGasRate
)

// cutoffUnits is the recognized legacy duration-unit grammar. The exact
// token set is copied from the legacy date-convention tables; downstream
// parity depends on matching it, not on extending it.
var cutoffUnits = map[string]CutoffKind{
	"LIFE": CutoffLife,
	"MO":   CutoffMonths,
	"MOS":  CutoffMonths,
	"IMO":  CutoffIncrMonths,
	"IMOS": CutoffIncrMonths,
	"YR":   CutoffYears,
	"YRS":  CutoffYears,
	"IYR":  CutoffIncrYears,
	"IYRS": CutoffIncrYears,
	"AD":   CutoffAbsDate,

	"BBL":  CutoffVolume,
	"MB":   CutoffVolume,
	"MMB":  CutoffVolume,
	"MCF":  CutoffVolume,
	"MMF":  CutoffVolume,
	"MMCF": CutoffVolume,
	"BCF":  CutoffVolume,
	"MU":   CutoffVolume,
	"MMU":  CutoffVolume,

	"BBL/D": CutoffOilRate,
	"B/D":   CutoffOilRate,
	"MCF/D": CutoffGasRate,
	"M/D":   CutoffGasRate,
}

// ParseCutoffUnit resolves a cutoff token to its kind. The second return
// is the normalized unit (uppercased token) for volume cutoffs.
func ParseCutoffUnit(tok string) (CutoffKind, string, bool) {
	u := strings.ToUpper(strings.TrimSpace(tok))
	kind, ok := cutoffUnits[u]
	if !ok {
		return CutoffNone, "", false
	}
	return kind, u, true
}

// DayMonthYearFromDecimal decomposes a decimal period count into whole
// years and residual months the way the legacy engine does: floor for
// years, ceil for the residual months. 2.5 years is 2 years + 6 months;
// 1.01 years is 1 year + 1 month.
func DayMonthYearFromDecimal(d float64) (years, months int) {
	years = int(math.Floor(d))
	frac := d - float64(years)
	months = int(math.Ceil(frac*12 - 1e-9))
	if months >= 12 {
		years++
		months -= 12
	}
	return years, months
}

// StartOfMonth truncates t to the first day of its month.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// OffsetMonths advances the first of t's month by n months.
func OffsetMonths(t time.Time, n int) time.Time {
	return StartOfMonth(t).AddDate(0, n, 0)
}

// FormatDate renders t as an ISO date.
func FormatDate(t time.Time) string {
	return t.Format(isoDate)
}

// ParseISODate parses an ISO date produced by FormatDate.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(isoDate, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "aries: parse date %q", s)
	}
	return t, nil
}

// NextDay returns the ISO date one day after s. Used to keep successive
// row windows contiguous.
func NextDay(s string) (string, error) {
	t, err := ParseISODate(s)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, 1)), nil
}

// PrevDay returns the ISO date one day before s.
func PrevDay(s string) (string, error) {
	t, err := ParseISODate(s)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, -1)), nil
}

// ParseExpressionDate parses the calendar spellings the legacy grammar
// allows: M/YYYY, MM/DD/YYYY, and decimal years (YYYY.frac, where the
// fraction selects a month by the legacy ceil rule). The result is pinned
// to the first day of the resolved month unless a day was explicit.
func ParseExpressionDate(tok string) (time.Time, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return time.Time{}, eris.New("aries: empty date token")
	}

	if strings.Contains(tok, "/") {
		parts := strings.Split(tok, "/")
		switch len(parts) {
		case 2:
			m, err1 := strconv.Atoi(parts[0])
			y, err2 := strconv.Atoi(parts[1])
			if err1 != nil || err2 != nil || m < 1 || m > 12 {
				return time.Time{}, eris.Errorf("aries: bad month/year date %q", tok)
			}
			return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), nil
		case 3:
			m, err1 := strconv.Atoi(parts[0])
			d, err2 := strconv.Atoi(parts[1])
			y, err3 := strconv.Atoi(parts[2])
			if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 || d < 1 || d > 31 {
				return time.Time{}, eris.Errorf("aries: bad month/day/year date %q", tok)
			}
			return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
		}
		return time.Time{}, eris.Errorf("aries: bad date %q", tok)
	}

	// Decimal year: 2021.75 resolves to month ceil(0.75*12) = 9.
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "aries: bad decimal date %q", tok)
	}
	year := int(math.Floor(v))
	frac := v - float64(year)
	month := int(math.Ceil(frac*12 - 1e-9))
	if month < 1 {
		month = 1
	}
	if month > 12 {
		month = 12
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// ReadStart normalizes a START expression to "MM/YYYY". A leading DELAY
// token offsets the project base date by a month count instead of naming a
// date. Returns false when the expression cannot be read.
func ReadStart(expression string, baseDate time.Time) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(expression))
	if len(fields) == 0 {
		return "", false
	}

	if strings.EqualFold(fields[0], "DELAY") {
		if len(fields) < 2 {
			return "", false
		}
		n, ok := TryParseNumber(fields[1])
		if !ok {
			return "", false
		}
		t := OffsetMonths(baseDate, int(n))
		return t.Format("01/2006"), true
	}

	t, err := ParseExpressionDate(fields[0])
	if err != nil {
		return "", false
	}
	return t.Format("01/2006"), true
}

// MonthsBetween returns the whole-month distance from a to b, both pinned
// to the first of their months.
func MonthsBetween(a, b time.Time) int {
	ay, am := a.Year(), int(a.Month())
	by, bm := b.Year(), int(b.Month())
	return (by-ay)*12 + (bm - am)
}
