// Package calendar derives Bikram Sambat display dates from Gregorian dates.
package calendar

import (
	"strconv"
	"strings"
	"time"
)

// Converter turns a transaction date into its display string
type Converter interface {
	Format(t time.Time) string
}

// Date is a Bikram Sambat calendar date
type Date struct {
	Year  int
	Month int // 1 = Baisakh
	Day   int
}

var monthNames = [12]string{
	"बैशाख", "जेठ", "असार", "साउन", "भदौ", "असोज",
	"कार्तिक", "मंसिर", "पौष", "माघ", "फाल्गुन", "चैत",
}

var digits = [10]rune{'०', '१', '२', '३', '४', '५', '६', '७', '८', '९'}

// monthStarts holds the usual Gregorian first day of each BS month, Baisakh first.
// Real month lengths vary by year; this keeps results within a day or two.
var monthStarts = [12]struct {
	month time.Month
	day   int
}{
	{time.April, 14}, {time.May, 15}, {time.June, 15}, {time.July, 17},
	{time.August, 17}, {time.September, 17}, {time.October, 18}, {time.November, 17},
	{time.December, 16}, {time.January, 15}, {time.February, 13}, {time.March, 15},
}

// Approximate converts with a fixed month-start table. It is the default Converter.
type Approximate struct{}

// Convert returns the BS date for the calendar day of t in UTC
func (Approximate) Convert(t time.Time) Date {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	year := day.Year() + 56
	if !day.Before(time.Date(day.Year(), time.April, 14, 0, 0, 0, 0, time.UTC)) {
		year++
	}
	for i := 11; i >= 0; i-- {
		start := startOf(year, i)
		if !day.Before(start) {
			return Date{Year: year, Month: i + 1, Day: int(day.Sub(start).Hours()/24) + 1}
		}
	}
	// unreachable: Baisakh 1 of year is never after day
	return Date{Year: year, Month: 1, Day: 1}
}

// Format renders t as "<year> साल <month> <day> गते" in Nepali digits
func (a Approximate) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return a.Convert(t).String()
}

func startOf(bsYear, monthIdx int) time.Time {
	adYear := bsYear - 57
	if monthIdx >= 9 { // Magh, Falgun and Chaitra fall in the next Gregorian year
		adYear++
	}
	s := monthStarts[monthIdx]
	return time.Date(adYear, s.month, s.day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	return NepaliDigits(d.Year) + " साल " + monthNames[d.Month-1] + " " + NepaliDigits(d.Day) + " गते"
}

// NepaliDigits writes n with Devanagari digits
func NepaliDigits(n int) string {
	var b strings.Builder
	for _, r := range strconv.Itoa(n) {
		if r >= '0' && r <= '9' {
			b.WriteRune(digits[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
