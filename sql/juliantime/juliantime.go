// Package juliantime is the date/time kernel (component C1): it parses the
// handful of ISO-8601 variants the engine accepts, and converts between a
// calendar DateTime, a noon-based Julian day number, and Unix seconds.
//
// The conversion formulas are grounded on
// _examples/original_source/src/functions/date.c
// (datetimeGetJulian / datetimeFromJulian / datetimeGetWeek); this package
// is a direct, integer-arithmetic port of that C code into Go.
package juliantime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateTime mirrors struct DateTime from the original: a signed year (so
// BCE dates are representable) plus 1-based month/day and hour/minute/second.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// IsLeapYear reports whether year is a leap year in the proleptic
// Gregorian calendar.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%400 == 0 || year%100 != 0)
}

var monthIndex = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

var monthLengths = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// DaysInMonth returns the number of days in the given 1-based month of year.
func DaysInMonth(year, month int) int {
	if month == 2 && IsLeapYear(year) {
		return 29
	}
	return monthLengths[month-1]
}

// YearDay returns the 1-based ordinal day of the year for dt.
func YearDay(dt DateTime) int {
	leapDay := 0
	if dt.Month > 2 && IsLeapYear(dt.Year) {
		leapDay = 1
	}
	return monthIndex[dt.Month-1] + dt.Day + leapDay
}

// Julian returns the noon-based Julian day number for dt, respecting the
// Hour field: a time before noon floors to the previous integer day, as
// the original implementation does (the "g" term below).
func Julian(dt DateTime) int {
	y := dt.Year
	m := dt.Month
	d := dt.Day
	if m < 3 {
		y--
		m += 12
	}

	a := y / 100
	b := a / 4
	c := 2 - a + b
	e := int(365.25 * float64(y+4716))
	f := int(30.6001 * float64(m+1))

	g := 0
	if dt.Hour < 12 {
		g = 1
	}

	return c + d + e + f - 1524 - g
}

// FromJulian is the inverse of Julian: it recovers a calendar date (with
// zeroed time-of-day fields) from a Julian day number.
func FromJulian(julian int) DateTime {
	z := julian + 1
	w := int((float64(z) - 1867216.25) / 36524.25)
	x := w / 4
	a := z + 1 + w - x
	b := a + 1524
	c := int((float64(b) - 122.1) / 365.25)
	d := int(365.25 * float64(c))
	e := int(float64(b-d) / 30.6001)
	f := int(30.6001 * float64(e))

	day := b - d - f
	month := e - 1
	if month > 12 {
		month -= 12
	}
	year := c - 4716
	if month <= 2 {
		year = c - 4715
	}

	return DateTime{Year: year, Month: month, Day: day}
}

// WeekInfo is the ISO-8601 (week, weekyear) pair for a date, computed by
// the Claus Tondering algorithm the original cites in its comments.
func WeekInfo(dt DateTime) (week, weekyear int) {
	if dt.Year == 0 && dt.Month == 1 && dt.Day == 1 {
		return 52, -1
	}

	var a, b, c, s, e, f, g, d, n int
	if dt.Month < 3 {
		a = dt.Year - 1
		b = a/4 - a/100 + a/400
		c = (a-1)/4 - (a-1)/100 + (a-1)/400
		s = b - c
		e = 0
		f = dt.Day - 1 + 31*(dt.Month-1)
	} else {
		a = dt.Year
		b = a/4 - a/100 + a/400
		c = (a-1)/4 - (a-1)/100 + (a-1)/400
		s = b - c
		e = s + 1
		f = dt.Day + (153*(dt.Month-3)+2)/5 + 58 + s
	}
	g = mod(a+b, 7)
	d = mod(f+g-e, 7)
	n = f + 3 - d

	switch {
	case n < 0:
		week = 53 - (g-s)/5
		weekyear = dt.Year - 1
	case n > 364+s:
		week = 1
		weekyear = dt.Year + 1
	default:
		week = n/7 + 1
		weekyear = dt.Year
	}
	return week, weekyear
}

// mod is a Euclidean modulo matching C's truncating % for the ranges this
// package exercises (both operands kept non-negative by construction
// upstream is not guaranteed, so this normalizes to [0,m)).
func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// WeekDay returns the ISO weekday (1 = Monday .. 7 = Sunday) for dt.
func WeekDay(dt DateTime) int {
	noon := dt
	noon.Hour = 12
	return mod(Julian(noon), 7) + 1
}

// TimeInSeconds returns the time-of-day portion of dt as seconds since
// midnight.
func TimeInSeconds(dt DateTime) int {
	return dt.Hour*3600 + dt.Minute*60 + dt.Second
}

// TimeFromSeconds builds a DateTime with only the time-of-day fields set
// from a seconds-since-midnight count.
func TimeFromSeconds(seconds int) DateTime {
	return DateTime{
		Hour:   seconds / 3600,
		Minute: (seconds / 60) % 60,
		Second: seconds % 60,
	}
}

// ToUnix converts dt to Unix seconds (UTC).
func ToUnix(dt DateTime) int64 {
	t := time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, 0, time.UTC)
	return t.Unix()
}

// FromUnix converts Unix seconds (UTC) to a DateTime.
func FromUnix(sec int64) DateTime {
	t := time.Unix(sec, 0).UTC()
	return DateTime{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
	}
}

// FormatDate renders dt as YYYY-MM-DD, left-padding negative/short years
// the way printDate in the original does for out-of-range years.
func FormatDate(dt DateTime) string {
	return fmt.Sprintf("%04d-%02d-%02d", dt.Year, dt.Month, dt.Day)
}

// FormatDateTime renders dt as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(dt DateTime) string {
	return fmt.Sprintf("%s %02d:%02d:%02d", FormatDate(dt), dt.Hour, dt.Minute, dt.Second)
}

// FormatTime renders the time-of-day portion of dt as HH:MM:SS.
func FormatTime(dt DateTime) string {
	return fmt.Sprintf("%02d:%02d:%02d", dt.Hour, dt.Minute, dt.Second)
}

// Parse attempts to read input as one of the date/time formats the engine
// recognizes. It never falls back to guessing a bare integer is a date,
// per DESIGN NOTES §9 ("must not guess numeric formats").
func Parse(input string, now time.Time) (DateTime, bool) {
	switch input {
	case "CURRENT_DATE", "TODAY()":
		return DateTime{Year: now.Year(), Month: int(now.Month()), Day: now.Day()}, true
	case "CURRENT_TIME":
		return DateTime{Hour: now.Hour(), Minute: now.Minute(), Second: now.Second()}, true
	case "NOW()":
		return DateTime{
			Year: now.Year(), Month: int(now.Month()), Day: now.Day(),
			Hour: now.Hour(), Minute: now.Minute(), Second: now.Second(),
		}, true
	}

	if dt, ok := parseDateTimeT(input); ok {
		return dt, true
	}
	if dt, ok := parseDateOnly(input); ok {
		return dt, true
	}
	if dt, ok := parseOrdinal(input); ok {
		return dt, true
	}
	if dt, ok := parseISOWeekDate(input); ok {
		return dt, true
	}
	if dt, ok := parseTimeOnly(input); ok {
		return dt, true
	}
	return DateTime{}, false
}

// checkFormat matches input against a pattern where 'n' means "digit" and
// every other rune must match literally, mirroring checkFormat() in the
// original parser.
func checkFormat(input, format string) bool {
	if len(input) != len(format) {
		return false
	}
	for i := 0; i < len(format); i++ {
		if format[i] == 'n' {
			if input[i] < '0' || input[i] > '9' {
				return false
			}
		} else if input[i] != format[i] {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseDateTimeT(input string) (DateTime, bool) {
	if checkFormat(input, "nnnn-nn-nnTnn:nn:nn") {
		return DateTime{
			Year: atoi(input[0:4]), Month: atoi(input[5:7]), Day: atoi(input[8:10]),
			Hour: atoi(input[11:13]), Minute: atoi(input[14:16]), Second: atoi(input[17:19]),
		}, true
	}
	if checkFormat(input, "nnnn-nn-nn nn:nn:nn") {
		return DateTime{
			Year: atoi(input[0:4]), Month: atoi(input[5:7]), Day: atoi(input[8:10]),
			Hour: atoi(input[11:13]), Minute: atoi(input[14:16]), Second: atoi(input[17:19]),
		}, true
	}
	return DateTime{}, false
}

func parseDateOnly(input string) (DateTime, bool) {
	if checkFormat(input, "nnnn-nn-nn") {
		return DateTime{Year: atoi(input[0:4]), Month: atoi(input[5:7]), Day: atoi(input[8:10])}, true
	}
	return DateTime{}, false
}

// parseOrdinal handles YYYY-DDD, the ordinal date form.
func parseOrdinal(input string) (DateTime, bool) {
	if !checkFormat(input, "nnnn-nnn") {
		return DateTime{}, false
	}
	year := atoi(input[0:4])
	yday := atoi(input[5:8])
	return fromYearDay(year, yday), true
}

func fromYearDay(year, yday int) DateTime {
	month := 1
	day := yday
	for month <= 12 {
		length := DaysInMonth(year, month)
		if day <= length {
			break
		}
		day -= length
		month++
	}
	return DateTime{Year: year, Month: month, Day: day}
}

// parseISOWeekDate handles YYYY-Www-D, e.g. 2023-W08-6.
func parseISOWeekDate(input string) (DateTime, bool) {
	if !checkFormat(input, "nnnn-Wnn-n") {
		return DateTime{}, false
	}
	year := atoi(input[0:4])
	week := atoi(input[6:8])
	weekday := atoi(input[9:10])
	return fromISOWeek(year, week, weekday), true
}

// fromISOWeek finds the Julian day for the given ISO (weekyear, week,
// weekday), then converts back to a calendar date, since the forward
// formula (week number from date) has no closed-form inverse worth
// reproducing separately.
func fromISOWeek(weekyear, week, weekday int) DateTime {
	jan4 := DateTime{Year: weekyear, Month: 1, Day: 4}
	jan4Weekday := WeekDay(jan4)
	mondayWeek1 := Julian(jan4) - (jan4Weekday - 1)
	julian := mondayWeek1 + (week-1)*7 + (weekday - 1)
	return FromJulian(julian)
}

func parseTimeOnly(input string) (DateTime, bool) {
	if checkFormat(input, "nn:nn:nn") {
		return DateTime{Hour: atoi(input[0:2]), Minute: atoi(input[3:5]), Second: atoi(input[6:8])}, true
	}
	return DateTime{}, false
}

// MonthString returns the 3-letter month abbreviation for dt (Jan..Dec).
func MonthString(dt DateTime) string {
	names := [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	return names[dt.Month-1]
}

// WeekString renders dt's ISO week as "Www", e.g. "W08".
func WeekString(dt DateTime) string {
	week, _ := WeekInfo(dt)
	return fmt.Sprintf("W%02d", week)
}

// YearDayString renders dt as the zero-padded 3-digit ordinal day string.
func YearDayString(dt DateTime) string {
	return fmt.Sprintf("%03d", YearDay(dt))
}

// AddDays returns the date julian-shifted by days (may be negative).
func AddDays(dt DateTime, days int) DateTime {
	return FromJulian(Julian(dt) + days)
}

// AddSeconds returns dt with seconds added to its time-of-day, carrying
// into the date portion via Julian/Unix round-tripping.
func AddSeconds(dt DateTime, seconds int) DateTime {
	midnight := DateTime{Year: dt.Year, Month: dt.Month, Day: dt.Day}
	total := int64(Julian(midnight))*86400 + int64(TimeInSeconds(dt)) + int64(seconds)
	days := total / 86400
	rem := total % 86400
	if rem < 0 {
		rem += 86400
		days--
	}
	date := FromJulian(int(days))
	tod := TimeFromSeconds(int(rem))
	date.Hour, date.Minute, date.Second = tod.Hour, tod.Minute, tod.Second
	return date
}

// IsWeekend reports whether dt falls on Saturday or Sunday.
func IsWeekend(dt DateTime) bool {
	wd := WeekDay(dt)
	return wd == 6 || wd == 7
}

// Quarter returns the 1-based calendar quarter for dt's month.
func Quarter(dt DateTime) int {
	return (dt.Month-1)/3 + 1
}

// TrimDigits strips leading zero padding used in formatted numeric parts,
// used by EXTRACT(... AS string) helpers that need a bare integer string.
func TrimDigits(s string) string {
	return strings.TrimLeft(s, "0")
}
