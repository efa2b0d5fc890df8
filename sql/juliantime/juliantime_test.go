package juliantime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJulianRoundTrip(t *testing.T) {
	require := require.New(t)

	cases := []DateTime{
		{Year: 2024, Month: 2, Day: 29},
		{Year: 2000, Month: 1, Day: 1},
		{Year: 1970, Month: 1, Day: 1},
		{Year: 1, Month: 1, Day: 1},
	}
	for _, dt := range cases {
		j := Julian(dt)
		back := FromJulian(j)
		require.Equal(dt.Year, back.Year)
		require.Equal(dt.Month, back.Month)
		require.Equal(dt.Day, back.Day)
	}
}

func TestIsLeapYear(t *testing.T) {
	require := require.New(t)
	require.True(IsLeapYear(2024))
	require.False(IsLeapYear(2023))
	require.False(IsLeapYear(1900))
	require.True(IsLeapYear(2000))
}

func TestFebruaryHasExpectedDayCount(t *testing.T) {
	require := require.New(t)
	require.Equal(29, DaysInMonth(2024, 2))
	require.Equal(28, DaysInMonth(2023, 2))
}

func TestParseDateOnly(t *testing.T) {
	require := require.New(t)
	dt, ok := Parse("2024-02-29", time.Now())
	require.True(ok)
	require.Equal(DateTime{Year: 2024, Month: 2, Day: 29}, dt)
}

func TestParseDateTime(t *testing.T) {
	require := require.New(t)
	dt, ok := Parse("2024-02-29T13:45:01", time.Now())
	require.True(ok)
	require.Equal(DateTime{Year: 2024, Month: 2, Day: 29, Hour: 13, Minute: 45, Second: 1}, dt)
}

func TestParseOrdinal(t *testing.T) {
	require := require.New(t)
	dt, ok := Parse("2023-001", time.Now())
	require.True(ok)
	require.Equal(1, dt.Month)
	require.Equal(1, dt.Day)
}

func TestParseRejectsBareNumbers(t *testing.T) {
	require := require.New(t)
	_, ok := Parse("20230101", time.Now())
	require.False(ok)
	_, ok = Parse("12345678", time.Now())
	require.False(ok)
}

func TestWeekDayMonday(t *testing.T) {
	require := require.New(t)
	// 2024-01-01 is a Monday.
	require.Equal(1, WeekDay(DateTime{Year: 2024, Month: 1, Day: 1}))
}

func TestAddDays(t *testing.T) {
	require := require.New(t)
	dt := AddDays(DateTime{Year: 2024, Month: 2, Day: 28}, 1)
	require.Equal(DateTime{Year: 2024, Month: 2, Day: 29}, dt)
	dt = AddDays(dt, 1)
	require.Equal(3, dt.Month)
	require.Equal(1, dt.Day)
}

func TestFormatDate(t *testing.T) {
	require := require.New(t)
	require.Equal("2024-02-29", FormatDate(DateTime{Year: 2024, Month: 2, Day: 29}))
}
