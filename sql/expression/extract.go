package expression

import (
	"strconv"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/juliantime"
)

// evaluateExtract dispatches the EXTRACT-family unary functions, each
// parsing its one argument as a date/time and reading off one field.
// An unparseable argument yields an empty result rather than an error,
// per spec.md §7 ("an unparseable date in a date-context operation
// yields 0-length output").
func evaluateExtract(n *ast.Node, ctx Context) (string, error) {
	arg, err := argText(n, 0, ctx)
	if err != nil {
		return "", err
	}
	dt, ok := juliantime.Parse(arg, ctx.Now())
	if !ok {
		return nullText, nil
	}

	switch n.Function {
	case ast.FuncExtractYear:
		return strconv.Itoa(dt.Year), nil
	case ast.FuncExtractMonth:
		return strconv.Itoa(dt.Month), nil
	case ast.FuncExtractDay:
		return strconv.Itoa(dt.Day), nil
	case ast.FuncExtractHour:
		return strconv.Itoa(dt.Hour), nil
	case ast.FuncExtractMinute:
		return strconv.Itoa(dt.Minute), nil
	case ast.FuncExtractSecond:
		return strconv.Itoa(dt.Second), nil
	case ast.FuncExtractWeek:
		week, _ := juliantime.WeekInfo(dt)
		return strconv.Itoa(week), nil
	case ast.FuncExtractWeekyear:
		_, weekyear := juliantime.WeekInfo(dt)
		return strconv.Itoa(weekyear), nil
	case ast.FuncExtractWeekday:
		return strconv.Itoa(juliantime.WeekDay(dt)), nil
	case ast.FuncExtractYearday:
		return strconv.Itoa(juliantime.YearDay(dt)), nil
	case ast.FuncExtractMillennium:
		return strconv.Itoa(dt.Year/1000 + 1), nil
	case ast.FuncExtractCentury:
		return strconv.Itoa(dt.Year/100 + 1), nil
	case ast.FuncExtractDecade:
		return strconv.Itoa(dt.Year / 10), nil
	case ast.FuncExtractQuarter:
		return strconv.Itoa(juliantime.Quarter(dt)), nil
	case ast.FuncExtractJulian:
		return strconv.Itoa(juliantime.Julian(dt)), nil
	case ast.FuncExtractDate:
		return juliantime.FormatDate(dt), nil
	case ast.FuncExtractTime:
		return juliantime.FormatTime(dt), nil
	case ast.FuncExtractDatetime:
		return juliantime.FormatDateTime(dt), nil
	case ast.FuncExtractMonthString:
		return juliantime.MonthString(dt), nil
	case ast.FuncExtractWeekString:
		return juliantime.WeekString(dt), nil
	case ast.FuncExtractYeardayString:
		return juliantime.YearDayString(dt), nil
	}
	return "", errUnknownFunction.New(n.Function.String())
}
