package expression

import (
	"strconv"
	"time"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/juliantime"
	"github.com/spf13/cast"
)

// evaluateDateFunc dispatches DATE_ADD/DATE_SUB/DATE_DIFF/MAKE_DATE/
// MAKE_TIME/MAKE_DATETIME/CAST_INT/CAST_DURATION and the zero-arg
// TODAY/NOW/CLOCK constants, grounded on
// _examples/original_source/src/functions/date.c.
func evaluateDateFunc(n *ast.Node, ctx Context) (string, error) {
	switch n.Function {
	case ast.FuncDateToday:
		return juliantime.FormatDate(fromTime(ctx.Now())), nil
	case ast.FuncDateNow:
		return juliantime.FormatDateTime(fromTime(ctx.Now())), nil
	case ast.FuncDateClock:
		return juliantime.FormatTime(fromTime(ctx.Now())), nil

	case ast.FuncDateAdd:
		return dateShift(n, ctx, 1)
	case ast.FuncDateSub:
		return dateShift(n, ctx, -1)

	case ast.FuncDateDiff:
		a, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		b, err := argText(n, 1, ctx)
		if err != nil {
			return "", err
		}
		da, ok1 := juliantime.Parse(a, ctx.Now())
		db, ok2 := juliantime.Parse(b, ctx.Now())
		if !ok1 || !ok2 {
			return nullText, nil
		}
		return strconv.Itoa(juliantime.Julian(da) - juliantime.Julian(db)), nil

	case ast.FuncMakeDate:
		year, err := argInt(n, 0, ctx)
		if err != nil {
			return "", err
		}
		month, err := argInt(n, 1, ctx)
		if err != nil {
			return "", err
		}
		day, err := argInt(n, 2, ctx)
		if err != nil {
			return "", err
		}
		return juliantime.FormatDate(juliantime.DateTime{Year: year, Month: month, Day: day}), nil

	case ast.FuncMakeTime:
		hour, err := argInt(n, 0, ctx)
		if err != nil {
			return "", err
		}
		minute, err := argInt(n, 1, ctx)
		if err != nil {
			return "", err
		}
		second, err := argInt(n, 2, ctx)
		if err != nil {
			return "", err
		}
		return juliantime.FormatTime(juliantime.DateTime{Hour: hour, Minute: minute, Second: second}), nil

	case ast.FuncMakeDatetime:
		year, err := argInt(n, 0, ctx)
		if err != nil {
			return "", err
		}
		month, err := argInt(n, 1, ctx)
		if err != nil {
			return "", err
		}
		day, err := argInt(n, 2, ctx)
		if err != nil {
			return "", err
		}
		hour, err := argInt(n, 3, ctx)
		if err != nil {
			return "", err
		}
		minute, err := argInt(n, 4, ctx)
		if err != nil {
			return "", err
		}
		second, err := argInt(n, 5, ctx)
		if err != nil {
			return "", err
		}
		return juliantime.FormatDateTime(juliantime.DateTime{
			Year: year, Month: month, Day: day,
			Hour: hour, Minute: minute, Second: second,
		}), nil

	case ast.FuncCastInt:
		s, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		f, convErr := cast.ToFloat64E(s)
		if convErr != nil {
			return nullText, nil
		}
		return strconv.Itoa(int(f)), nil

	case ast.FuncCastDuration:
		s, err := argText(n, 0, ctx)
		if err != nil {
			return "", err
		}
		f, convErr := cast.ToFloat64E(s)
		if convErr != nil {
			return nullText, nil
		}
		return strconv.Itoa(int(f)), nil
	}
	return "", errUnknownFunction.New(n.Function.String())
}

// dateShift implements DATE_ADD/DATE_SUB: arg0 is a date or datetime,
// arg1 is a count of days (date-only values) or seconds (values that
// carry a time-of-day component).
func dateShift(n *ast.Node, ctx Context, sign int) (string, error) {
	base, err := argText(n, 0, ctx)
	if err != nil {
		return "", err
	}
	amount, err := argInt(n, 1, ctx)
	if err != nil {
		return "", err
	}
	dt, ok := juliantime.Parse(base, ctx.Now())
	if !ok {
		return nullText, nil
	}
	if juliantime.TimeInSeconds(dt) != 0 {
		shifted := juliantime.AddSeconds(dt, sign*amount)
		return juliantime.FormatDateTime(shifted), nil
	}
	shifted := juliantime.AddDays(dt, sign*amount)
	return juliantime.FormatDate(shifted), nil
}

func fromTime(t time.Time) juliantime.DateTime {
	return juliantime.DateTime{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(),
	}
}
