package ast

// Function is a byte-encoded family+opcode tag, grounded on the enum
// Function in _examples/original_source/src/structs.h. The exact bit
// values are kept (rather than renumbered) because the comparison-operator
// family deliberately arranges its low three bits to encode
// greater/less/equal, which the comparison helpers below (bitGT/bitLT/
// bitEQ, MatchesComparison) exploit the same way the original's EXPLAIN
// code does, while Family reads only the top family bits; nothing else in
// this port relies on the bit layout, so a reimplementation is free to
// renumber if it ever needs to.
type Function uint16

const (
	FuncUnity Function = 0x00
	FuncChr   Function = 0x01
	FuncToHex Function = 0x02
	FuncHex   Function = 0x03
	FuncCodepoint Function = 0x04
	FuncW1252 Function = 0x05

	FuncAdd Function = 0x11
	FuncSub Function = 0x12
	FuncMul Function = 0x13
	FuncDiv Function = 0x14
	FuncMod Function = 0x15
	FuncPow Function = 0x16

	FuncParens Function = 0x1F

	FuncFamString Function = 0x20
	FuncLength    Function = 0x21
	FuncLeft      Function = 0x22
	FuncRight     Function = 0x23
	FuncConcat    Function = 0x24

	FuncFamExtract        Function = 0x40
	FuncExtractYear       Function = 0x41
	FuncExtractMonth      Function = 0x42
	FuncExtractDay        Function = 0x43
	FuncExtractWeek       Function = 0x44
	FuncExtractWeekday    Function = 0x45
	FuncExtractWeekyear   Function = 0x46
	FuncExtractYearday    Function = 0x47
	FuncExtractHeyear     Function = 0x48
	FuncExtractMillennium Function = 0x49
	FuncExtractCentury    Function = 0x4A
	FuncExtractDecade     Function = 0x4B
	FuncExtractQuarter    Function = 0x4C

	FuncExtractHour   Function = 0x4D
	FuncExtractMinute Function = 0x4E
	FuncExtractSecond Function = 0x4F

	FuncExtractMonthString   Function = 0x50
	FuncExtractWeekString    Function = 0x51
	FuncExtractYeardayString Function = 0x52

	FuncExtractJulian   Function = 0x5C
	FuncExtractDate     Function = 0x5D
	FuncExtractTime     Function = 0x5E
	FuncExtractDatetime Function = 0x5F

	FuncFamDate   Function = 0x60
	FuncDateAdd   Function = 0x61
	FuncDateSub   Function = 0x62
	FuncDateDiff  Function = 0x63
	FuncMakeDate  Function = 0x64
	FuncMakeTime  Function = 0x65
	FuncMakeDatetime Function = 0x66
	FuncCastInt   Function = 0x67
	FuncCastDuration Function = 0x68

	FuncDateToday Function = 0x70
	FuncDateNow   Function = 0x71
	FuncDateClock Function = 0x72

	FuncFamAgg     Function = 0xA0
	FuncAggCount   Function = 0xA1
	FuncAggMin     Function = 0xA2
	FuncAggMax     Function = 0xA3
	FuncAggSum     Function = 0xA4
	FuncAggAvg     Function = 0xA5
	FuncAggListagg Function = 0xA6
	FuncRowNumber  Function = 0xA7

	// Comparison operator bitmap: bit 2 = "greater", bit 1 = "less",
	// bit 0 = "equal"; NEVER = 000, ALWAYS = 111.
	OperatorNever  Function = 0xC0
	OperatorEq     Function = 0xC1
	OperatorLt     Function = 0xC2
	OperatorLe     Function = 0xC3
	OperatorGt     Function = 0xC4
	OperatorGe     Function = 0xC5
	OperatorNe     Function = 0xC6
	OperatorAlways Function = 0xC7
	OperatorLike   Function = 0xC8
	OperatorOr     Function = 0xC9
	OperatorAnd    Function = 0xCA

	FuncFamDummy Function = 0xE0
	FuncPK       Function = 0xE1
	FuncUnique   Function = 0xE2
	FuncIndex    Function = 0xE3

	FuncUnknown Function = 0xFF
)

const familyMask Function = 0xE0

// Family returns the family bits of f (the top 3 bits).
func (f Function) Family() Function { return f & familyMask }

// IsComparison reports whether f is one of the OPERATOR_* comparison tags.
func (f Function) IsComparison() bool {
	return f >= OperatorNever && f <= OperatorAnd
}

// IsAggregate reports whether f is one of the FUNC_AGG_* tags.
func (f Function) IsAggregate() bool {
	return f.Family() == FuncFamAgg || f == FuncRowNumber
}

// bitGT/bitLT/bitEQ exploit the same bit layout documented above.
func (f Function) bitGT() bool { return f&0x04 != 0 }
func (f Function) bitLT() bool { return f&0x02 != 0 }
func (f Function) bitEQ() bool { return f&0x01 != 0 }

// MatchesComparison reports whether the 3-way comparison result cmp
// (negative, zero, positive) satisfies the operator f, which must be a
// comparison Function. OPERATOR_LIKE/OR/AND are not representable this
// way and always return false here; callers must special-case them.
func (f Function) MatchesComparison(cmp int) bool {
	if f == OperatorLike || f == OperatorOr || f == OperatorAnd {
		return false
	}
	switch {
	case cmp < 0:
		return f.bitLT()
	case cmp > 0:
		return f.bitGT()
	default:
		return f.bitEQ()
	}
}

// Negate returns the operator that matches exactly when f does not,
// e.g. Negate(OperatorEq) == OperatorNe. Used by planner predicate
// normalization and NOT handling.
func (f Function) Negate() Function {
	switch f {
	case OperatorNever:
		return OperatorAlways
	case OperatorAlways:
		return OperatorNever
	case OperatorEq:
		return OperatorNe
	case OperatorNe:
		return OperatorEq
	case OperatorLt:
		return OperatorGe
	case OperatorGe:
		return OperatorLt
	case OperatorLe:
		return OperatorGt
	case OperatorGt:
		return OperatorLe
	}
	return f
}

// Flip returns the operator you'd use if the left and right operands of
// a comparison were swapped, e.g. Flip(OperatorLt) == OperatorGt. Used
// when the planner normalizes "v op col" into "col op' v".
func (f Function) Flip() Function {
	switch f {
	case OperatorLt:
		return OperatorGt
	case OperatorGt:
		return OperatorLt
	case OperatorLe:
		return OperatorGe
	case OperatorGe:
		return OperatorLe
	}
	return f
}

// String renders a Function for debugging/EXPLAIN output.
func (f Function) String() string {
	if name, ok := functionNames[f]; ok {
		return name
	}
	return "FUNC_UNKNOWN"
}

var functionNames = map[Function]string{
	FuncUnity: "UNITY", FuncChr: "CHR", FuncToHex: "TO_HEX", FuncHex: "HEX",
	FuncCodepoint: "CODEPOINT", FuncW1252: "W1252",
	FuncAdd: "+", FuncSub: "-", FuncMul: "*", FuncDiv: "/", FuncMod: "%", FuncPow: "^",
	FuncParens: "PARENS",
	FuncLength: "LENGTH", FuncLeft: "LEFT", FuncRight: "RIGHT", FuncConcat: "CONCAT",
	FuncExtractYear: "YEAR", FuncExtractMonth: "MONTH", FuncExtractDay: "DAY",
	FuncExtractWeek: "WEEK", FuncExtractWeekday: "WEEKDAY", FuncExtractWeekyear: "WEEKYEAR",
	FuncExtractYearday: "YEARDAY", FuncExtractMillennium: "MILLENNIUM",
	FuncExtractCentury: "CENTURY", FuncExtractDecade: "DECADE", FuncExtractQuarter: "QUARTER",
	FuncExtractHour: "HOUR", FuncExtractMinute: "MINUTE", FuncExtractSecond: "SECOND",
	FuncExtractMonthString: "MONTH_STRING", FuncExtractWeekString: "WEEK_STRING",
	FuncExtractYeardayString: "YEARDAY_STRING", FuncExtractJulian: "JULIAN",
	FuncExtractDate: "DATE", FuncExtractTime: "TIME", FuncExtractDatetime: "DATETIME",
	FuncDateAdd: "DATE_ADD", FuncDateSub: "DATE_SUB", FuncDateDiff: "DATE_DIFF",
	FuncMakeDate: "MAKE_DATE", FuncMakeTime: "MAKE_TIME", FuncMakeDatetime: "MAKE_DATETIME",
	FuncCastInt: "CAST_INT", FuncCastDuration: "CAST_DURATION",
	FuncDateToday: "TODAY", FuncDateNow: "NOW", FuncDateClock: "CLOCK",
	FuncAggCount: "COUNT", FuncAggMin: "MIN", FuncAggMax: "MAX", FuncAggSum: "SUM",
	FuncAggAvg: "AVG", FuncAggListagg: "LISTAGG", FuncRowNumber: "ROW_NUMBER",
	OperatorNever: "NEVER", OperatorEq: "=", OperatorLt: "<", OperatorLe: "<=",
	OperatorGt: ">", OperatorGe: ">=", OperatorNe: "!=", OperatorAlways: "ALWAYS",
	OperatorLike: "LIKE", OperatorOr: "OR", OperatorAnd: "AND",
	FuncPK: "PK", FuncUnique: "UNIQUE", FuncIndex: "INDEX",
}

// FunctionByName looks up the Function tag for a case-insensitive SQL
// function name, used by the parser when it meets `NAME (...)`.
func FunctionByName(name string) (Function, bool) {
	f, ok := functionsByName[name]
	return f, ok
}

var functionsByName = map[string]Function{
	"CHR": FuncChr, "TO_HEX": FuncToHex, "HEX": FuncHex, "CODEPOINT": FuncCodepoint,
	"W1252": FuncW1252,
	"LENGTH": FuncLength, "LEFT": FuncLeft, "RIGHT": FuncRight, "CONCAT": FuncConcat,
	"YEAR": FuncExtractYear, "MONTH": FuncExtractMonth, "DAY": FuncExtractDay,
	"WEEK": FuncExtractWeek, "WEEKDAY": FuncExtractWeekday, "WEEKYEAR": FuncExtractWeekyear,
	"YEARDAY": FuncExtractYearday, "MILLENNIUM": FuncExtractMillennium,
	"CENTURY": FuncExtractCentury, "DECADE": FuncExtractDecade, "QUARTER": FuncExtractQuarter,
	"HOUR": FuncExtractHour, "MINUTE": FuncExtractMinute, "SECOND": FuncExtractSecond,
	"MONTH_STRING": FuncExtractMonthString, "WEEK_STRING": FuncExtractWeekString,
	"YEARDAY_STRING": FuncExtractYeardayString, "JULIAN": FuncExtractJulian,
	"DATE": FuncExtractDate, "TIME": FuncExtractTime, "DATETIME": FuncExtractDatetime,
	"DATE_ADD": FuncDateAdd, "DATE_SUB": FuncDateSub, "DATE_DIFF": FuncDateDiff,
	"MAKE_DATE": FuncMakeDate, "MAKE_TIME": FuncMakeTime, "MAKE_DATETIME": FuncMakeDatetime,
	"CAST_INT": FuncCastInt, "CAST_DURATION": FuncCastDuration,
	"TODAY": FuncDateToday, "NOW": FuncDateNow, "CLOCK": FuncDateClock,
	"COUNT": FuncAggCount, "MIN": FuncAggMin, "MAX": FuncAggMax, "SUM": FuncAggSum,
	"AVG": FuncAggAvg, "LISTAGG": FuncAggListagg, "ROW_NUMBER": FuncRowNumber,
}
