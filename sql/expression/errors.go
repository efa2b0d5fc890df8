package expression

import "gopkg.in/src-d/go-errors.v1"

var (
	errAggregateOutsideGroup = errors.NewKind("aggregate function %s used outside a grouped context")
	errUnknownFunction       = errors.NewKind("unknown function tag %s")
	errBadArgCount           = errors.NewKind("%s expects %d argument(s), got %d")
)
