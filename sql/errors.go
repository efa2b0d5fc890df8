package sql

import "gopkg.in/src-d/go-errors.v1"

// Sentinel error kinds shared across components, following the
// errors.NewKind convention used throughout the teacher's auth package.
var (
	// ErrUnboundedScan is returned when a plan would require scanning a
	// synthetic table (CALENDAR or SEQUENCE) with no predicate narrowing
	// its range, per spec.md §7 "Plan-time sanity".
	ErrUnboundedScan = errors.NewKind("unbounded scan of %s rejected: add a predicate to narrow the range")

	// ErrReadOnly is returned when a write statement (CREATE, INSERT) is
	// attempted against an engine configured as read-only.
	ErrReadOnly = errors.NewKind("engine is read-only: %s not permitted")
)
