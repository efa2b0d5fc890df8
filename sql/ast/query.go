package ast

// JoinType distinguishes an inner/cross join from a left outer join; the
// engine implements no other join kind (spec.md Non-goals).
type JoinType int

const (
	JoinInner JoinType = 0
	JoinCross JoinType = 0
	JoinLeft  JoinType = 1
)

// TableSpec is how a FROM-clause entry was written: a bare name, a
// parenthesized subquery, an inline VALUES block, or one of the
// synthetic/backend specials. Resolving a TableSpec into a live backend
// handle is the VFS layer's job (package vfs); ast only records what the
// parser saw.
type TableSpecKind int

const (
	TableSpecName TableSpecKind = iota
	TableSpecSubquery
	TableSpecValues
)

// TableRef is one FROM-clause entry: a named relation with an alias, how
// it joins to the tables before it, and what kind of source it is.
// Grounded on struct Table in structs.h; the live VFS handle itself is
// not stored here (ast has no dependency on package vfs) -- the
// executor's catalog maps TableRef index to an open vfs.Table.
type TableRef struct {
	Name     string
	Alias    string
	Kind     TableSpecKind
	Subquery *Query // set when Kind == TableSpecSubquery
	Values   [][]Node

	// Join is the ON-clause predicate relating this table to prior
	// tables; nil/OperatorAlways for the first table or a plain CROSS
	// JOIN/comma join.
	Join     Node
	JoinType JoinType

	// ColumnAliases renames columns via `AS alias(col1, col2, ...)`.
	ColumnAliases []string
}

// QueryFlag is a bitset of boolean query properties.
type QueryFlag int

const (
	FlagHasPredicate QueryFlag = 1 << 0
	FlagGroup        QueryFlag = 1 << 1
	FlagExplain      QueryFlag = 1 << 12
	FlagReadOnly     QueryFlag = 1 << 13
)

// NoLimit is the sentinel "no LIMIT clause" value.
const NoLimit = -1

// StatementKind distinguishes the handful of top-level statement forms
// the parser recognizes.
type StatementKind int

const (
	StatementSelect StatementKind = iota
	StatementCreateTable
	StatementCreateView
	StatementCreateIndex
	StatementInsert
)

// Query is the parsed representation of one SQL statement: spec.md's
// central data-model type. Every Node reachable from a Query is
// name-resolved (TableID/Index filled in) before planning.
type Query struct {
	Kind StatementKind

	Tables  []TableRef
	Columns []Node

	Flags QueryFlag

	Predicate Node // AND-rooted predicate tree; zero value = no predicate

	GroupBy []Node
	OrderBy []Node

	Offset int
	Limit  int // NoLimit = -1

	// CTEs maps a WITH-clause name to its Query, evaluated once and
	// substituted as a subquery TableRef wherever referenced. CTEs may
	// not reference earlier CTEs, per spec.md §4.4.
	CTEs map[string]*Query

	// CreateTableName / CreateIndex* carry the extra metadata needed by
	// CREATE TABLE/VIEW/INDEX and INSERT statements; unused for a plain
	// SELECT.
	CreateTableName  string
	CreateViewSource string // exact source text of a CREATE VIEW's defining SELECT
	CreateIndexName  string
	CreateIndexTable string
	CreateIndexCols  []string
	CreateUnique     bool
	InsertTable      string
}

// HasPredicate reports whether the query has a non-trivial WHERE clause.
func (q *Query) HasPredicate() bool {
	return q.Flags&FlagHasPredicate != 0
}

// IsGroup reports whether the query aggregates (has a GROUP BY, or an
// aggregate function with none).
func (q *Query) IsGroup() bool {
	return q.Flags&FlagGroup != 0
}
