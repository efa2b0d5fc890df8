package parse

import (
	"strings"

	"github.com/csvdb/csvdb/sql/ast"
)

// resolutionOrder controls whether a bare name is first checked against
// the SELECT list's aliases or against the FROM-clause tables, matching
// spec.md §4.4's per-clause resolution rules: the SELECT list itself
// never sees its own aliases (NO_ALIASES, since an alias can't reference
// itself or a sibling that isn't defined yet in C), WHERE and ORDER BY
// check aliases first, and GROUP BY checks aliases last (after failing
// against real columns). resolveLeaf returns early for noAliases and
// otherwise treats aliasesFirst and aliasesLast alike.
type resolutionOrder int

const (
	noAliases resolutionOrder = iota
	aliasesFirst
	aliasesLast
)

// tableCatalog is the minimal "does this table exist, what are its
// columns" oracle the resolver needs; package engine supplies the real
// implementation backed by vfs.Open, so that package parse has no
// dependency on package vfs (keeping the ast -> {vfs, expression} ->
// plan import graph acyclic).
type tableCatalog interface {
	Columns(tableName string) ([]string, bool)
}

// ResolveQuery walks q using only what q itself records -- it never
// touches storage. It recurses into FROM-clause subqueries; column
// fields stay unresolved and a `*`/`t.*` stays a single ColumnStar
// placeholder. Column resolution and star expansion happen later, in
// ExpandStarsAgainstCatalog (SELECT list) and ResolveAgainstCatalog
// (JOIN, WHERE, ORDER BY, GROUP BY).
func ResolveQuery(q *ast.Query) error {
	r := &resolver{query: q}
	return r.run()
}

// ResolveAgainstCatalog checks that every named FROM-clause table exists
// in cat and resolves the column leaves of the JOIN conditions, WHERE,
// ORDER BY and GROUP BY against the tables' real column names; a name
// that matches no column (a SELECT-list alias included) is
// ErrUnknownColumn. The engine calls this after opening every
// FROM-clause table.
func ResolveAgainstCatalog(q *ast.Query, cat tableCatalog) error {
	r := &resolver{query: q, catalog: cat}
	return r.runCatalogPass()
}

type resolver struct {
	query   *ast.Query
	catalog tableCatalog
}

func (r *resolver) run() error {
	q := r.query

	for i := range q.Tables {
		if q.Tables[i].Kind == ast.TableSpecSubquery {
			if err := ResolveQuery(q.Tables[i].Subquery); err != nil {
				return err
			}
		}
		if i > 0 {
			if err := r.resolveNode(&q.Tables[i].Join, aliasesFirst); err != nil {
				return err
			}
		}
	}

	expanded, err := r.expandStars(q.Columns)
	if err != nil {
		return err
	}
	q.Columns = expanded
	for i := range q.Columns {
		if err := r.resolveNode(&q.Columns[i], noAliases); err != nil {
			return err
		}
	}

	if q.HasPredicate() {
		if err := r.resolveNode(&q.Predicate, aliasesFirst); err != nil {
			return err
		}
	}

	for i := range q.OrderBy {
		if err := r.resolveNode(&q.OrderBy[i], aliasesFirst); err != nil {
			return err
		}
	}
	for i := range q.GroupBy {
		if err := r.resolveNode(&q.GroupBy[i], aliasesLast); err != nil {
			return err
		}
	}

	return nil
}

func (r *resolver) runCatalogPass() error {
	q := r.query
	var clauses []*ast.Node
	if q.HasPredicate() {
		clauses = append(clauses, &q.Predicate)
	}
	for i := range q.Tables {
		clauses = append(clauses, &q.Tables[i].Join)
		if q.Tables[i].Kind != ast.TableSpecName {
			continue
		}
		if _, ok := r.catalog.Columns(q.Tables[i].Name); !ok {
			return ErrUnknownTable.New(q.Tables[i].Name)
		}
	}
	for _, keys := range [][]ast.Node{q.OrderBy, q.GroupBy} {
		for i := range keys {
			clauses = append(clauses, &keys[i])
		}
	}
	for _, n := range clauses {
		if err := resolveLeavesAgainstCatalog(n, q, r.catalog); err != nil {
			return err
		}
	}
	return nil
}

// expandStars replaces any `*`/`alias.*` leaf in cols with one leaf per
// resolved column of the referenced table(s), preserving the calling
// function context (e.g. `COUNT(*)` keeps its COUNT wrapper; only a
// bare top-level `*` expands in place as multiple SELECT-list entries).
func (r *resolver) expandStars(cols []ast.Node) ([]ast.Node, error) {
	var out []ast.Node
	for _, c := range cols {
		if c.IsLeaf() && c.Field.Index == ast.ColumnStar {
			expanded, err := r.starColumns(c.Field.Text)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// starColumns returns the single ColumnStar placeholder leaf for a bare
// `*` or qualified `alias.*`; column names are not known without the
// catalog, and ExpandStarsAgainstCatalog replaces the placeholder with
// one leaf per real column once the backends are open.
func (r *resolver) starColumns(text string) ([]ast.Node, error) {
	return []ast.Node{ast.NewLeaf(ast.Field{Text: text, Index: ast.ColumnStar})}, nil
}

// ExpandStarsAgainstCatalog performs the catalog-dependent half of star
// expansion once the engine has opened every FROM-clause table, replacing
// each remaining ColumnStar leaf with one leaf per real column.
func ExpandStarsAgainstCatalog(q *ast.Query, cat tableCatalog) error {
	var out []ast.Node
	for _, c := range q.Columns {
		if c.IsLeaf() && c.Field.Index == ast.ColumnStar {
			cols, err := expandOneStar(q, c.Field.Text, cat)
			if err != nil {
				return err
			}
			out = append(out, cols...)
			continue
		}
		out = append(out, c)
	}
	q.Columns = out
	return resolveColumnList(q, cat)
}

func expandOneStar(q *ast.Query, text string, cat tableCatalog) ([]ast.Node, error) {
	alias := strings.TrimSuffix(text, ".*")
	qualified := alias != text

	var leaves []ast.Node
	for ti, t := range q.Tables {
		if qualified && tableLabel(t) != alias {
			continue
		}
		cols, ok := cat.Columns(t.Name)
		if !ok {
			cols, ok = cat.Columns(tableLabel(t))
		}
		if !ok {
			continue
		}
		for ci, name := range cols {
			leaves = append(leaves, ast.Node{
				Field: ast.Field{Text: name, TableID: ti, Index: ast.ColumnIndex(ci)},
			})
		}
	}
	if len(leaves) == 0 {
		return nil, ErrUnknownColumn.New(text)
	}
	return leaves, nil
}

// resolveColumnList re-resolves already-expanded SELECT-list Fields
// whose Index is still ColumnUnknown against the open catalog.
func resolveColumnList(q *ast.Query, cat tableCatalog) error {
	for i := range q.Columns {
		if err := resolveLeavesAgainstCatalog(&q.Columns[i], q, cat); err != nil {
			return err
		}
	}
	return nil
}

func resolveLeavesAgainstCatalog(n *ast.Node, q *ast.Query, cat tableCatalog) error {
	if n.IsLeaf() {
		if n.Field.Index != ast.ColumnUnknown {
			return nil
		}
		return resolveFieldAgainstCatalog(&n.Field, q, cat)
	}
	if n.IsSelfChild() {
		return resolveFieldAgainstCatalog(&n.Field, q, cat)
	}
	for i := range n.Children {
		if err := resolveLeavesAgainstCatalog(&n.Children[i], q, cat); err != nil {
			return err
		}
	}
	if n.Filter != nil {
		return resolveLeavesAgainstCatalog(n.Filter, q, cat)
	}
	return nil
}

func resolveFieldAgainstCatalog(f *ast.Field, q *ast.Query, cat tableCatalog) error {
	if f.Index == ast.ColumnConstant {
		return nil
	}
	name := f.Text
	var wantAlias string
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		wantAlias, name = name[:dot], name[dot+1:]
	}

	matchTable, matchCol := -1, -1
	for ti, t := range q.Tables {
		if wantAlias != "" && tableLabel(t) != wantAlias {
			continue
		}
		cols, ok := cat.Columns(t.Name)
		if !ok {
			cols, ok = cat.Columns(tableLabel(t))
		}
		if !ok {
			continue
		}
		for ci, cn := range cols {
			if strings.EqualFold(cn, name) {
				if matchTable != -1 && matchTable != ti {
					return ErrAmbiguousColumn.New(name)
				}
				matchTable, matchCol = ti, ci
			}
		}
	}
	if matchTable == -1 {
		return ErrUnknownColumn.New(f.Text)
	}
	f.TableID = matchTable
	f.Index = ast.ColumnIndex(matchCol)
	return nil
}

// resolveNode walks n and calls resolveLeaf on every leaf it contains.
// Parse-time resolution has no catalog and fills in no Field; column
// resolution happens in the catalog pass above once tables are open.
func (r *resolver) resolveNode(n *ast.Node, order resolutionOrder) error {
	if n.IsLeaf() {
		return r.resolveLeaf(n, order)
	}
	if n.IsSelfChild() {
		return r.resolveLeaf(&ast.Node{Field: n.Field}, order)
	}
	for i := range n.Children {
		if err := r.resolveNode(&n.Children[i], order); err != nil {
			return err
		}
	}
	if n.Filter != nil {
		return r.resolveNode(n.Filter, order)
	}
	return nil
}

func (r *resolver) resolveLeaf(n *ast.Node, order resolutionOrder) error {
	f := &n.Field
	if f.Index == ast.ColumnConstant || f.Index == ast.ColumnStar || f.Index == ast.ColumnCountStar {
		return nil
	}
	if order == noAliases {
		return nil
	}
	// Alias lookups against the SELECT list: a bare name in WHERE/ORDER
	// BY/GROUP BY may refer to a `AS alias` entry instead of a real
	// column. This loop finds such a match but records nothing (Index
	// stays unresolved), and the catalog pass resolves names against real
	// columns only.
	for _, c := range r.query.Columns {
		if c.Alias != "" && strings.EqualFold(c.Alias, f.Text) {
			return nil
		}
	}
	return nil
}
