// Package csvdb wires the tokenizer, parser, planner, and row executor
// into one `Engine.Query` entry point, opening and caching each backend
// table a statement's FROM clause names. Grounded on engine.go's own
// Engine/Config shape (NewDefault, Config, Analyze/QueryWithBindings)
// and _examples/original_source/src/main.c's per-statement drive loop
// (open tables, parse, plan, execute, close).
package csvdb

import (
	"encoding/csv"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/csvdb/csvdb/sql/ast"
	"github.com/csvdb/csvdb/sql/expression"
	"github.com/csvdb/csvdb/sql/parse"
	"github.com/csvdb/csvdb/sql/plan"
	"github.com/csvdb/csvdb/sql/rowexec"
	"github.com/csvdb/csvdb/sql/vfs"
)

// dataDirEnv is the environment variable the original CGI wrapper
// (src/main-cgi.c) read its document root from; Config.DataDir takes
// precedence when set explicitly.
const dataDirEnv = "CSVDB_DATA_DIR"

// Config holds the engine's fixed, per-process settings.
type Config struct {
	// DataDir is the directory FROM-clause table names resolve against.
	// Empty means the current working directory; CSVDB_DATA_DIR seeds
	// this when set and DataDir itself was left empty.
	DataDir string

	// MemoryMapThreshold is the file-size cutoff (bytes) above which the
	// CSV backend opens via mmap instead of streaming; 0 disables mmap.
	MemoryMapThreshold int64

	// ReadOnly rejects INSERT/CREATE TABLE .. AS/CREATE VIEW/CREATE INDEX
	// before they touch storage.
	ReadOnly bool

	// CoveringIndexDisabled is carried on Config but nothing reads it:
	// the planner performs no covering-index rewrite, so the field has
	// no effect on any plan.
	CoveringIndexDisabled bool

	// Stats requests per-phase timing (resolve/plan/execute) be recorded
	// on each Result.
	Stats bool

	// Now overrides the "current time" CURRENT_DATE/CURRENT_TIME/NOW()
	// resolve against; zero means time.Now().
	Now time.Time
}

func (c *Config) dataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	if dir := os.Getenv(dataDirEnv); dir != "" {
		return dir
	}
	return "."
}

func (c *Config) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Engine parses, plans, and executes csvdb SQL statements against a
// directory of delimited text files. It holds no state between calls to
// Query beyond its logger; every table a statement opens is scoped to
// that statement and closed before Query returns.
type Engine struct {
	Config Config
	log    *logrus.Entry
}

// NewDefault returns an Engine with an otherwise-zero Config (current
// directory, no mmap, read-write).
func NewDefault() *Engine {
	return New(Config{})
}

// New returns an Engine configured as cfg directs.
func New(cfg Config) *Engine {
	return &Engine{Config: cfg, log: logrus.NewEntry(logrus.New())}
}

// Phase is one named, timed stage of Result.Stats.
type Phase struct {
	Name     string
	Duration time.Duration
}

// Result is the outcome of one statement: either SELECT's output rows,
// the row count an INSERT/CREATE affected, or (for EXPLAIN) the
// rendered plan.
type Result struct {
	Columns      []string
	Rows         []rowexec.Row
	RowsAffected int
	Stats        []Phase
	Explain      []plan.ExplainRow
}

// errReadOnly is returned when a mutating statement runs against a
// read-only Engine.
var errReadOnly = errors.New("csvdb: engine is read-only")

// Query parses, plans, and executes src as a single statement (which may
// be EXPLAIN-prefixed), returning its Result.
func (e *Engine) Query(src string) (*Result, error) {
	results, err := e.QueryMany(src)
	if err != nil {
		return nil, err
	}
	if len(results) != 1 {
		return nil, errors.Errorf("csvdb: expected exactly one statement, got %d", len(results))
	}
	return results[0], nil
}

// QueryMany runs every `;`-separated statement in src in order, each
// against its own freshly opened tables, returning one Result per
// statement.
func (e *Engine) QueryMany(src string) ([]*Result, error) {
	explain := false
	trimmed := strings.TrimSpace(src)
	if strings.HasPrefix(strings.ToUpper(trimmed), "EXPLAIN") {
		explain = true
		trimmed = strings.TrimSpace(trimmed[len("EXPLAIN"):])
	}

	queries, err := parse.ParseMany(trimmed)
	if err != nil {
		e.log.WithError(err).Error("parse failed")
		return nil, err
	}

	results := make([]*Result, 0, len(queries))
	for _, q := range queries {
		r, err := e.runOne(q, explain)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// collectWriter adapts a plain slice accumulator to rowexec.Writer.
type collectWriter struct{ rows []rowexec.Row }

func (c *collectWriter) WriteRow(row rowexec.Row) error {
	cp := make(rowexec.Row, len(row))
	copy(cp, row)
	c.rows = append(c.rows, cp)
	return nil
}

// runOne opens q's tables, resolves/plans/executes it, and closes the
// tables again before returning, per the original's own per-statement
// open/close discipline (src/main.c never keeps a table open across
// statements).
func (e *Engine) runOne(q *ast.Query, explain bool) (*Result, error) {
	if isMutating(q) && e.Config.ReadOnly {
		return nil, errReadOnly
	}

	start := time.Now()
	var stats []Phase
	mark := func(name string) {
		if e.Config.Stats {
			stats = append(stats, Phase{Name: name, Duration: time.Since(start)})
			start = time.Now()
		}
	}

	cat, err := e.openCatalog(q)
	if err != nil {
		return nil, err
	}
	defer cat.closeAll()

	if err := parse.ResolveAgainstCatalog(q, cat); err != nil {
		return nil, err
	}
	if err := parse.ExpandStarsAgainstCatalog(q, cat); err != nil {
		return nil, err
	}
	mark("resolve")

	p, err := plan.Build(q, cat)
	if err != nil {
		e.log.WithError(err).Error("planning failed")
		return nil, err
	}
	mark("plan")

	if explain {
		return &Result{Explain: plan.Explain(p, cat)}, nil
	}

	logEntry := e.log.WithField("tables", len(q.Tables))
	if len(p.Steps) > 0 {
		logEntry = logEntry.WithField("access", p.Steps[0].Type.String())
	}

	if isMutating(q) {
		n, err := e.execMutation(q, p, cat)
		mark("execute")
		if err != nil {
			logEntry.WithError(err).Error("statement failed")
			return nil, err
		}
		logEntry.WithField("rowsAffected", n).Debug("statement finished")
		return &Result{RowsAffected: n, Stats: stats}, nil
	}

	w := &collectWriter{}
	if err := rowexec.Execute(p, cat, w, e.Config.now()); err != nil {
		logEntry.WithError(err).Error("execution failed")
		return nil, err
	}
	mark("execute")

	logEntry.WithField("rows", len(w.rows)).Debug("query finished")

	return &Result{Columns: columnLabels(q), Rows: w.rows, Stats: stats}, nil
}

// resolveAndExecute fully resolves, plans, and runs q (which may be a
// subquery, a CTE body, or a `.sql` view's defining query) and returns
// its column labels and rendered rows, closing every table it opened
// before returning. It shares openCatalog/plan.Build/runRows with
// runOne but skips the top-level EXPLAIN/mutation/Stats bookkeeping,
// none of which applies to a nested materialization.
func (e *Engine) resolveAndExecute(q *ast.Query) ([]string, [][]string, error) {
	cat, err := e.openCatalog(q)
	if err != nil {
		return nil, nil, err
	}
	defer cat.closeAll()

	if err := parse.ResolveAgainstCatalog(q, cat); err != nil {
		return nil, nil, err
	}
	if err := parse.ExpandStarsAgainstCatalog(q, cat); err != nil {
		return nil, nil, err
	}

	p, err := plan.Build(q, cat)
	if err != nil {
		return nil, nil, err
	}
	rows, err := e.runRows(p, cat)
	if err != nil {
		return nil, nil, err
	}
	return columnLabels(q), rows, nil
}

// loadView implements vfs.ViewLoader: it parses and runs a `.sql` view
// file's defining query text, materializing its rows for Open to wrap
// as a vfs.View. Passed to every vfs.Open call the engine makes, so a
// FROM-clause reference to a view resolves inline alongside every other
// backend, per spec.md §4.2.
func (e *Engine) loadView(sqlText string) ([]string, [][]string, error) {
	q, err := parse.Parse(sqlText)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing view definition")
	}
	return e.resolveAndExecute(q)
}

// literalContext evaluates a VALUES row's cell expressions with no row
// bound: valid because a VALUES entry's Nodes are constants or
// zero-argument "current time" calls, never a column reference (there
// is no table to reference from inside the VALUES list itself).
type literalContext struct{ now time.Time }

func (literalContext) Cell(tableID int, col ast.ColumnIndex) (string, error) {
	return "", errors.New("csvdb: VALUES row may not reference a table column")
}

func (literalContext) RowID(tableID int) int { return 0 }

func (l literalContext) Now() time.Time { return l.now }

func isMutating(q *ast.Query) bool {
	switch q.Kind {
	case ast.StatementInsert, ast.StatementCreateTable, ast.StatementCreateView, ast.StatementCreateIndex:
		return true
	}
	return false
}

// columnLabels renders each SELECT list entry's display name: its AS
// alias if one was given, else the column's original source text.
func columnLabels(q *ast.Query) []string {
	labels := make([]string, len(q.Columns))
	for i := range q.Columns {
		c := &q.Columns[i]
		if c.Alias != "" {
			labels[i] = c.Alias
		} else {
			labels[i] = c.Field.Text
		}
	}
	return labels
}

// tableRefLabel is how a FROM-clause entry is addressed for error
// messages and catalog lookups: its alias if it has one, else its bare
// name, else a placeholder for an unaliased subquery/VALUES entry.
func tableRefLabel(t ast.TableRef) string {
	if t.Alias != "" {
		return t.Alias
	}
	if t.Name != "" {
		return t.Name
	}
	return "<subquery>"
}

// catalog opens and caches one vfs.Table per FROM-clause entry, in the
// order they appear in q.Tables, implementing both parse's tableCatalog
// and plan/rowexec's Catalog over the same live handles. A subquery,
// inline VALUES block, or WITH-clause CTE reference is materialized into
// its own backend (vfs.Temp or vfs.Values) here too, so the rest of the
// pipeline only ever sees a plain vfs.Table per FROM-clause index.
type catalog struct {
	dir    string
	mmap   int64
	loader vfs.ViewLoader
	byID   []vfs.Table
	byName map[string]vfs.Table
	temps  []*vfs.Temp
}

// openCatalog opens or materializes every table q.Tables names. A
// TableSpecName entry that matches a WITH-clause CTE is substituted with
// that CTE's query and materialized the same way an inline subquery is,
// per spec.md §4.4 ("CTEs... substituted as a subquery TableRef wherever
// referenced").
func (e *Engine) openCatalog(q *ast.Query) (*catalog, error) {
	cat := &catalog{
		dir:    e.Config.dataDir(),
		mmap:   e.Config.MemoryMapThreshold,
		loader: e.loadView,
		byID:   make([]vfs.Table, len(q.Tables)),
		byName: make(map[string]vfs.Table, len(q.Tables)),
	}
	for i := range q.Tables {
		t := &q.Tables[i]
		tbl, err := e.openTableRef(cat, q, t)
		if err != nil {
			cat.closeAll()
			return nil, errors.Wrapf(err, "opening table %q", tableRefLabel(*t))
		}
		cat.byID[i] = tbl
		if t.Name != "" {
			cat.byName[strings.ToUpper(t.Name)] = tbl
		}
		if t.Alias != "" {
			cat.byName[strings.ToUpper(t.Alias)] = tbl
		}
		// An unnamed, unaliased entry (a bare VALUES list) is looked up
		// under the empty name by star expansion.
		if t.Name == "" && t.Alias == "" {
			cat.byName[""] = tbl
		}
	}
	return cat, nil
}

// openTableRef resolves one FROM-clause entry to a live vfs.Table:
// a plain name (unless it shadows a CTE), a parenthesized subquery, or
// an inline VALUES block.
func (e *Engine) openTableRef(cat *catalog, q *ast.Query, t *ast.TableRef) (vfs.Table, error) {
	if t.Kind == ast.TableSpecName {
		if sub, ok := lookupCTE(q, t.Name); ok {
			return e.materializeSubquery(cat, sub, t.ColumnAliases)
		}
		return cat.openNamed(t.Name)
	}
	if t.Kind == ast.TableSpecSubquery {
		return e.materializeSubquery(cat, t.Subquery, t.ColumnAliases)
	}
	return e.materializeValues(t)
}

// lookupCTE finds the WITH-clause entry named name, matching
// case-insensitively the way table names resolve elsewhere.
func lookupCTE(q *ast.Query, name string) (*ast.Query, bool) {
	if q.CTEs == nil {
		return nil, false
	}
	if sub, ok := q.CTEs[name]; ok {
		return sub, true
	}
	for k, sub := range q.CTEs {
		if strings.EqualFold(k, name) {
			return sub, true
		}
	}
	return nil, false
}

// materializeSubquery runs sub to completion and stages its rows in a
// fresh vfs.Temp file under parent's data directory, owned by parent and
// cleaned up when parent.closeAll runs -- the FROM-clause subquery/CTE
// case of spec.md §3's "a subquery-materialized table owns its temp file
// until the Query is destroyed".
func (e *Engine) materializeSubquery(parent *catalog, sub *ast.Query, colAliases []string) (vfs.Table, error) {
	header, rows, err := e.resolveAndExecute(sub)
	if err != nil {
		return nil, err
	}
	if len(colAliases) == len(header) {
		header = append([]string(nil), colAliases...)
	}

	tmp, err := vfs.NewTemp(parent.dir, header)
	if err != nil {
		return nil, err
	}
	if err := tmp.InsertFromQuery(rows); err != nil {
		tmp.Close()
		_ = tmp.Cleanup()
		return nil, err
	}
	parent.temps = append(parent.temps, tmp)
	return tmp, nil
}

// materializeValues renders an inline `VALUES (...), (...)` FROM-clause
// entry's constant expressions to text and wraps them as a vfs.Values
// table, naming columns "column1", "column2", ... unless ColumnAliases
// renamed them.
func (e *Engine) materializeValues(t *ast.TableRef) (vfs.Table, error) {
	width := 0
	if len(t.Values) > 0 {
		width = len(t.Values[0])
	}
	header := t.ColumnAliases
	if len(header) != width {
		header = make([]string, width)
		for i := range header {
			header[i] = "column" + strconv.Itoa(i+1)
		}
	}

	ctx := literalContext{now: e.Config.now()}
	rows := make([][]string, len(t.Values))
	for ri, nodes := range t.Values {
		row := make([]string, len(nodes))
		for ci := range nodes {
			v, err := expression.Evaluate(&nodes[ci], ctx)
			if err != nil {
				return nil, err
			}
			row[ci] = v
		}
		rows[ri] = row
	}
	return vfs.OpenValues(tableRefLabel(*t), header, rows), nil
}

func (c *catalog) openNamed(name string) (vfs.Table, error) {
	if existing, ok := c.byName[strings.ToUpper(name)]; ok {
		return existing, nil
	}
	return vfs.Open(vfs.OpenSpec{Name: name, Dir: c.dir, MemoryMapThreshold: c.mmap, ViewLoader: c.loader})
}

func (c *catalog) Table(tableID int) vfs.Table { return c.byID[tableID] }

// Columns implements parse's tableCatalog.
func (c *catalog) Columns(tableName string) ([]string, bool) {
	tbl, ok := c.byName[strings.ToUpper(tableName)]
	if !ok {
		return nil, false
	}
	cols := make([]string, tbl.FieldCount())
	for i := range cols {
		cols[i] = tbl.FieldName(i)
	}
	return cols, true
}

func (c *catalog) closeAll() {
	closed := make(map[vfs.Table]bool, len(c.byID))
	for _, t := range c.byID {
		if t == nil || closed[t] {
			continue
		}
		closed[t] = true
		_ = t.Close()
	}
	for _, tmp := range c.temps {
		_ = tmp.Cleanup()
	}
}

// execMutation dispatches INSERT/CREATE TABLE|VIEW|INDEX against
// already-planned q, per spec.md §4.4. Grounded on the CREATE TABLE/
// INSERT handling _examples/original_source/src/query/execute.c
// performs once its own SELECT step loop finishes.
func (e *Engine) execMutation(q *ast.Query, p *plan.Plan, cat *catalog) (int, error) {
	switch q.Kind {
	case ast.StatementInsert:
		return e.execInsert(q, p, cat)
	case ast.StatementCreateTable:
		return e.execCreateTableAs(q, p, cat)
	case ast.StatementCreateView:
		return e.execCreateView(q)
	case ast.StatementCreateIndex:
		return 0, e.execCreateIndex(q)
	}
	return 0, errors.Errorf("csvdb: unsupported statement kind %v", q.Kind)
}

// runRows executes p (already resolved against cat) and returns every
// row it produced, for the mutating statements that need the full
// result set materialized before writing it to storage.
func (e *Engine) runRows(p *plan.Plan, cat *catalog) ([][]string, error) {
	w := &collectWriter{}
	if err := rowexec.Execute(p, cat, w, e.Config.now()); err != nil {
		return nil, err
	}
	rows := make([][]string, len(w.rows))
	for i, r := range w.rows {
		rows[i] = []string(r)
	}
	return rows, nil
}

func (e *Engine) execInsert(q *ast.Query, p *plan.Plan, cat *catalog) (int, error) {
	rows, err := e.runRows(p, cat)
	if err != nil {
		return 0, err
	}
	target, err := vfs.Open(vfs.OpenSpec{Name: q.InsertTable, Dir: e.Config.dataDir(), MemoryMapThreshold: e.Config.MemoryMapThreshold, ViewLoader: e.loadView})
	if err != nil {
		return 0, errors.Wrapf(err, "opening insert target %q", q.InsertTable)
	}
	defer target.Close()

	if err := target.InsertFromQuery(rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (e *Engine) execCreateTableAs(q *ast.Query, p *plan.Plan, cat *catalog) (int, error) {
	rows, err := e.runRows(p, cat)
	if err != nil {
		return 0, err
	}
	path := e.Config.dataDir() + "/" + q.CreateTableName + ".csv"
	if err := writeCSVTable(path, columnLabels(q), rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// execCreateView persists the view's defining query text as
// `<name>.sql`, per spec.md §4.2's ".sql view (whose contents are a
// SELECT)". The view is not materialized now: vfs.Open re-runs this
// text (via Engine.loadView) each time a later statement references the
// view by name, so its rows always reflect the current state of the
// tables it queries.
func (e *Engine) execCreateView(q *ast.Query) (int, error) {
	if q.CreateViewSource == "" {
		return 0, errors.New("csvdb: CREATE VIEW has no defining query")
	}
	path := e.Config.dataDir() + "/" + q.CreateTableName + ".sql"
	if err := os.WriteFile(path, []byte(q.CreateViewSource+"\n"), 0o644); err != nil {
		return 0, errors.Wrapf(err, "writing view %q", q.CreateTableName)
	}
	return 0, nil
}

func writeCSVTable(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// indexEntry pairs one row's indexed-column value with its rowid, the
// unit execCreateIndex sorts and writes to the side-file.
type indexEntry struct {
	key   string
	rowid int
}

// firstDuplicateKey reports the first repeated key in entries, which
// must already be sorted by key (adjacent equal keys are the only ones
// that matter once sorted).
func firstDuplicateKey(entries []indexEntry) (string, bool) {
	for i := 1; i < len(entries); i++ {
		if entries[i].key == entries[i-1].key {
			return entries[i].key, true
		}
	}
	return "", false
}

// execCreateIndex builds the `<table>__<col>.unique.csv`/`.index.csv`
// side-file convention memTable.FindIndex recognizes: every row's
// indexed-column value paired with its rowid, sorted by that value, per
// spec.md §4.2/§4.3. Only a single indexed column is supported, matching
// CREATE INDEX's one-column form in spec.md's grammar. A CREATE UNIQUE
// INDEX whose column turns out to hold duplicate keys removes the
// side-file it just wrote and fails, per spec.md §7's UNIQUE
// constraint.
func (e *Engine) execCreateIndex(q *ast.Query) error {
	if len(q.CreateIndexCols) != 1 {
		return errors.New("csvdb: CREATE INDEX supports exactly one column")
	}
	target, err := vfs.Open(vfs.OpenSpec{Name: q.CreateIndexTable, Dir: e.Config.dataDir(), MemoryMapThreshold: e.Config.MemoryMapThreshold, ViewLoader: e.loadView})
	if err != nil {
		return errors.Wrapf(err, "opening index target %q", q.CreateIndexTable)
	}
	defer target.Close()

	col := target.FieldIndex(q.CreateIndexCols[0])
	if col == ast.ColumnUnknown {
		return errors.Errorf("csvdb: unknown column %q", q.CreateIndexCols[0])
	}

	n, err := target.RecordCount()
	if err != nil {
		return err
	}
	entries := make([]indexEntry, n)
	for i := 0; i < n; i++ {
		v, err := target.GetCell(i, col)
		if err != nil {
			return err
		}
		entries[i] = indexEntry{key: v, rowid: i}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return expression.Compare(ast.OperatorLt, entries[a].key, entries[b].key)
	})

	suffix := ".index.csv"
	if q.CreateUnique {
		suffix = ".unique.csv"
	}
	path := e.Config.dataDir() + "/" + q.CreateIndexTable + "__" + q.CreateIndexCols[0] + suffix
	rows := make([][]string, n)
	for i, ent := range entries {
		rows[i] = []string{ent.key, strconv.Itoa(ent.rowid)}
	}
	if err := writeCSVTable(path, []string{"key", "rowid"}, rows); err != nil {
		return err
	}

	if q.CreateUnique {
		if dupKey, dup := firstDuplicateKey(entries); dup {
			_ = os.Remove(path)
			return errors.Errorf("csvdb: CREATE UNIQUE INDEX: duplicate key %q in %s.%s", dupKey, q.CreateIndexTable, q.CreateIndexCols[0])
		}
	}
	return nil
}
