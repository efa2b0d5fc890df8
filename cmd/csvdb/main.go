// Command csvdb is a thin CLI shell around package csvdb: read one or
// more `;`-separated statements, run them against a data directory of
// delimited text files, and render the results as CSV. Grounded on
// _examples/sqldef-sqldef's cmd/*/main.go use of go-flags, and on
// _examples/original_source/src/main.c's own flag surface
// (-E/--explain, -H/--headers, -F/--format, -o/--output, -f, --stats).
package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"

	"github.com/csvdb/csvdb"
)

type options struct {
	Explain bool   `short:"E" long:"explain" description:"show the query plan instead of running it"`
	Headers bool   `short:"H" long:"headers" description:"print a header row before each result set"`
	Format  string `short:"F" long:"format" default:"csv" description:"output format (csv is the only one implemented)"`
	Output  string `short:"o" long:"output" description:"write output to this file instead of stdout"`
	File    string `short:"f" long:"file" description:"read the statement(s) to run from this file"`
	Stats   bool   `long:"stats" description:"print per-phase timing to stderr after each statement"`
	DataDir string `short:"d" long:"data-dir" description:"directory FROM-clause table names resolve against (overrides CSVDB_DATA_DIR)"`

	Args struct {
		Query string `positional-arg-name:"query" description:"the SQL statement(s) to run, if not using -f"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}

	if opts.Format != "" && opts.Format != "csv" {
		fmt.Fprintf(os.Stderr, "csvdb: unsupported output format %q (only csv is implemented)\n", opts.Format)
		os.Exit(1)
	}

	src, err := readStatements(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "csvdb:", err)
		os.Exit(1)
	}

	out := os.Stdout
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			fmt.Fprintln(os.Stderr, "csvdb:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	e := csvdb.New(csvdb.Config{DataDir: opts.DataDir, Stats: opts.Stats})
	results, err := e.QueryMany(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "csvdb:", err)
		os.Exit(1)
	}

	for _, r := range results {
		if err := writeResult(out, opts, r); err != nil {
			fmt.Fprintln(os.Stderr, "csvdb:", err)
			os.Exit(1)
		}
		if opts.Stats && len(r.Stats) > 0 {
			fmt.Fprintln(os.Stderr, pp.Sprint(r.Stats))
		}
	}
}

func readStatements(opts options) (string, error) {
	if opts.File != "" {
		b, err := os.ReadFile(opts.File)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if opts.Args.Query != "" {
		return opts.Args.Query, nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// writeResult renders one Result as CSV: EXPLAIN output gets its own
// fixed column set (spec.md §6: "CSV with columns
// ID,Operation,Table,Predicate,Rows,Cost"); a mutating statement prints
// its affected row count; a SELECT prints its rows, with an optional
// header row.
func writeResult(out io.Writer, opts options, r *csvdb.Result) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if r.Explain != nil {
		if opts.Headers {
			if err := w.Write([]string{"ID", "Operation", "Table", "Predicate", "Rows", "Cost"}); err != nil {
				return err
			}
		}
		for _, row := range r.Explain {
			rec := []string{
				strconv.Itoa(row.ID),
				row.Operation,
				row.Table,
				row.Predicate,
				strconv.Itoa(row.Rows),
				strconv.FormatFloat(row.Cost, 'f', 2, 64),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return w.Error()
	}

	if r.Columns == nil && r.Rows == nil {
		fmt.Fprintf(out, "%d row(s) affected\n", r.RowsAffected)
		return nil
	}

	if opts.Headers {
		if err := w.Write(r.Columns); err != nil {
			return err
		}
	}
	for _, row := range r.Rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}
