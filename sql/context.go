// Package sql holds the types shared across every layer of the query
// engine: the execution context, cell values, and the small set of
// sentinel errors that do not belong to any single component.
package sql

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NullValue is the textual representation of SQL NULL. The engine never
// uses a separate null sentinel type; an empty string stands for NULL
// everywhere a cell value is produced or compared, as spec'd by the
// original's "empty string is NULL" convention.
const NullValue = ""

// Context carries the request-scoped state threaded through every call
// that can block or fail: cancellation, a structured logger, and the
// writer EXPLAIN/--stats output should go to. It deliberately holds no
// mutable engine state (the row-list pool, catalogs, etc. are passed
// explicitly) per the "thread the pool as an explicit context" design
// note.
type Context struct {
	context.Context
	Log     *logrus.Entry
	Out     io.Writer
	Explain bool
}

// NewContext wraps ctx with a default logger writing to stderr and a
// default output writer of stdout.
func NewContext(ctx context.Context) *Context {
	logger := logrus.New()
	logger.Out = os.Stderr
	return &Context{
		Context: ctx,
		Log:     logger.WithField("component", "csvdb"),
		Out:     os.Stdout,
	}
}

// NewEmptyContext returns a Context suitable for tests: a background
// context with a logger discarding output.
func NewEmptyContext() *Context {
	logger := logrus.New()
	logger.Out = io.Discard
	return &Context{
		Context: context.Background(),
		Log:     logger.WithField("component", "csvdb"),
		Out:     io.Discard,
	}
}

// WithLogField returns a copy of the Context whose logger carries an
// additional field, e.g. the table or step currently executing.
func (c *Context) WithLogField(key string, value interface{}) *Context {
	cp := *c
	cp.Log = c.Log.WithField(key, value)
	return &cp
}
