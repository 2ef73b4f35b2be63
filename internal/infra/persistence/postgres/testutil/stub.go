// Package testutil provides a stub database/sql driver for postgres store
// tests. It understands just enough SQL for the leafsamples table: DDL is
// recorded, upserts keyed on the first column, single-column deletes and
// column-projected selects.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync/atomic"
)

var (
	insertRe = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+(\w+)\s*\(([^)]*)\)`)
	deleteRe = regexp.MustCompile(`(?is)^\s*DELETE\s+FROM\s+(\w+)\s+WHERE\s+(\w+)\s*=`)
	selectRe = regexp.MustCompile(`(?is)^\s*SELECT\s+(.+?)\s+FROM\s+(\w+)`)

	errUnsupported = errors.New("stub driver: unsupported call")
	driverSeq      atomic.Int64
)

// StubConn records statements and keeps rows per table in insertion order.
type StubConn struct {
	Execs      []string
	Tables     map[string][]map[string]any
	FailPing   bool
	FailExec   bool
	FailQuery  bool
	FailInsert bool
	// BeforeExec, when set, runs ahead of every statement and may fail it.
	BeforeExec func(query string) error
}

// NewStubDB registers a fresh driver and returns a sql.DB bound to it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Tables: make(map[string][]map[string]any)}
	name := fmt.Sprintf("greenleaf-stubpg-%d", driverSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct{ conn *StubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare implements driver.Conn; only the context fast paths are supported.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, errUnsupported }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, errUnsupported }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return errors.New("stub driver: ping failed")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.BeforeExec != nil {
		if err := c.BeforeExec(query); err != nil {
			return nil, err
		}
	}
	if c.FailExec {
		return nil, errors.New("stub driver: exec failed")
	}
	if m := insertRe.FindStringSubmatch(query); m != nil {
		if c.FailInsert {
			return nil, errors.New("stub driver: insert failed")
		}
		return c.upsert(strings.ToLower(m[1]), columns(m[2]), args, strings.Contains(strings.ToUpper(query), "ON CONFLICT"))
	}
	if m := deleteRe.FindStringSubmatch(query); m != nil {
		if len(args) == 0 {
			return nil, fmt.Errorf("stub driver: delete from %s without args", m[1])
		}
		return c.remove(strings.ToLower(m[1]), strings.ToLower(m[2]), args[0].Value), nil
	}
	return driver.RowsAffected(0), nil
}

func (c *StubConn) upsert(table string, cols []string, args []driver.NamedValue, onConflict bool) (driver.Result, error) {
	if len(cols) != len(args) {
		return nil, fmt.Errorf("stub driver: %d columns but %d args for %s", len(cols), len(args), table)
	}
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = args[i].Value
	}
	if onConflict {
		key := cols[0]
		for i, existing := range c.Tables[table] {
			if existing[key] == row[key] {
				c.Tables[table][i] = row
				return driver.RowsAffected(1), nil
			}
		}
	}
	c.Tables[table] = append(c.Tables[table], row)
	return driver.RowsAffected(1), nil
}

func (c *StubConn) remove(table, col string, value any) driver.Result {
	rows := c.Tables[table]
	kept := rows[:0]
	for _, row := range rows {
		if row[col] != value {
			kept = append(kept, row)
		}
	}
	removed := len(rows) - len(kept)
	c.Tables[table] = kept
	return driver.RowsAffected(removed)
}

// QueryContext implements driver.QueryerContext. WHERE and ORDER BY clauses
// are ignored.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if c.FailQuery {
		return nil, errors.New("stub driver: query failed")
	}
	m := selectRe.FindStringSubmatch(query)
	if m == nil {
		return nil, fmt.Errorf("stub driver: cannot parse query %q", query)
	}
	cols := columns(m[1])
	out := &stubRows{cols: cols}
	for _, row := range c.Tables[strings.ToLower(m[2])] {
		vals := make([]driver.Value, len(cols))
		for i, col := range cols {
			vals[i] = row[col]
		}
		out.rows = append(out.rows, vals)
	}
	return out, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if len(r.rows) == 0 {
		return io.EOF
	}
	copy(dest, r.rows[0])
	r.rows = r.rows[1:]
	return nil
}

func columns(list string) []string {
	fields := strings.Split(list, ",")
	for i, f := range fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return fields
}
