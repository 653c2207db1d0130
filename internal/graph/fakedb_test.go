package graph

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// fakeDB records calls against the DB interface.
type fakeDB struct {
	mock.Mock
}

func (f *fakeDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := f.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (f *fakeDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := f.Called(ctx, sql, arguments)
	rows, _ := args.Get(0).(pgx.Rows)
	return rows, args.Error(1)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	return f.Called(ctx, sql, arguments).Get(0).(pgx.Row)
}

// tuple is a single result row. Columns are copied into the scan targets in
// order.
type tuple []any

func (t tuple) Scan(dest ...any) error {
	if len(dest) != len(t) {
		return fmt.Errorf("scan %d columns into %d targets", len(t), len(dest))
	}
	for i, d := range dest {
		switch d := d.(type) {
		case *string:
			*d = t[i].(string)
		case *[]byte:
			*d = t[i].([]byte)
		default:
			return fmt.Errorf("column %d: unsupported target %T", i, d)
		}
	}
	return nil
}

type failedRow struct{ err error }

func (r failedRow) Scan(...any) error { return r.err }

// tupleRows serves tuples in order. Only the methods the store uses are
// implemented; the embedded interface is nil.
type tupleRows struct {
	pgx.Rows
	tuples []tuple
	pos    int
	closed bool
}

func rowsOf(tuples ...tuple) *tupleRows { return &tupleRows{tuples: tuples} }

func (r *tupleRows) Next() bool {
	if r.pos >= len(r.tuples) {
		return false
	}
	r.pos++
	return true
}

func (r *tupleRows) Scan(dest ...any) error { return r.tuples[r.pos-1].Scan(dest...) }
func (r *tupleRows) Err() error             { return nil }
func (r *tupleRows) Close()                 { r.closed = true }
