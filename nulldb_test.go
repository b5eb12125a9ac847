package sqlspan_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
)

// nullDriver returns con on every Open call.
type nullDriver struct {
	con driver.Conn
}

func (d *nullDriver) Open(_ string) (driver.Conn, error) {
	return d.con, nil
}

// nullCon executes every statement successfully without returning data.
type nullCon struct{}

func (c *nullCon) Prepare(_ string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

func (c *nullCon) Close() error { return nil }

func (c *nullCon) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

func (c *nullCon) QueryContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Rows, error) {
	return &nullRows{}, nil
}

func (c *nullCon) ExecContext(_ context.Context, _ string, _ []driver.NamedValue) (driver.Result, error) {
	return driver.ResultNoRows, nil
}

type nullRows struct{}

func (r *nullRows) Columns() []string { return nil }

func (r *nullRows) Close() error { return nil }

func (r *nullRows) Next(_ []driver.Value) error { return io.EOF }
