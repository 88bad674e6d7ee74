package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Dialect captures the few SQL differences between the supported drivers.
// Queries are written with ? placeholders and passed through sqlx Rebind.
type Dialect struct {
	Name string
}

// DialectFor returns the dialect for a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
		return Dialect{Name: driver}, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// ForUpdate returns the row locking suffix. SQLite has no row locks; its
// writers are serialized by the single pooled connection.
func (d Dialect) ForUpdate() string {
	if d.Name == DriverSQLite {
		return ""
	}
	return " FOR UPDATE"
}

// InsertID executes an INSERT and returns the generated key. Postgres has no
// LastInsertId, so the statement gets a RETURNING clause there.
func InsertID(ctx context.Context, ext sqlx.ExtContext, idColumn, query string, args ...any) (uint64, error) {
	if ext.DriverName() == DriverPostgres {
		var id uint64
		row := ext.QueryRowxContext(ctx, ext.Rebind(query+" RETURNING "+idColumn), args...)
		if err := row.Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from any supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "23505"
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint &&
			(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	}
	return false
}
