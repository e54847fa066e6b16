package database

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// MemoryDSN opens a private in-memory sqlite database.
const MemoryDSN = "file::memory:"

// SQLiteStore is the embedded single file store used for local imports and tests.
type SQLiteStore struct {
	db *sql.DB
	// Use ? for sqlite based queries.
	sb sq.StatementBuilderType
}

// NewSQLite opens the sqlite database at dsn and optionally migrates it to the latest schema.
func NewSQLite(ctx context.Context, dsn string, autoMigrate bool) (*SQLiteStore, error) {
	instance, errOpen := sql.Open("sqlite", dsn)
	if errOpen != nil {
		return nil, errors.Join(errOpen, ErrOpenDB)
	}

	// sqlite has a single writer and each pooled connection to an in-memory database would see its own
	// empty database.
	instance.SetMaxOpenConns(1)

	store := &SQLiteStore{
		db: instance,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}

	if _, errPragma := instance.ExecContext(ctx, "PRAGMA foreign_keys = ON"); errPragma != nil {
		return nil, errors.Join(errPragma, instance.Close(), ErrOpenDB)
	}

	if autoMigrate {
		if errMigrate := store.Migrate(ctx, MigrateUp); errMigrate != nil {
			return nil, errors.Join(errMigrate, instance.Close())
		}
	}

	return store, nil
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Builder() sq.StatementBuilderType {
	return s.sb
}

func (s *SQLiteStore) QueryBuilder(ctx context.Context, builder sq.SelectBuilder) (*sql.Rows, error) {
	query, args, errQuery := builder.ToSql()
	if errQuery != nil {
		return nil, errors.Join(errQuery, ErrCreateQuery)
	}

	return s.db.QueryContext(ctx, query, args...) //nolint:wrapcheck
}

func (s *SQLiteStore) WrapTx(ctx context.Context, txFunc func(*sql.Tx) error) error {
	transaction, errTx := s.db.BeginTx(ctx, nil)
	if errTx != nil {
		return DBErr(errTx)
	}

	if err := txFunc(transaction); err != nil {
		if errRollback := transaction.Rollback(); errRollback != nil {
			return errors.Join(err, DBErr(errRollback))
		}

		return err
	}

	if err := transaction.Commit(); err != nil {
		return DBErr(err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close() //nolint:wrapcheck
}
