package match

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/database/query"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
)

// sqlite limits the number of bound variables per statement.
const sqliteInsertBatch = 500

type SQLiteRepository struct {
	db *database.SQLiteStore
}

func NewSQLiteRepository(db *database.SQLiteStore) SQLiteRepository {
	return SQLiteRepository{db: db}
}

func (r SQLiteRepository) SaveMatch(ctx context.Context, build BuildFunc) (int64, error) {
	var matchID int64

	errTx := r.db.WrapTx(ctx, func(tx *sql.Tx) error {
		result, errInsert := r.db.Builder().
			Insert(matchTable).
			Columns("lines").
			Values(0).
			RunWith(tx).
			ExecContext(ctx)
		if errInsert != nil {
			return database.DBErr(errInsert)
		}

		lastID, errLastID := result.LastInsertId()
		if errLastID != nil {
			return database.DBErr(errLastID)
		}

		matchID = lastID

		entries, stats, errBuild := build(matchID)
		if errBuild != nil {
			return errBuild
		}

		for start := 0; start < len(entries); start += sqliteInsertBatch {
			end := min(start+sqliteInsertBatch, len(entries))

			insert := r.db.Builder().Insert(eventTable).Columns(eventColumns...)
			for _, entry := range entries[start:end] {
				insert = insert.Values(newEventRow(entry).values()...)
			}

			if _, errExec := insert.RunWith(tx).ExecContext(ctx); errExec != nil {
				return database.DBErr(errExec)
			}
		}

		if _, errExec := statsUpdate(r.db.Builder(), matchID, stats).RunWith(tx).ExecContext(ctx); errExec != nil {
			return database.DBErr(errExec)
		}

		return nil
	})
	if errTx != nil {
		return 0, errors.Join(errTx, ErrSaveMatch)
	}

	return matchID, nil
}

func (r SQLiteRepository) Stats(ctx context.Context, matchID int64) (combatlog.Stats, error) {
	var stats combatlog.Stats

	query, args, errQuery := statsSelect(r.db.Builder(), matchID).ToSql()
	if errQuery != nil {
		return stats, errors.Join(errQuery, database.ErrCreateQuery)
	}

	if errScan := r.db.DB().QueryRowContext(ctx, query, args...).
		Scan(&stats.Lines, &stats.Events, &stats.Ignored, &stats.Malformed, &stats.Duplicates); errScan != nil {
		return stats, database.DBErr(errScan)
	}

	return stats, nil
}

func (r SQLiteRepository) Events(ctx context.Context, matchID int64, kind combatlog.Kind) ([]combatlog.Entry, error) {
	return r.query(ctx, eventsSelect(r.db.Builder(), matchID, "", kind))
}

func (r SQLiteRepository) EventsByActor(ctx context.Context, matchID int64, actor string, kind combatlog.Kind) ([]combatlog.Entry, error) {
	return r.query(ctx, eventsSelect(r.db.Builder(), matchID, actor, kind))
}

// Matches lists the stored matches. created_on is stored as unix seconds.
func (r SQLiteRepository) Matches(ctx context.Context, filter query.Filter) ([]Info, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, matchesSelect(r.db.Builder(), filter))
	if errQuery != nil {
		return nil, errors.Join(database.DBErr(errQuery), ErrQueryMatch)
	}

	defer func() {
		_ = rows.Close()
	}()

	//goland:noinspection GoPreferNilSlice
	infos := []Info{}

	for rows.Next() {
		var (
			info      Info
			createdOn int64
		)

		if errScan := rows.Scan(&info.MatchID, &info.Stats.Lines, &info.Stats.Events, &info.Stats.Ignored,
			&info.Stats.Malformed, &info.Stats.Duplicates, &createdOn); errScan != nil {
			return nil, errors.Join(database.DBErr(errScan), ErrQueryMatch)
		}

		info.CreatedOn = time.Unix(createdOn, 0)
		infos = append(infos, info)
	}

	if errRows := rows.Err(); errRows != nil {
		return nil, errors.Join(database.DBErr(errRows), ErrQueryMatch)
	}

	return infos, nil
}

func (r SQLiteRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]combatlog.Entry, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, builder)
	if errQuery != nil {
		return nil, errors.Join(database.DBErr(errQuery), ErrQueryMatch)
	}

	defer func() {
		_ = rows.Close()
	}()

	entries, errScan := scanEvents(rows)
	if errScan != nil {
		return nil, errors.Join(database.DBErr(errScan), ErrQueryMatch)
	}

	return entries, nil
}
