package match

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/database/query"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
)

const (
	matchTable = "combat_match"
	eventTable = "combat_event"
)

type PostgresRepository struct {
	db database.Database
}

func NewPostgresRepository(db database.Database) PostgresRepository {
	return PostgresRepository{db: db}
}

func (r PostgresRepository) SaveMatch(ctx context.Context, build BuildFunc) (int64, error) {
	var matchID int64

	errTx := r.db.WrapTx(ctx, func(tx pgx.Tx) error {
		insert := r.db.Builder().
			Insert(matchTable).
			Columns("lines").
			Values(0).
			Suffix("RETURNING match_id")

		if errInsert := r.db.ExecInsertBuilderWithReturnValue(ctx, tx, insert, &matchID); errInsert != nil {
			return errInsert
		}

		entries, stats, errBuild := build(matchID)
		if errBuild != nil {
			return errBuild
		}

		rows := make([][]any, len(entries))
		for idx, entry := range entries {
			rows[idx] = newEventRow(entry).values()
		}

		if _, errCopy := r.db.CopyFrom(ctx, tx, eventTable, eventColumns, rows); errCopy != nil {
			return errCopy
		}

		query, args, errQuery := statsUpdate(r.db.Builder(), matchID, stats).ToSql()
		if errQuery != nil {
			return errors.Join(errQuery, database.ErrCreateQuery)
		}

		if _, errExec := tx.Exec(ctx, query, args...); errExec != nil {
			return database.DBErr(errExec)
		}

		return nil
	})
	if errTx != nil {
		return 0, errors.Join(errTx, ErrSaveMatch)
	}

	return matchID, nil
}

func (r PostgresRepository) Stats(ctx context.Context, matchID int64) (combatlog.Stats, error) {
	var stats combatlog.Stats

	query, args, errQuery := statsSelect(r.db.Builder(), matchID).ToSql()
	if errQuery != nil {
		return stats, errors.Join(errQuery, database.ErrCreateQuery)
	}

	if errScan := r.db.QueryRow(ctx, query, args...).
		Scan(&stats.Lines, &stats.Events, &stats.Ignored, &stats.Malformed, &stats.Duplicates); errScan != nil {
		return stats, database.DBErr(errScan)
	}

	return stats, nil
}

func (r PostgresRepository) Events(ctx context.Context, matchID int64, kind combatlog.Kind) ([]combatlog.Entry, error) {
	return r.query(ctx, eventsSelect(r.db.Builder(), matchID, "", kind))
}

func (r PostgresRepository) EventsByActor(ctx context.Context, matchID int64, actor string, kind combatlog.Kind) ([]combatlog.Entry, error) {
	return r.query(ctx, eventsSelect(r.db.Builder(), matchID, actor, kind))
}

func (r PostgresRepository) Matches(ctx context.Context, filter query.Filter) ([]Info, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, matchesSelect(r.db.Builder(), filter))
	if errQuery != nil {
		return nil, errors.Join(database.DBErr(errQuery), ErrQueryMatch)
	}

	defer rows.Close()

	//goland:noinspection GoPreferNilSlice
	infos := []Info{}

	for rows.Next() {
		var info Info
		if errScan := rows.Scan(&info.MatchID, &info.Stats.Lines, &info.Stats.Events, &info.Stats.Ignored,
			&info.Stats.Malformed, &info.Stats.Duplicates, &info.CreatedOn); errScan != nil {
			return nil, errors.Join(database.DBErr(errScan), ErrQueryMatch)
		}

		infos = append(infos, info)
	}

	if errRows := rows.Err(); errRows != nil {
		return nil, errors.Join(database.DBErr(errRows), ErrQueryMatch)
	}

	return infos, nil
}

func (r PostgresRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]combatlog.Entry, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, builder)
	if errQuery != nil {
		return nil, errors.Join(database.DBErr(errQuery), ErrQueryMatch)
	}

	defer rows.Close()

	entries, errScan := scanEvents(rows)
	if errScan != nil {
		return nil, errors.Join(database.DBErr(errScan), ErrQueryMatch)
	}

	return entries, nil
}

// eventsSelect builds the shared event query. An empty actor or UnknownKind disables that filter.
func eventsSelect(builder sq.StatementBuilderType, matchID int64, actor string, kind combatlog.Kind) sq.SelectBuilder {
	filter := sq.And{sq.Eq{"match_id": matchID}}

	if kind != combatlog.UnknownKind {
		filter = append(filter, sq.Eq{"kind": kind.String()})
	}

	if actor != "" {
		filter = append(filter, sq.Eq{"actor": actor})
	}

	return builder.
		Select(eventColumns...).
		From(eventTable).
		Where(filter).
		OrderBy("combat_event_id")
}

func statsSelect(builder sq.StatementBuilderType, matchID int64) sq.SelectBuilder {
	return builder.
		Select("lines", "events", "ignored", "malformed", "duplicates").
		From(matchTable).
		Where(sq.Eq{"match_id": matchID})
}

func matchesSelect(builder sq.StatementBuilderType, filter query.Filter) sq.SelectBuilder {
	selectBuilder := builder.
		Select("match_id", "lines", "events", "ignored", "malformed", "duplicates", "created_on").
		From(matchTable)

	return filter.ApplyLimitOffsetDefault(filter.ApplySafeOrder(selectBuilder, infoOrderColumns, "match_id"))
}

func statsUpdate(builder sq.StatementBuilderType, matchID int64, stats combatlog.Stats) sq.UpdateBuilder {
	return builder.
		Update(matchTable).
		SetMap(map[string]any{
			"lines":      stats.Lines,
			"events":     stats.Events,
			"ignored":    stats.Ignored,
			"malformed":  stats.Malformed,
			"duplicates": stats.Duplicates,
		}).
		Where(sq.Eq{"match_id": matchID})
}
