package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leighmacdonald/combatlog/internal/database/query"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
)

var (
	ErrSaveMatch   = errors.New("failed to save match")
	ErrQueryMatch  = errors.New("failed to query match events")
	ErrUnknownKind = errors.New("unknown event kind stored")
)

// EventType keys the ingestion events published on the broadcaster.
type EventType int

const (
	MatchIngested EventType = iota + 1
	MatchRejected
)

// IngestEvent is emitted once per ingestion attempt. Entries is empty and Err is set for rejected logs.
type IngestEvent struct {
	MatchID int64
	Stats   combatlog.Stats
	Entries []combatlog.Entry
	Err     error
}

// BuildFunc produces the entries of a match once the store has assigned its id.
type BuildFunc func(matchID int64) ([]combatlog.Entry, combatlog.Stats, error)

type Repository interface {
	// SaveMatch creates the match row, calls build with the new id and persists the resulting entries
	// and stats within a single transaction. Any error from build rolls the whole match back.
	SaveMatch(ctx context.Context, build BuildFunc) (int64, error)
	// Stats returns the build stats recorded for the match or database.ErrNoResult.
	Stats(ctx context.Context, matchID int64) (combatlog.Stats, error)
	// Events returns all events of a match in insertion order. UnknownKind matches every kind.
	Events(ctx context.Context, matchID int64, kind combatlog.Kind) ([]combatlog.Entry, error)
	// EventsByActor is Events restricted to a single actor.
	EventsByActor(ctx context.Context, matchID int64, actor string, kind combatlog.Kind) ([]combatlog.Entry, error)
	// Matches lists the stored matches without their events.
	Matches(ctx context.Context, filter query.Filter) ([]Info, error)
}

// Info is a stored match without its events.
type Info struct {
	MatchID   int64           `json:"match_id"`
	Stats     combatlog.Stats `json:"stats"`
	CreatedOn time.Time       `json:"created_on"`
}

// infoOrderColumns are the columns a match listing may be ordered by.
var infoOrderColumns = []string{"match_id", "lines", "events", "created_on"} //nolint:gochecknoglobals

// Summary is the overview of a single ingested match.
type Summary struct {
	MatchID int64                 `json:"match_id"`
	Stats   combatlog.Stats       `json:"stats"`
	Counts  map[string]int        `json:"counts"`
	Kills   []combatlog.HeroKills `json:"kills"`
}

var eventColumns = []string{ //nolint:gochecknoglobals
	"match_id", "kind", "actor", "target", "item", "ability", "ability_level", "damage", "timestamp_ms",
}

// eventRow is the flattened storage form shared by every event variant.
type eventRow struct {
	matchID      int64
	kind         string
	actor        string
	target       string
	item         string
	ability      string
	abilityLevel int
	damage       int64
	timestamp    int64
}

func newEventRow(entry combatlog.Entry) eventRow {
	row := eventRow{
		matchID:   entry.MatchID,
		kind:      entry.Kind().String(),
		actor:     entry.Actor(),
		timestamp: entry.Timestamp,
	}

	switch evt := entry.Event.(type) {
	case combatlog.HeroKilledEvt:
		row.target = evt.Target
	case combatlog.ItemPurchasedEvt:
		row.item = evt.Item
	case combatlog.SpellCastEvt:
		row.ability = evt.Ability
		row.abilityLevel = evt.Level
	case combatlog.DamageDealtEvt:
		row.target = evt.Target
		row.ability = evt.Ability
		row.damage = evt.Damage
	}

	return row
}

func (r eventRow) values() []any {
	return []any{r.matchID, r.kind, r.actor, r.target, r.item, r.ability, r.abilityLevel, r.damage, r.timestamp}
}

func (r eventRow) entry() (combatlog.Entry, error) {
	entry := combatlog.Entry{MatchID: r.matchID, Timestamp: r.timestamp}

	switch combatlog.ParseKind(r.kind) {
	case combatlog.HeroKilled:
		entry.Event = combatlog.HeroKilledEvt{Actor: r.actor, Target: r.target}
	case combatlog.ItemPurchased:
		entry.Event = combatlog.ItemPurchasedEvt{Actor: r.actor, Item: r.item}
	case combatlog.SpellCast:
		entry.Event = combatlog.SpellCastEvt{Actor: r.actor, Ability: r.ability, Level: r.abilityLevel}
	case combatlog.DamageDealt:
		entry.Event = combatlog.DamageDealtEvt{Actor: r.actor, Target: r.target, Ability: r.ability, Damage: r.damage}
	default:
		return entry, fmt.Errorf("%w: %s", ErrUnknownKind, r.kind)
	}

	return entry, nil
}

// rowScanner covers both pgx.Rows and *sql.Rows.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows rowScanner) ([]combatlog.Entry, error) {
	//goland:noinspection GoPreferNilSlice
	entries := []combatlog.Entry{}

	for rows.Next() {
		var row eventRow
		if errScan := rows.Scan(&row.matchID, &row.kind, &row.actor, &row.target, &row.item, &row.ability,
			&row.abilityLevel, &row.damage, &row.timestamp); errScan != nil {
			return nil, errScan
		}

		entry, errEntry := row.entry()
		if errEntry != nil {
			return nil, errEntry
		}

		entries = append(entries, entry)
	}

	if errRows := rows.Err(); errRows != nil {
		return nil, errRows
	}

	return entries, nil
}
