package match

import (
	"context"
	"log/slog"

	"github.com/leighmacdonald/combatlog/internal/database/query"
	"github.com/leighmacdonald/combatlog/pkg/broadcaster"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
)

type Matches struct {
	repository  Repository
	parser      *combatlog.Parser
	broadcaster *broadcaster.Broadcaster[EventType, IngestEvent]
}

// NewMatches creates the match use case. The broadcaster is optional.
func NewMatches(repository Repository, parser *combatlog.Parser, events *broadcaster.Broadcaster[EventType, IngestEvent]) Matches {
	return Matches{repository: repository, parser: parser, broadcaster: events}
}

// Ingest parses a raw combat log and stores its events under a newly generated match id. Logs without any
// usable line are rejected with combatlog.ErrEmptyLog before the store is touched.
func (m Matches) Ingest(ctx context.Context, raw string) (int64, error) {
	lines := m.parser.Split(raw)
	if len(lines) == 0 {
		m.emit(MatchRejected, IngestEvent{Err: combatlog.ErrEmptyLog})

		return 0, combatlog.ErrEmptyLog
	}

	var (
		entries []combatlog.Entry
		stats   combatlog.Stats
	)

	matchID, errSave := m.repository.SaveMatch(ctx, func(matchID int64) ([]combatlog.Entry, combatlog.Stats, error) {
		var errBuild error

		entries, stats, errBuild = m.parser.Build(lines, matchID)

		return entries, stats, errBuild
	})
	if errSave != nil {
		m.emit(MatchRejected, IngestEvent{Err: errSave})

		return 0, errSave
	}

	if stats.Malformed > 0 {
		slog.Debug("Skipped malformed combat log lines", slog.Int64("match_id", matchID), slog.Int("count", stats.Malformed))
	}

	slog.Info("Ingested combat log", slog.Int64("match_id", matchID),
		slog.Int("lines", stats.Lines), slog.Int("events", stats.Events))

	m.emit(MatchIngested, IngestEvent{MatchID: matchID, Stats: stats, Entries: entries})

	return matchID, nil
}

func (m Matches) emit(eventType EventType, event IngestEvent) {
	if m.broadcaster == nil {
		return
	}

	m.broadcaster.Emit(eventType, event)
}

// HeroKills returns the number of heroes killed by each hero of the match.
func (m Matches) HeroKills(ctx context.Context, matchID int64) ([]combatlog.HeroKills, error) {
	entries, errEvents := m.repository.Events(ctx, matchID, combatlog.HeroKilled)
	if errEvents != nil {
		return nil, errEvents
	}

	return combatlog.KillTally(entries), nil
}

// HeroItems returns the items purchased by hero in the order they were bought.
func (m Matches) HeroItems(ctx context.Context, matchID int64, hero string) ([]combatlog.HeroItem, error) {
	entries, errEvents := m.heroEvents(ctx, matchID, hero, combatlog.ItemPurchased)
	if errEvents != nil {
		return nil, errEvents
	}

	return combatlog.ItemTimeline(entries), nil
}

// HeroSpells returns the cast count of each ability used by hero.
func (m Matches) HeroSpells(ctx context.Context, matchID int64, hero string) ([]combatlog.HeroSpells, error) {
	entries, errEvents := m.heroEvents(ctx, matchID, hero, combatlog.SpellCast)
	if errEvents != nil {
		return nil, errEvents
	}

	return combatlog.SpellTally(entries), nil
}

// HeroDamage returns the damage instances and total damage dealt by hero to each target.
func (m Matches) HeroDamage(ctx context.Context, matchID int64, hero string) ([]combatlog.HeroDamage, error) {
	entries, errEvents := m.heroEvents(ctx, matchID, hero, combatlog.DamageDealt)
	if errEvents != nil {
		return nil, errEvents
	}

	return combatlog.DamageTally(entries), nil
}

func (m Matches) heroEvents(ctx context.Context, matchID int64, hero string, kind combatlog.Kind) ([]combatlog.Entry, error) {
	hero = m.parser.Normalize(hero)
	if hero == "" {
		return []combatlog.Entry{}, nil
	}

	return m.repository.EventsByActor(ctx, matchID, hero, kind)
}

// Summary returns the recorded build stats, per kind event counts and the kill tally of a match.
func (m Matches) Summary(ctx context.Context, matchID int64) (Summary, error) {
	stats, errStats := m.repository.Stats(ctx, matchID)
	if errStats != nil {
		return Summary{}, errStats
	}

	entries, errEvents := m.repository.Events(ctx, matchID, combatlog.UnknownKind)
	if errEvents != nil {
		return Summary{}, errEvents
	}

	summary := Summary{
		MatchID: matchID,
		Stats:   stats,
		Counts:  map[string]int{},
		Kills:   combatlog.KillTally(entries),
	}

	for _, kind := range combatlog.Kinds() {
		summary.Counts[kind.String()] = 0
	}

	for _, entry := range entries {
		summary.Counts[entry.Kind().String()]++
	}

	return summary, nil
}

// Matches lists the stored matches ordered and paged by filter.
func (m Matches) Matches(ctx context.Context, filter query.Filter) ([]Info, error) {
	return m.repository.Matches(ctx, filter)
}
