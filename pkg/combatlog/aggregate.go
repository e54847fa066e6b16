package combatlog

import (
	"slices"

	"github.com/maruel/natural"
)

type HeroKills struct {
	Hero  string `json:"hero"`
	Kills int    `json:"kills"`
}

type HeroSpells struct {
	Spell string `json:"spell"`
	Casts int    `json:"casts"`
}

type HeroDamage struct {
	Target          string `json:"target"`
	DamageInstances int    `json:"damage_instances"`
	TotalDamage     int64  `json:"total_damage"`
}

type HeroItem struct {
	Item      string `json:"item"`
	Timestamp int64  `json:"timestamp"`
}

// ByActor returns the entries performed by actor, optionally restricted to the given kinds.
func ByActor(entries []Entry, actor string, kinds ...Kind) []Entry {
	results := []Entry{}

	for _, entry := range entries {
		if entry.Actor() != actor {
			continue
		}

		if len(kinds) > 0 && !slices.Contains(kinds, entry.Kind()) {
			continue
		}

		results = append(results, entry)
	}

	return results
}

// KillTally counts HeroKilled events per killer.
func KillTally(entries []Entry) []HeroKills {
	counts := map[string]int{}

	for _, entry := range entries {
		if evt, ok := entry.Event.(HeroKilledEvt); ok {
			counts[evt.Actor]++
		}
	}

	results := make([]HeroKills, 0, len(counts))
	for hero, kills := range counts {
		results = append(results, HeroKills{Hero: hero, Kills: kills})
	}

	slices.SortFunc(results, func(a, b HeroKills) int {
		return compareNatural(a.Hero, b.Hero)
	})

	return results
}

// SpellTally counts SpellCast events per ability.
func SpellTally(entries []Entry) []HeroSpells {
	counts := map[string]int{}

	for _, entry := range entries {
		if evt, ok := entry.Event.(SpellCastEvt); ok {
			counts[evt.Ability]++
		}
	}

	results := make([]HeroSpells, 0, len(counts))
	for spell, casts := range counts {
		results = append(results, HeroSpells{Spell: spell, Casts: casts})
	}

	slices.SortFunc(results, func(a, b HeroSpells) int {
		return compareNatural(a.Spell, b.Spell)
	})

	return results
}

// DamageTally sums DamageDealt events per target.
func DamageTally(entries []Entry) []HeroDamage {
	totals := map[string]*HeroDamage{}

	for _, entry := range entries {
		evt, ok := entry.Event.(DamageDealtEvt)
		if !ok {
			continue
		}

		row, found := totals[evt.Target]
		if !found {
			row = &HeroDamage{Target: evt.Target}
			totals[evt.Target] = row
		}

		row.DamageInstances++
		row.TotalDamage += evt.Damage
	}

	results := make([]HeroDamage, 0, len(totals))
	for _, row := range totals {
		results = append(results, *row)
	}

	slices.SortFunc(results, func(a, b HeroDamage) int {
		return compareNatural(a.Target, b.Target)
	})

	return results
}

// ItemTimeline lists every purchase ordered by time, then by item name.
func ItemTimeline(entries []Entry) []HeroItem {
	results := []HeroItem{}

	for _, entry := range entries {
		if evt, ok := entry.Event.(ItemPurchasedEvt); ok {
			results = append(results, HeroItem{Item: evt.Item, Timestamp: entry.Timestamp})
		}
	}

	slices.SortStableFunc(results, func(a, b HeroItem) int {
		if a.Timestamp != b.Timestamp {
			if a.Timestamp < b.Timestamp {
				return -1
			}

			return 1
		}

		return compareNatural(a.Item, b.Item)
	})

	return results
}

func compareNatural(a, b string) int {
	switch {
	case a == b:
		return 0
	case natural.Less(a, b):
		return -1
	default:
		return 1
	}
}
