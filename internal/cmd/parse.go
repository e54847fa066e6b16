package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/combatlog/internal/config"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// report holds the aggregations printed by the parse command. Hero scoped tables are only filled
// when a hero is requested.
type report struct {
	stats  combatlog.Stats
	kills  []combatlog.HeroKills
	items  []combatlog.HeroItem
	spells []combatlog.HeroSpells
	damage []combatlog.HeroDamage
}

func buildReport(parser *combatlog.Parser, raw string, hero string) (report, error) {
	entries, stats, errParse := parser.Parse(raw, 0)
	if errParse != nil {
		return report{}, errParse
	}

	result := report{stats: stats}

	var waitGroup errgroup.Group

	waitGroup.Go(func() error {
		result.kills = combatlog.KillTally(entries)

		return nil
	})

	if hero = parser.Normalize(hero); hero != "" {
		heroEntries := combatlog.ByActor(entries, hero)

		waitGroup.Go(func() error {
			result.items = combatlog.ItemTimeline(heroEntries)

			return nil
		})
		waitGroup.Go(func() error {
			result.spells = combatlog.SpellTally(heroEntries)

			return nil
		})
		waitGroup.Go(func() error {
			result.damage = combatlog.DamageTally(heroEntries)

			return nil
		})
	}

	return result, waitGroup.Wait()
}

func (r report) render(writer io.Writer, hero string) error {
	_, _ = fmt.Fprintf(writer, "Lines: %s Events: %s Ignored: %s Malformed: %s Duplicates: %s\n",
		humanize.Comma(int64(r.stats.Lines)), humanize.Comma(int64(r.stats.Events)),
		humanize.Comma(int64(r.stats.Ignored)), humanize.Comma(int64(r.stats.Malformed)),
		humanize.Comma(int64(r.stats.Duplicates)))

	kills := tablewriter.NewTable(writer)
	kills.Header("Hero", "Kills")

	for _, row := range r.kills {
		if err := kills.Append(row.Hero, strconv.Itoa(row.Kills)); err != nil {
			return err
		}
	}

	if err := kills.Render(); err != nil {
		return err
	}

	if hero == "" {
		return nil
	}

	items := tablewriter.NewTable(writer)
	items.Header("Item", "Timestamp (ms)")

	for _, row := range r.items {
		if err := items.Append(row.Item, humanize.Comma(row.Timestamp)); err != nil {
			return err
		}
	}

	if err := items.Render(); err != nil {
		return err
	}

	spells := tablewriter.NewTable(writer)
	spells.Header("Spell", "Casts")

	for _, row := range r.spells {
		if err := spells.Append(row.Spell, strconv.Itoa(row.Casts)); err != nil {
			return err
		}
	}

	if err := spells.Render(); err != nil {
		return err
	}

	damage := tablewriter.NewTable(writer)
	damage.Header("Target", "Instances", "Total")

	for _, row := range r.damage {
		if err := damage.Append(row.Target, strconv.Itoa(row.DamageInstances), humanize.Comma(row.TotalDamage)); err != nil {
			return err
		}
	}

	return damage.Render()
}

// parseCmd runs the parser without touching the store.
func parseCmd() *cobra.Command {
	var hero string

	command := &cobra.Command{
		Use:   "parse <path|url>",
		Short: "Parse a combat log offline and print the aggregated tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, errConfig := config.Read(cfgFile)
			if errConfig != nil {
				return errConfig
			}

			raw, errRead := readLog(cmd.Context(), args[0])
			if errRead != nil {
				return errRead
			}

			result, errReport := buildReport(conf.NewParser(), raw, hero)
			if errReport != nil {
				return errReport
			}

			return result.render(cmd.OutOrStdout(), hero)
		},
	}

	command.Flags().StringVar(&hero, "hero", "", "Also print the item, spell and damage tables of this hero")

	return command
}
