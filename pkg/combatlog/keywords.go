package combatlog

// Keywords holds every literal marker the parser relies on. The zero value is not usable, start from
// DefaultKeywords and override individual markers when a log source differs.
type Keywords struct {
	// Delimiter separates records in a raw blob. Line breaks are always treated as delimiters as well.
	Delimiter string `mapstructure:"delimiter"`

	// Action keywords, used to filter records and dispatch them to a classifier.
	Kill string `mapstructure:"kill"`
	Buy  string `mapstructure:"buy"`
	Cast string `mapstructure:"cast"`
	Hit  string `mapstructure:"hit"`

	// Phrases and markers used to locate the tokens around an action.
	KillPhrase    string `mapstructure:"kill_phrase"`
	CastPhrase    string `mapstructure:"cast_phrase"`
	ItemMarker    string `mapstructure:"item_marker"`
	AbilityMarker string `mapstructure:"ability_marker"`
	LevelMarker   string `mapstructure:"level_marker"`
	WithMarker    string `mapstructure:"with_marker"`
	ForMarker     string `mapstructure:"for_marker"`

	// Namespace prefixes removed from entity names before classification.
	HeroPrefix string `mapstructure:"hero_prefix"`
	ItemPrefix string `mapstructure:"item_prefix"`

	// NonHeroMarker identifies creeps, neutrals and buildings. Kill records carrying it are dropped.
	NonHeroMarker string `mapstructure:"non_hero_marker"`
}

func DefaultKeywords() Keywords {
	return Keywords{
		Delimiter:     "~",
		Kill:          "killed",
		Buy:           "buys",
		Cast:          "casts",
		Hit:           "hits",
		KillPhrase:    "is killed by",
		CastPhrase:    "casts ability",
		ItemMarker:    "item",
		AbilityMarker: "ability",
		LevelMarker:   "lvl",
		WithMarker:    "with",
		ForMarker:     "for",
		HeroPrefix:    "npc_dota_hero_",
		ItemPrefix:    "item_",
		NonHeroMarker: "npc_dota_",
	}
}

// withDefaults fills any empty marker from DefaultKeywords.
func (k Keywords) withDefaults() Keywords {
	defaults := DefaultKeywords()

	for _, pair := range []struct {
		value    *string
		fallback string
	}{
		{&k.Delimiter, defaults.Delimiter},
		{&k.Kill, defaults.Kill},
		{&k.Buy, defaults.Buy},
		{&k.Cast, defaults.Cast},
		{&k.Hit, defaults.Hit},
		{&k.KillPhrase, defaults.KillPhrase},
		{&k.CastPhrase, defaults.CastPhrase},
		{&k.ItemMarker, defaults.ItemMarker},
		{&k.AbilityMarker, defaults.AbilityMarker},
		{&k.LevelMarker, defaults.LevelMarker},
		{&k.WithMarker, defaults.WithMarker},
		{&k.ForMarker, defaults.ForMarker},
		{&k.HeroPrefix, defaults.HeroPrefix},
		{&k.ItemPrefix, defaults.ItemPrefix},
		{&k.NonHeroMarker, defaults.NonHeroMarker},
	} {
		if *pair.value == "" {
			*pair.value = pair.fallback
		}
	}

	return k
}
