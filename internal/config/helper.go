package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const defaultMaxLogSize = 32 << 20

// decodeDuration parses the string duration type (1s,1m,1h,etc.) into a real time.Duration type.
func decodeDuration() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, target reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}

		if target != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		value, _ := data.(string)

		duration, errDuration := time.ParseDuration(value)
		if errDuration != nil {
			return nil, errors.Join(errDuration, fmt.Errorf("%w: %s", ErrDecodeDuration, value))
		}

		return duration, nil
	}
}

func setDefaultConfigValues(reader *viper.Viper) {
	if home, errHomeDir := homedir.Dir(); errHomeDir == nil {
		reader.AddConfigPath(home)
	}

	reader.AddConfigPath(".")
	reader.SetConfigName("combatlog")
	reader.SetConfigType("yml")
	reader.SetEnvPrefix("combatlog")
	reader.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	reader.AutomaticEnv()

	keywords := combatlog.DefaultKeywords()

	defaultConfig := map[string]any{
		"general.mode":                    ReleaseMode,
		"general.external_url":            "http://combatlog.localhost",
		"http.host":                       "127.0.0.1",
		"http.port":                       8080,
		"http.max_log_size":               defaultMaxLogSize,
		"http.cors_origins":               []string{},
		"http.client_timeout":             "10s",
		"database.driver":                 database.SQLite,
		"database.dsn":                    "combatlog.db",
		"database.auto_migrate":           true,
		"database.log_queries":            false,
		"parser.workers":                  0,
		"parser.dedup":                    combatlog.DedupNone,
		"parser.min_timestamp_digits":     2,
		"parser.keywords.delimiter":       keywords.Delimiter,
		"parser.keywords.kill":            keywords.Kill,
		"parser.keywords.buy":             keywords.Buy,
		"parser.keywords.cast":            keywords.Cast,
		"parser.keywords.hit":             keywords.Hit,
		"parser.keywords.kill_phrase":     keywords.KillPhrase,
		"parser.keywords.cast_phrase":     keywords.CastPhrase,
		"parser.keywords.item_marker":     keywords.ItemMarker,
		"parser.keywords.ability_marker":  keywords.AbilityMarker,
		"parser.keywords.level_marker":    keywords.LevelMarker,
		"parser.keywords.with_marker":     keywords.WithMarker,
		"parser.keywords.for_marker":      keywords.ForMarker,
		"parser.keywords.hero_prefix":     keywords.HeroPrefix,
		"parser.keywords.item_prefix":     keywords.ItemPrefix,
		"parser.keywords.non_hero_marker": keywords.NonHeroMarker,
		"logging.level":                   "info",
		"logging.file":                    "",
		"logging.http_enabled":            false,
		"logging.http_level":              "error",
		"logging.sentry_dsn":              "",
		"metrics.prometheus_enabled":      true,
		"metrics.pprof_enabled":           false,
	}

	for configKey, value := range defaultConfig {
		reader.SetDefault(configKey, value)
	}
}
