package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/log"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	ErrReadConfig     = errors.New("failed to read config file")
	ErrFormatConfig   = errors.New("config file format invalid")
	ErrDecodeDuration = errors.New("failed to decode duration")
	ErrInvalidConfig  = errors.New("invalid config value")
)

type RunMode string

const (
	// ReleaseMode is production mode, minimal logging.
	ReleaseMode RunMode = "release"
	// DebugMode has much more logging.
	DebugMode RunMode = "debug"
	// TestMode is for unit tests.
	TestMode RunMode = "test"
)

func (rm RunMode) String() string {
	return string(rm)
}

type General struct {
	Mode        RunMode `mapstructure:"mode"`
	ExternalURL string  `mapstructure:"external_url"`
}

type HTTP struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// MaxLogSize is the largest accepted combat log upload in bytes.
	MaxLogSize    int64         `mapstructure:"max_log_size"`
	CorsOrigins   []string      `mapstructure:"cors_origins"`
	ClientTimeout time.Duration `mapstructure:"client_timeout"`
}

// Addr returns the address in host:port format.
func (h HTTP) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type Database struct {
	Driver      database.Driver `mapstructure:"driver"`
	DSN         string          `mapstructure:"dsn"`
	AutoMigrate bool            `mapstructure:"auto_migrate"`
	LogQueries  bool            `mapstructure:"log_queries"`
}

type Parser struct {
	combatlog.Options `mapstructure:",squash"`
	Keywords          combatlog.Keywords `mapstructure:"keywords"`
}

type Metrics struct {
	PrometheusEnabled bool `mapstructure:"prometheus_enabled"`
	PProfEnabled      bool `mapstructure:"pprof_enabled"`
}

type Config struct {
	General  General    `mapstructure:"general"`
	HTTP     HTTP       `mapstructure:"http"`
	Database Database   `mapstructure:"database"`
	Parser   Parser     `mapstructure:"parser"`
	Log      log.Config `mapstructure:"logging"`
	Metrics  Metrics    `mapstructure:"metrics"`
}

// Read loads the configuration from cfgFile, or from combatlog.yml in the working or home directory when
// cfgFile is empty. Environment variables prefixed with COMBATLOG_ override file values.
func Read(cfgFile string) (Config, error) {
	reader := viper.New()
	setDefaultConfigValues(reader)

	if cfgFile != "" {
		reader.SetConfigFile(cfgFile)
	}

	if errReadConfig := reader.ReadInConfig(); errReadConfig != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(errReadConfig, &notFound) {
			return Config{}, errors.Join(errReadConfig, ErrReadConfig)
		}

		slog.Debug("No config file found, using defaults")
	}

	var config Config
	if errUnmarshal := reader.Unmarshal(&config, viper.DecodeHook(mapstructure.DecodeHookFunc(decodeDuration()))); errUnmarshal != nil {
		return config, errors.Join(errUnmarshal, ErrFormatConfig)
	}

	if strings.HasPrefix(config.Database.DSN, "pgx://") {
		config.Database.DSN = strings.Replace(config.Database.DSN, "pgx://", "postgres://", 1)
	}

	if errValidate := config.Validate(); errValidate != nil {
		return config, errValidate
	}

	return config, nil
}

// Validate checks the values which have a closed set of options or must be positive.
func (c Config) Validate() error {
	if !slices.Contains([]database.Driver{database.Postgres, database.SQLite}, c.Database.Driver) {
		return fmt.Errorf("%w: database.driver %q", ErrInvalidConfig, c.Database.Driver)
	}

	if !slices.Contains([]combatlog.DedupMode{combatlog.DedupNone, combatlog.DedupLegacy}, c.Parser.Dedup) {
		return fmt.Errorf("%w: parser.dedup %q", ErrInvalidConfig, c.Parser.Dedup)
	}

	if c.HTTP.MaxLogSize <= 0 {
		return fmt.Errorf("%w: http.max_log_size must be positive", ErrInvalidConfig)
	}

	if c.Parser.Workers < 0 || c.Parser.MinTimestampDigits < 0 {
		return fmt.Errorf("%w: parser values cannot be negative", ErrInvalidConfig)
	}

	return nil
}

// NewParser creates a combat log parser using the configured keywords and options.
func (c Config) NewParser() *combatlog.Parser {
	return combatlog.New(c.Parser.Keywords, c.Parser.Options)
}
