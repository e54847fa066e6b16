package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/leighmacdonald/combatlog/internal/config"
	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/httphelper"
	"github.com/leighmacdonald/combatlog/internal/log"
	"github.com/leighmacdonald/combatlog/internal/match"
	"github.com/leighmacdonald/combatlog/internal/metrics"
	"github.com/leighmacdonald/combatlog/pkg/broadcaster"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
	SentryDSN    = ""       //nolint:gochecknoglobals
)

// CombatLog owns the long-lived resources shared by the commands.
type CombatLog struct {
	config      config.Config
	database    database.Database
	sqlite      *database.SQLiteStore
	matches     match.Matches
	metrics     metrics.Metrics
	broadcaster *broadcaster.Broadcaster[match.EventType, match.IngestEvent]
	sentry      *sentry.Client
	logCloser   func()
}

func NewCombatLog() (*CombatLog, error) {
	conf, errConfig := config.Read(cfgFile)
	if errConfig != nil {
		slog.Error("Failed to read config", log.ErrAttr(errConfig))

		return nil, errConfig
	}

	return &CombatLog{
		config:      conf,
		broadcaster: broadcaster.New[match.EventType, match.IngestEvent](),
	}, nil
}

// Init sets up logging and opens the configured store.
func (g *CombatLog) Init(ctx context.Context) error {
	// This is normally set by build time flags, but can be overwritten by the config or env var.
	if g.config.Log.SentryDSN != "" {
		SentryDSN = g.config.Log.SentryDSN
	} else if value, found := os.LookupEnv("SENTRY_DSN"); found && value != "" {
		SentryDSN = value
	}

	g.setupSentry()

	g.logCloser = log.MustCreateLogger(ctx, g.config.Log.File, g.config.Log.Level, SentryDSN != "", BuildVersion)

	slog.Info("Starting combatlog...",
		slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit),
		slog.String("date", BuildDate))

	repository, errRepo := g.openRepository(ctx)
	if errRepo != nil {
		slog.Error("Cannot initialize database", log.ErrAttr(errRepo))

		return errRepo
	}

	g.matches = match.NewMatches(repository, g.config.NewParser(), g.broadcaster)

	return nil
}

func (g *CombatLog) openRepository(ctx context.Context) (match.Repository, error) { //nolint:ireturn
	dbConf := g.config.Database

	switch dbConf.Driver {
	case database.Postgres:
		dbConn := database.New(dbConf.DSN, dbConf.AutoMigrate, dbConf.LogQueries)
		if errConnect := dbConn.Connect(ctx); errConnect != nil {
			return nil, errConnect
		}

		g.database = dbConn

		return match.NewPostgresRepository(dbConn), nil
	case database.SQLite:
		store, errStore := database.NewSQLite(ctx, dbConf.DSN, dbConf.AutoMigrate)
		if errStore != nil {
			return nil, errStore
		}

		g.sqlite = store

		return match.NewSQLiteRepository(store), nil
	default:
		return nil, database.ErrDriver
	}
}

// Migrate runs the schema migration against the configured store without opening a pool.
func (g *CombatLog) Migrate(ctx context.Context, action database.MigrationAction) error {
	dbConf := g.config.Database

	switch dbConf.Driver {
	case database.Postgres:
		return database.New(dbConf.DSN, false, dbConf.LogQueries).Migrate(ctx, action)
	case database.SQLite:
		store, errStore := database.NewSQLite(ctx, dbConf.DSN, false)
		if errStore != nil {
			return errStore
		}

		defer log.Closer(store)

		return store.Migrate(ctx, action)
	default:
		return database.ErrDriver
	}
}

func (g *CombatLog) setupSentry() {
	if SentryDSN == "" {
		slog.Debug("Sentry.io support is disabled. To enable at runtime, set SENTRY_DSN.")

		return
	}

	sentryClient, err := log.NewSentryClient(SentryDSN, true, 0.25, BuildVersion, g.config.General.Mode.String())
	if err != nil {
		slog.Error("Failed to setup sentry client", log.ErrAttr(err))

		return
	}

	slog.Info("Sentry.io support is enabled.")
	g.sentry = sentryClient
}

func (g *CombatLog) StartBackground(ctx context.Context) {
	if g.config.Metrics.PrometheusEnabled {
		g.metrics = metrics.New(prometheus.DefaultRegisterer, g.broadcaster)

		go g.metrics.Start(ctx)
	}
}

func (g *CombatLog) Serve(rootCtx context.Context) error {
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g.StartBackground(ctx)

	conf := g.config

	router := httphelper.CreateRouter(httphelper.RouterOpts{
		HTTPLogEnabled:    conf.Log.HTTPEnabled,
		LogLevel:          conf.Log.HTTPLevel,
		Mode:              conf.General.Mode.String(),
		SentryDSN:         SentryDSN,
		Version:           BuildVersion,
		PProfEnabled:      conf.Metrics.PProfEnabled,
		PrometheusEnabled: conf.Metrics.PrometheusEnabled,
		CORSOrigins:       conf.HTTP.CorsOrigins,
	})

	match.NewMatchHandler(router, g.matches, conf.HTTP.MaxLogSize)

	if conf.Metrics.PrometheusEnabled {
		metrics.NewHandler(router, prometheus.DefaultGatherer)
	}

	httpServer := httphelper.NewServer(conf.HTTP.Addr(), router)

	go func() {
		<-ctx.Done()

		slog.Info("Shutting down HTTP service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if errShutdown := httpServer.Shutdown(shutdownCtx); errShutdown != nil { //nolint:contextcheck
			slog.Error("Error shutting down http service", log.ErrAttr(errShutdown))
		}
	}()

	slog.Info("Starting HTTP server", slog.String("address", conf.HTTP.Addr()), slog.String("url", conf.General.ExternalURL))

	errServe := httpServer.ListenAndServe()
	if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		slog.Error("HTTP server returned error", log.ErrAttr(errServe))

		return errServe
	}

	<-ctx.Done()

	slog.Info("Exiting...")

	return nil
}

func (g *CombatLog) Close() {
	if g.database != nil {
		if errClose := g.database.Close(); errClose != nil {
			slog.Error("Failed to close database cleanly", log.ErrAttr(errClose))
		}
	}

	if g.sqlite != nil {
		log.Closer(g.sqlite)
	}

	if g.sentry != nil {
		g.sentry.Flush(2 * time.Second)
	}

	if g.logCloser != nil {
		g.logCloser()
	}
}
