package tests

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/docker/docker/api/types/container"
	"github.com/gin-gonic/gin"
	"github.com/leighmacdonald/combatlog/internal/database"
	"github.com/leighmacdonald/combatlog/internal/httphelper"
	"github.com/leighmacdonald/combatlog/internal/log"
	"github.com/leighmacdonald/combatlog/pkg/combatlog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var ErrContainer = errors.New("failed to bring up test container")

// Fixture holds an in-memory sqlite store shared by the tests of a package.
type Fixture struct {
	Store  *database.SQLiteStore
	Parser *combatlog.Parser
	Close  func()
}

func NewFixture() *Fixture {
	store, errStore := database.NewSQLite(context.Background(), database.MemoryDSN, true)
	if errStore != nil {
		panic(errStore)
	}

	return &Fixture{
		Store:  store,
		Parser: combatlog.New(combatlog.DefaultKeywords(), combatlog.Options{}),
		Close: func() {
			if errClose := store.Close(); errClose != nil {
				panic(fmt.Sprintf("Failed to close test store: %v", errClose))
			}
		},
	}
}

func (f Fixture) CreateRouter() *gin.Engine {
	return httphelper.CreateRouter(httphelper.RouterOpts{LogLevel: log.Error, Mode: gin.TestMode})
}

// Reset removes every match. Events are removed by the cascading foreign key.
func (f Fixture) Reset(ctx context.Context) {
	if _, err := f.Store.DB().ExecContext(ctx, "DELETE FROM combat_match"); err != nil {
		panic(err)
	}
}

// TestLog reads a file from the combatlog package testdata directory.
func TestLog(name string) string {
	_, file, _, _ := runtime.Caller(0)

	body, errRead := os.ReadFile(filepath.Join(filepath.Dir(file), "..", "..", "pkg", "combatlog", "testdata", name))
	if errRead != nil {
		panic(errRead)
	}

	return string(body)
}

// PostgresContainer is a throwaway postgres instance. When TEST_DB_DSN is set the existing database is used
// and no container is started.
type PostgresContainer struct {
	container testcontainers.Container
	DSN       string
}

func NewPostgres(ctx context.Context) (*PostgresContainer, error) {
	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		return &PostgresContainer{DSN: dsn}, nil
	}

	const testInfo = "combatlog-test"
	username, password, dbName := testInfo, testInfo, testInfo

	cont, errContainer := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			HostConfigModifier: func(config *container.HostConfig) {
				config.AutoRemove = false
			},
			Env: map[string]string{
				"POSTGRES_DB":       dbName,
				"POSTGRES_USER":     username,
				"POSTGRES_PASSWORD": password,
			},
			WaitingFor: wait.
				ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		},
		Started: true,
	})
	if errContainer != nil {
		return nil, errors.Join(errContainer, ErrContainer)
	}

	port, errPort := cont.MappedPort(ctx, "5432")
	if errPort != nil {
		return nil, errors.Join(errPort, cont.Terminate(ctx), ErrContainer)
	}

	host, errHost := cont.Host(ctx)
	if errHost != nil {
		return nil, errors.Join(errHost, cont.Terminate(ctx), ErrContainer)
	}

	return &PostgresContainer{
		container: cont,
		DSN:       fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", username, password, host, port.Port(), dbName),
	}, nil
}

func (c *PostgresContainer) Terminate(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	return c.container.Terminate(ctx) //nolint:wrapcheck
}
