//go:build integration

package testutils

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/yieldvault/ledger/infra"
	infrabus "github.com/yieldvault/ledger/infra/eventbus"
	"github.com/yieldvault/ledger/infra/lock"
	infrarepo "github.com/yieldvault/ledger/infra/repository"
	"github.com/yieldvault/ledger/pkg/app"
	"github.com/yieldvault/ledger/pkg/config"
	"github.com/yieldvault/ledger/pkg/domain/plan"
	"github.com/yieldvault/ledger/pkg/testutils"
	"github.com/yieldvault/ledger/pkg/utils"
	"github.com/yieldvault/ledger/webapi"
	"golang.org/x/crypto/bcrypt"
)

// E2ETestSuite runs the API against a real Postgres database migrated with
// the embedded SQL files.
type E2ETestSuite struct {
	suite.Suite
	API         *Harness
	pgContainer *tcpostgres.PostgresContainer
}

// startPostgresContainer starts a Postgres container using Testcontainers
func (s *E2ETestSuite) startPostgresContainer(ctx context.Context) (*tcpostgres.PostgresContainer, error) {
	return tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
}

func (s *E2ETestSuite) SetupSuite() {
	utils.PasswordCost = bcrypt.MinCost
	ctx := context.Background()

	pg, err := s.startPostgresContainer(ctx)
	s.Require().NoError(err)
	s.pgContainer = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := infra.NewDBConnection(&config.DB{Url: dsn}, "test")
	s.Require().NoError(err)
	s.Require().NoError(infra.MigrateUp(db))

	logger := testutils.QuietLogger()
	uow := infrarepo.NewUoW(db)
	bus := infrabus.NewWithMemory(logger)
	core := app.New(&app.Deps{
		Uow:      uow,
		EventBus: bus,
		Catalog:  plan.DefaultCatalog(),
		Lock:     lock.NewLocalLock(),
		Logger:   logger,
	}, Config())
	s.API = &Harness{T: s.T(), App: webapi.SetupApp(core), Core: core, Uow: uow, Bus: bus}
}

// SetupTest points the harness assertions at the running test.
func (s *E2ETestSuite) SetupTest() {
	s.API.T = s.T()
}

// TearDownSuite cleans up the test suite resources
func (s *E2ETestSuite) TearDownSuite() {
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(context.Background())
	}
}
