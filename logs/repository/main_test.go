package repository

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/blutspende/logboard/db"
	"github.com/blutspende/logboard/migrator"
	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	// Need this import for sqlx
	_ "github.com/lib/pq"
)

const testConnectionString = "host=localhost port=5552 user=postgres password=postgres dbname=postgres sslmode=disable"

func TestMain(m *testing.M) {
	postgres := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().Port(5552))
	err := postgres.Start()
	if err != nil {
		log.Error().Err(err).Msg("starting embedded postgres failed")
	}

	configureLogger()

	code := m.Run()

	err = postgres.Stop()
	if err != nil {
		log.Error().Err(err).Msg("stopping embedded postgres failed")
	}

	os.Exit(code)
}

func configureLogger() {
	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.TimeFormat = "2006-01-02T15:04:05Z07:00"
	log.Logger = zerolog.New(consoleWriter).With().Caller().Stack().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func setupDbConnectorAndRunMigration(t *testing.T, schemaName string) (db.DbConnector, *sqlx.DB) {
	sqlConn, err := sqlx.Connect("postgres", testConnectionString)
	if err != nil {
		t.Fatalf("connecting to embedded postgres failed: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlConn.Close()
	})

	_, _ = sqlConn.Exec(fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE;`, schemaName))
	_, _ = sqlConn.Exec(fmt.Sprintf(`CREATE SCHEMA %s;`, schemaName))

	err = migrator.NewLogboardMigrator().Run(context.Background(), sqlConn, schemaName)
	if err != nil {
		t.Fatalf("running migrations failed: %v", err)
	}

	return db.CreateDbConnector(sqlConn), sqlConn
}
