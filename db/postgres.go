package db

import (
	"context"
	"fmt"

	"github.com/blutspende/logboard/config"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	// registers the "pgx" driver for sqlx
	_ "github.com/jackc/pgx/v4/stdlib"
)

type Postgres interface {
	Connect() error
	GetDbConnection() (*sqlx.DB, error)
	Close() error
}

type postgres struct {
	ctx    context.Context
	config *config.Configuration
	pgConn *sqlx.DB
}

func NewPostgres(ctx context.Context, config *config.Configuration) Postgres {
	return &postgres{
		ctx:    ctx,
		config: config,
		pgConn: nil,
	}
}

func (p *postgres) Connect() error {
	pgDB, err := sqlx.ConnectContext(p.ctx, "pgx", p.config.PostgresConnectionString())
	if err != nil {
		log.Error().Err(err).Msg(MsgConnectToPostgresFailed)
		return err
	}
	log.Info().Msgf("Postgres available, connected to %s / %s", p.config.PostgresDB.Host, p.config.PostgresDB.Database)
	p.pgConn = pgDB
	return nil
}

func (p *postgres) GetDbConnection() (*sqlx.DB, error) {
	if p.pgConn == nil {
		return nil, fmt.Errorf("postgres connection is not established")
	}
	return p.pgConn, nil
}

func (p *postgres) Close() error {
	if p.pgConn != nil {
		return p.pgConn.Close()
	}
	return nil
}
