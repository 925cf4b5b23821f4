package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// in order! do not skip any number
var migrations = []string{
	migration_1,
	migration_2,
}

type logboardMigrator struct {
}

type LogboardMigrator interface {
	Run(ctx context.Context, db *sqlx.DB, schemaName string) error
}

func (m *logboardMigrator) Run(ctx context.Context, db *sqlx.DB, schemaName string) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	err = m.createMigrationsTableIfNotExists(ctx, tx, schemaName)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	currentVersion, err := m.getLastAppliedMigrationVersion(ctx, tx, schemaName)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for i, query := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}
		query = strings.ReplaceAll(query, "<SCHEMA_PLACEHOLDER>", schemaName)
		_, err = tx.ExecContext(ctx, query)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		err = m.insertMigration(ctx, tx, schemaName, version)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		log.Info().Int("version", version).Str("schema", schemaName).Msg("Applied migration")
	}
	err = tx.Commit()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return nil
}

func (m *logboardMigrator) createMigrationsTableIfNotExists(ctx context.Context, tx *sqlx.Tx, schemaName string) error {
	query := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s;
	CREATE TABLE IF NOT EXISTS %s.lb_migrations(
		"version" int NOT NULL,
		applied_at timestamp NOT NULL DEFAULT now(),
		description varchar NOT NULL DEFAULT '',
		CONSTRAINT lb_pk_migrations PRIMARY KEY (version)
	);`, schemaName, schemaName)
	_, err := tx.ExecContext(ctx, query)
	if err != nil {
		return err
	}
	return nil
}

func (m *logboardMigrator) insertMigration(ctx context.Context, tx *sqlx.Tx, schemaName string, version int) error {
	query := fmt.Sprintf(`INSERT INTO %s.lb_migrations(version)VALUES($1);`, schemaName)
	_, err := tx.ExecContext(ctx, query, version)
	if err != nil {
		return err
	}
	return nil
}

func (m *logboardMigrator) getLastAppliedMigrationVersion(ctx context.Context, tx *sqlx.Tx, schemaName string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(version),0) FROM %s.lb_migrations;`, schemaName)
	row := tx.QueryRowxContext(ctx, query)
	if row != nil && row.Err() != nil {
		if row.Err() == sql.ErrNoRows {
			return 0, nil
		}
		return -1, row.Err()
	}
	version := 0
	err := row.Scan(&version)
	return version, err
}

func NewLogboardMigrator() LogboardMigrator {
	return &logboardMigrator{}
}
