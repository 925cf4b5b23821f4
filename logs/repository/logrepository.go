package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/blutspende/logboard/db"
	"github.com/blutspende/logboard/logs/model"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type LogRepository interface {
	CreateLog(ctx context.Context, record model.LogRecord) (uuid.UUID, error)
	LoadLogs(ctx context.Context) ([]model.LogRecord, error)
	DeleteLog(ctx context.Context, id uuid.UUID) error
	DeleteLogs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type logRepository struct {
	db       db.DbConnector
	dbSchema string
}

type logDAO struct {
	ID            uuid.UUID           `db:"id"`
	UserID        string              `db:"user_id"`
	Application   string              `db:"application"`
	Logger        string              `db:"logger"`
	Timestamp     time.Time           `db:"timestamp"`
	Level         string              `db:"level"`
	OriginalLevel string              `db:"original_level"`
	Value         decimal.NullDecimal `db:"value"`
	Message       string              `db:"message"`
	Metadata      sql.NullString      `db:"metadata"`
	CreatedAt     time.Time           `db:"created_at"`
}

func NewLogRepository(db db.DbConnector, dbSchema string) LogRepository {
	return &logRepository{
		db:       db,
		dbSchema: dbSchema,
	}
}

// CreateLog stores the record under a newly generated id. Any id set on the record is ignored.
func (r *logRepository) CreateLog(ctx context.Context, record model.LogRecord) (uuid.UUID, error) {
	log.Trace().Str("application", record.Application).Msg("Saving log record")

	record.ID = uuid.New()
	dao, err := convertLogRecordToDAO(record)
	if err != nil {
		log.Error().Err(err).Msg(msgCreateLogFailed)
		return uuid.Nil, errors.Wrap(err, msgCreateLogFailed)
	}

	query := fmt.Sprintf(`INSERT INTO %s.lb_logs (id, user_id, application, logger, "timestamp", level, original_level, value, message, metadata)
		VALUES (:id, :user_id, :application, :logger, :timestamp, :level, :original_level, :value, :message, CAST(:metadata AS jsonb));`, r.dbSchema)
	_, err = r.db.NamedExecContext(ctx, query, dao)
	if err != nil {
		log.Error().Err(err).Msg(msgCreateLogFailed)
		return uuid.Nil, errors.Wrap(err, msgCreateLogFailed)
	}

	return record.ID, nil
}

// LoadLogs returns every record, newest timestamp first.
func (r *logRepository) LoadLogs(ctx context.Context) ([]model.LogRecord, error) {
	log.Trace().Msg("Loading log records")

	query := fmt.Sprintf(`SELECT id, user_id, application, logger, "timestamp", level, original_level, value, message, metadata, created_at
		FROM %s.lb_logs ORDER BY "timestamp" DESC, created_at DESC;`, r.dbSchema)
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		log.Error().Err(err).Msg(msgLoadLogsFailed)
		return nil, errors.Wrap(err, msgLoadLogsFailed)
	}
	defer rows.Close()

	records := make([]model.LogRecord, 0)
	for rows.Next() {
		var dao logDAO
		err = rows.StructScan(&dao)
		if err != nil {
			log.Error().Err(err).Msg(msgLoadLogsFailed)
			return nil, errors.Wrap(err, msgLoadLogsFailed)
		}
		record, err := convertDAOToLogRecord(dao)
		if err != nil {
			log.Error().Err(err).Str("id", dao.ID.String()).Msg(msgLoadLogsFailed)
			return nil, errors.Wrap(err, msgLoadLogsFailed)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		log.Error().Err(err).Msg(msgLoadLogsFailed)
		return nil, errors.Wrap(err, msgLoadLogsFailed)
	}

	return records, nil
}

// DeleteLog removes the record. Deleting an id that does not exist is not an error.
func (r *logRepository) DeleteLog(ctx context.Context, id uuid.UUID) error {
	log.Trace().Str("id", id.String()).Msg("Deleting log record")

	query := fmt.Sprintf(`DELETE FROM %s.lb_logs WHERE id = $1;`, r.dbSchema)
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error().Err(err).Msg(msgDeleteLogFailed)
		return errors.Wrap(err, msgDeleteLogFailed)
	}

	return nil
}

// DeleteLogs removes all records in one transaction: either every id is deleted or none is.
func (r *logRepository) DeleteLogs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	log.Trace().Int("count", len(ids)).Msg("Deleting log record batch")

	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.db.CreateTransactionConnector()
	if err != nil {
		log.Error().Err(err).Msg(msgDeleteLogsFailed)
		return 0, errors.Wrap(err, msgDeleteLogsFailed)
	}

	stringIDs := make([]string, len(ids))
	for i := range ids {
		stringIDs[i] = ids[i].String()
	}

	query := fmt.Sprintf(`DELETE FROM %s.lb_logs WHERE id = ANY(CAST($1 AS uuid[]));`, r.dbSchema)
	result, err := tx.ExecContext(ctx, query, pq.Array(stringIDs))
	if err != nil {
		_ = tx.Rollback()
		log.Error().Err(err).Msg(msgDeleteLogsFailed)
		return 0, errors.Wrap(err, msgDeleteLogsFailed)
	}

	if err = tx.Commit(); err != nil {
		_ = tx.Rollback()
		return 0, errors.Wrap(err, msgDeleteLogsFailed)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Warn().Err(err).Msg("Rows affected not available for log batch delete")
		return int64(len(ids)), nil
	}

	return affected, nil
}

func convertLogRecordToDAO(record model.LogRecord) (logDAO, error) {
	if !record.Level.IsValid() {
		return logDAO{}, errors.Wrapf(ErrNonCanonicalLevel, "level %q", record.Level)
	}
	dao := logDAO{
		ID:            record.ID,
		UserID:        record.UserID,
		Application:   record.Application,
		Logger:        record.Logger,
		Timestamp:     record.Timestamp.UTC(),
		Level:         string(record.Level),
		OriginalLevel: record.OriginalLevel,
		Value:         record.Value,
		Message:       record.Message,
	}
	if record.Metadata != nil {
		metadata, err := json.Marshal(record.Metadata)
		if err != nil {
			return logDAO{}, err
		}
		dao.Metadata = sql.NullString{String: string(metadata), Valid: true}
	}
	return dao, nil
}

func convertDAOToLogRecord(dao logDAO) (model.LogRecord, error) {
	if !model.LogLevel(dao.Level).IsValid() {
		return model.LogRecord{}, errors.Wrapf(ErrNonCanonicalLevel, "level %q of log %s", dao.Level, dao.ID)
	}
	record := model.LogRecord{
		ID:            dao.ID,
		UserID:        dao.UserID,
		Application:   dao.Application,
		Logger:        dao.Logger,
		Timestamp:     dao.Timestamp.UTC(),
		Level:         model.LogLevel(dao.Level),
		OriginalLevel: dao.OriginalLevel,
		Value:         dao.Value,
		Message:       dao.Message,
		CreatedAt:     dao.CreatedAt.UTC(),
	}
	if dao.Metadata.Valid {
		err := json.Unmarshal([]byte(dao.Metadata.String), &record.Metadata)
		if err != nil {
			return model.LogRecord{}, err
		}
	}
	return record, nil
}

var ErrNonCanonicalLevel = errors.New(msgNonCanonicalLevel)

const (
	msgNonCanonicalLevel = "log level is not canonical"
	msgCreateLogFailed   = "create log failed"
	msgLoadLogsFailed    = "load logs failed"
	msgDeleteLogFailed   = "delete log failed"
	msgDeleteLogsFailed  = "delete log batch failed"
)
