package service

import (
	"context"
	"errors"
	"strings"

	"github.com/blutspende/logboard/logs/model"
	"github.com/blutspende/logboard/logs/repository"
	"github.com/blutspende/logboard/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type LogService interface {
	CreateLog(ctx context.Context, request model.CreateLogRequest) (uuid.UUID, error)
	DeleteLog(ctx context.Context, id string) error
	DeleteLogs(ctx context.Context, ids []string) (int, error)
}

type logService struct {
	repository        repository.LogRepository
	notifier          repository.ChangeNotifier
	bulkDeleteMaxSize int
}

func NewLogService(repository repository.LogRepository, notifier repository.ChangeNotifier, bulkDeleteMaxSize int) LogService {
	log.Trace().Msg("Creating new log service")
	return &logService{
		repository:        repository,
		notifier:          notifier,
		bulkDeleteMaxSize: bulkDeleteMaxSize,
	}
}

// CreateLog validates and normalizes the submission and persists it. Nothing is stored when
// validation fails.
func (s *logService) CreateLog(ctx context.Context, request model.CreateLogRequest) (uuid.UUID, error) {
	record, err := request.Validate()
	if err != nil {
		var validationError *model.ValidationError
		if errors.As(err, &validationError) {
			metrics.LogRejected(string(validationError.Category))
		}
		log.Debug().Err(err).Str("application", request.Application).Msg(msgLogRejected)
		return uuid.Nil, err
	}

	id, err := s.repository.CreateLog(ctx, record)
	if err != nil {
		metrics.LogRejected(string(model.CategoryStoreError))
		return uuid.Nil, model.NewStoreError("create log", err)
	}

	metrics.LogIngested(record.Level.String())
	s.notifyChange(ctx)

	return id, nil
}

// DeleteLog succeeds for ids that do not exist. An id that is not a store identifier cannot
// exist, so it succeeds without touching the store.
func (s *logService) DeleteLog(ctx context.Context, id string) error {
	logID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		log.Debug().Str("id", id).Msg(msgUnknownLogID)
		return nil
	}

	if err = s.repository.DeleteLog(ctx, logID); err != nil {
		return model.NewStoreError("delete log", err)
	}

	metrics.LogsDeleted(1)
	s.notifyChange(ctx)

	return nil
}

// DeleteLogs removes all ids in one transaction. The returned count is the number of
// requested ids, ids that did not exist are included.
func (s *logService) DeleteLogs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, model.NewEmptyBatchError()
	}
	if len(ids) > s.bulkDeleteMaxSize {
		return 0, model.NewBatchTooLargeError(s.bulkDeleteMaxSize)
	}

	logIDs := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		logID, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			log.Debug().Str("id", id).Msg(msgUnknownLogID)
			continue
		}
		logIDs = append(logIDs, logID)
	}

	if len(logIDs) > 0 {
		deleted, err := s.repository.DeleteLogs(ctx, logIDs)
		if err != nil {
			return 0, model.NewStoreError("delete logs", err)
		}
		log.Debug().Int("requested", len(ids)).Int64("deleted", deleted).Msg("Deleted log batch")
		metrics.LogsDeleted(len(logIDs))
		s.notifyChange(ctx)
	}

	return len(ids), nil
}

// notifyChange never fails the operation: the write already happened.
func (s *logService) notifyChange(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx); err != nil {
		log.Error().Err(err).Msg(msgNotifyChangeFailed)
	}
}

const (
	msgLogRejected        = "Rejected log submission"
	msgUnknownLogID       = "Skipped log id that is not a store identifier"
	msgNotifyChangeFailed = "Failed to notify log change, live dashboards stay stale until the next change"
)
