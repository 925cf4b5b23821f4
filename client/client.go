// Package client submits and deletes log records on a logboard service and watches its
// long-poll summary channel.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blutspende/logboard/logs/model"
	"github.com/blutspende/logboard/server"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	longpollclient "github.com/jcuga/golongpoll/client"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	logsPath       = "/v1/logs"
	bulkDeletePath = "/v1/logs/bulk-delete"
	pollPath       = "/v1/logs/poll"
)

type LogboardClient interface {
	CreateLog(ctx context.Context, request model.CreateLogRequest) (uuid.UUID, error)
	DeleteLog(ctx context.Context, id uuid.UUID) error
	DeleteLogs(ctx context.Context, ids []uuid.UUID) (int, error)
	WatchSummaries(ctx context.Context) (<-chan server.LogSummaryTO, error)
}

// APIError is a non-2xx answer of the service.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	MessageKey string `json:"messageKey"`
	Details    string `json:"details"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("logboard: %d %s: %s (%s)", e.StatusCode, e.MessageKey, e.Message, e.Details)
	}
	return fmt.Sprintf("logboard: %d %s: %s", e.StatusCode, e.MessageKey, e.Message)
}

type createLogResponseTO struct {
	Success bool      `json:"success"`
	LogID   uuid.UUID `json:"logId"`
}

type bulkDeleteRequestTO struct {
	LogIDs []uuid.UUID `json:"logIds"`
}

type bulkDeleteResponseTO struct {
	DeletedCount int `json:"deletedCount"`
}

type logboardClient struct {
	restyClient        *resty.Client
	baseURL            string
	pollTimeoutSeconds uint
}

func NewLogboardClient(options Options) LogboardClient {
	pollTimeoutSeconds := options.PollTimeoutSeconds
	if pollTimeoutSeconds == 0 {
		pollTimeoutSeconds = 30
	}
	return &logboardClient{
		restyClient:        NewRestyClient(options),
		baseURL:            strings.TrimRight(options.BaseURL, "/"),
		pollTimeoutSeconds: pollTimeoutSeconds,
	}
}

func (c *logboardClient) CreateLog(ctx context.Context, request model.CreateLogRequest) (uuid.UUID, error) {
	var apiError APIError
	response, err := c.restyClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request).
		SetResult(&createLogResponseTO{}).
		SetError(&apiError).
		Post(logsPath)
	if err != nil {
		log.Error().Err(err).Msg(msgCreateLogFailed)
		return uuid.Nil, errors.Wrap(err, msgCreateLogFailed)
	}
	if response.IsError() {
		apiError.StatusCode = response.StatusCode()
		return uuid.Nil, &apiError
	}

	return response.Result().(*createLogResponseTO).LogID, nil
}

func (c *logboardClient) DeleteLog(ctx context.Context, id uuid.UUID) error {
	var apiError APIError
	response, err := c.restyClient.R().
		SetContext(ctx).
		SetError(&apiError).
		Delete(logsPath + "/" + id.String())
	if err != nil {
		log.Error().Err(err).Msg(msgDeleteLogFailed)
		return errors.Wrap(err, msgDeleteLogFailed)
	}
	if response.IsError() {
		apiError.StatusCode = response.StatusCode()
		return &apiError
	}
	return nil
}

func (c *logboardClient) DeleteLogs(ctx context.Context, ids []uuid.UUID) (int, error) {
	var apiError APIError
	response, err := c.restyClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(bulkDeleteRequestTO{LogIDs: ids}).
		SetResult(&bulkDeleteResponseTO{}).
		SetError(&apiError).
		Delete(bulkDeletePath)
	if err != nil {
		log.Error().Err(err).Msg(msgDeleteLogsFailed)
		return 0, errors.Wrap(err, msgDeleteLogsFailed)
	}
	if response.IsError() {
		apiError.StatusCode = response.StatusCode()
		return 0, &apiError
	}

	return response.Result().(*bulkDeleteResponseTO).DeletedCount, nil
}

// WatchSummaries delivers the summaries published after the call until ctx is done.
func (c *logboardClient) WatchSummaries(ctx context.Context) (<-chan server.LogSummaryTO, error) {
	u, err := url.Parse(c.baseURL + pollPath)
	if err != nil {
		return nil, errors.Wrap(err, msgWatchSummariesFailed)
	}

	longPoll, err := longpollclient.NewClient(longpollclient.ClientOptions{
		SubscribeUrl:       *u,
		Category:           server.LongPollCategory,
		PollTimeoutSeconds: c.pollTimeoutSeconds,
		HttpClient: &http.Client{
			Transport: &restyRoundTripper{restyClient: c.restyClient},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg(msgWatchSummariesFailed)
		return nil, errors.Wrap(err, msgWatchSummariesFailed)
	}

	summaries := make(chan server.LogSummaryTO)
	events := longPoll.Start(time.Now())
	go func() {
		defer close(summaries)
		defer longPoll.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debug().Msg("Log summary watch stopped")
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				jsonData, err := json.Marshal(event.Data)
				if err != nil {
					log.Error().Err(err).Msg("Failed to marshal summary event data")
					continue
				}
				var summary server.LogSummaryTO
				if err = json.Unmarshal(jsonData, &summary); err != nil {
					log.Error().Err(err).Msg("Failed to unmarshal summary event data")
					continue
				}
				select {
				case summaries <- summary:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return summaries, nil
}

const (
	msgCreateLogFailed      = "Failed to submit log record"
	msgDeleteLogFailed      = "Failed to delete log record"
	msgDeleteLogsFailed     = "Failed to delete log records"
	msgWatchSummariesFailed = "Failed to watch log summaries"
)
