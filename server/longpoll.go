package server

import (
	"net/http"
	"time"

	"github.com/blutspende/logboard/livequery"
	"github.com/blutspende/logboard/logs/model"
	"github.com/gin-gonic/gin"
	"github.com/jcuga/golongpoll"
	"github.com/rs/zerolog/log"
)

// LongPollCategory is the single category summaries are published under.
const LongPollCategory = "logs"

// LogSummaryTO is published for every change of the unfiltered collection.
type LogSummaryTO struct {
	Status            livequery.Status       `json:"status"`
	Error             string                 `json:"error,omitempty"`
	TotalCount        int                    `json:"totalCount"`
	LatestTimestamp   *time.Time             `json:"latestTimestamp,omitempty"`
	LogCounts         map[model.LogLevel]int `json:"logCounts"`
	ApplicationCounts map[string]int         `json:"applicationCounts"`
}

type LongPollOptions struct {
	TimeoutSeconds         int
	EventBufferSize        int
	EventTimeToLiveSeconds int
}

type LogSummaryLongPoll struct {
	manager     *golongpoll.LongpollManager
	unsubscribe func()
}

func NewLogSummaryLongPoll(options LongPollOptions) (*LogSummaryLongPoll, error) {
	manager, err := golongpoll.StartLongpoll(golongpoll.Options{
		LoggingEnabled:            false,
		MaxLongpollTimeoutSeconds: options.TimeoutSeconds,
		MaxEventBufferSize:        options.EventBufferSize,
		EventTimeToLiveSeconds:    options.EventTimeToLiveSeconds,
	})
	if err != nil {
		log.Error().Err(err).Msg(msgStartLongPollFailed)
		return nil, err
	}

	return &LogSummaryLongPoll{manager: manager}, nil
}

// Attach publishes a summary for every snapshot or error the source pushes.
func (l *LogSummaryLongPoll) Attach(source livequery.Source) {
	l.unsubscribe = source.Subscribe(
		func(records []model.LogRecord) {
			l.publish(NewLogSummary(records))
		},
		func(err error) {
			l.publish(LogSummaryTO{
				Status:            livequery.StatusDisconnected,
				Error:             err.Error(),
				LogCounts:         map[model.LogLevel]int{},
				ApplicationCounts: map[string]int{},
			})
		},
	)
}

func (l *LogSummaryLongPoll) SubscriptionHandler() gin.HandlerFunc {
	return gin.WrapF(l.HTTPHandler())
}

// HTTPHandler answers golongpoll subscriptions (category, timeout, since_time, last_id).
func (l *LogSummaryLongPoll) HTTPHandler() http.HandlerFunc {
	return l.manager.SubscriptionHandler
}

func (l *LogSummaryLongPoll) Shutdown() {
	if l.unsubscribe != nil {
		l.unsubscribe()
	}
	l.manager.Shutdown()
}

func (l *LogSummaryLongPoll) publish(summary LogSummaryTO) {
	if err := l.manager.Publish(LongPollCategory, summary); err != nil {
		log.Error().Err(err).Msg(msgPublishSummaryFailed)
	}
}

// NewLogSummary summarizes a newest-first collection.
func NewLogSummary(records []model.LogRecord) LogSummaryTO {
	aggregates := livequery.Aggregate(records)
	summary := LogSummaryTO{
		Status:            livequery.StatusConnected,
		TotalCount:        len(records),
		LogCounts:         aggregates.LogCounts,
		ApplicationCounts: aggregates.ApplicationCounts,
	}
	if len(records) > 0 {
		latest := records[0].Timestamp
		summary.LatestTimestamp = &latest
	}
	return summary
}

const (
	msgStartLongPollFailed  = "Failed to start long poll manager"
	msgPublishSummaryFailed = "Failed to publish log summary"
)
