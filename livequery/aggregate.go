package livequery

import (
	"sort"

	"github.com/blutspende/logboard/logs/model"
)

type Aggregates struct {
	LogCounts         map[model.LogLevel]int `json:"logCounts"`
	ApplicationCounts map[string]int         `json:"applicationCounts"`
}

// Aggregate counts records per level and per application. Both maps sum to len(records).
func Aggregate(records []model.LogRecord) Aggregates {
	aggregates := Aggregates{
		LogCounts:         make(map[model.LogLevel]int),
		ApplicationCounts: make(map[string]int),
	}
	for i := range records {
		aggregates.LogCounts[records[i].Level]++
		aggregates.ApplicationCounts[records[i].Application]++
	}
	return aggregates
}

// DistinctApplications lists the applications present, sorted.
func DistinctApplications(records []model.LogRecord) []string {
	return distinct(records, func(record model.LogRecord) string { return record.Application })
}

// DistinctLoggers lists the loggers present, sorted.
func DistinctLoggers(records []model.LogRecord) []string {
	return distinct(records, func(record model.LogRecord) string { return record.Logger })
}

func distinct(records []model.LogRecord, key func(model.LogRecord) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for i := range records {
		value := key(records[i])
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
