// Package livequery derives the dashboard view from the live log collection: it applies
// the client-side filters, computes the aggregates and keeps the selection used for bulk
// deletion.
package livequery

import (
	"strings"

	"github.com/blutspende/logboard/logs/model"
)

// All disables filtering on a dimension.
const All = "all"

// Filter is conjunctive: a record is shown only if it passes every active dimension.
type Filter struct {
	Level       string `json:"level" form:"level"`
	Application string `json:"application" form:"application"`
	Logger      string `json:"logger" form:"logger"`
	UserID      string `json:"userId" form:"userId"`
}

func AllFilter() Filter {
	return Filter{Level: All, Application: All, Logger: All}
}

// Normalized lower-cases the level, maps empty dimensions to All and trims the userId term.
func (f Filter) Normalized() Filter {
	f.Level = strings.ToLower(strings.TrimSpace(f.Level))
	if f.Level == "" {
		f.Level = All
	}
	if f.Application == "" {
		f.Application = All
	}
	if f.Logger == "" {
		f.Logger = All
	}
	f.UserID = strings.TrimSpace(f.UserID)
	return f
}

// Matches applies the dimensions in order level, application, logger, userId.
func (f Filter) Matches(record model.LogRecord) bool {
	f = f.Normalized()
	if f.Level != All && string(record.Level) != f.Level {
		return false
	}
	if f.Application != All && record.Application != f.Application {
		return false
	}
	if f.Logger != All && record.Logger != f.Logger {
		return false
	}
	if f.UserID != "" && !strings.Contains(strings.ToLower(record.UserID), strings.ToLower(f.UserID)) {
		return false
	}
	return true
}

// Apply returns the records matching the filter in their original order. The input is not modified.
func Apply(records []model.LogRecord, filter Filter) []model.LogRecord {
	filter = filter.Normalized()
	filtered := make([]model.LogRecord, 0, len(records))
	for i := range records {
		if filter.Matches(records[i]) {
			filtered = append(filtered, records[i])
		}
	}
	return filtered
}
