package model

import (
	"strings"
)

// Validate checks the submission and returns the record to persist. The original level
// is stored lower-cased, which is also the form the vocabulary check uses.
func (r CreateLogRequest) Validate() (LogRecord, error) {
	if isBlank(r.UserID) {
		return LogRecord{}, NewMissingFieldError("userId")
	}
	if isBlank(r.Application) {
		return LogRecord{}, NewMissingFieldError("application")
	}
	if r.Timestamp.IsZero() {
		return LogRecord{}, NewMissingFieldError("timestamp")
	}
	if isBlank(r.Message) {
		return LogRecord{}, NewMissingFieldError("message")
	}

	originalLevel := strings.ToLower(strings.TrimSpace(r.Level))
	level, ok := NormalizeLevel(originalLevel)
	if !ok {
		return LogRecord{}, NewInvalidLevelError(r.Level)
	}

	return LogRecord{
		UserID:        r.UserID,
		Application:   r.Application,
		Logger:        r.Logger,
		Timestamp:     r.Timestamp,
		Level:         level,
		OriginalLevel: originalLevel,
		Value:         r.Value,
		Message:       r.Message,
		Metadata:      r.Metadata,
	}, nil
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}
