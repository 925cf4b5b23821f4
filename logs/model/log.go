package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LogRecord is a persisted log event. Records are append-only, they are never updated.
type LogRecord struct {
	ID            uuid.UUID              `json:"id" swaggertype:"string" format:"uuid"`
	UserID        string                 `json:"userId"`
	Application   string                 `json:"application"`
	Logger        string                 `json:"logger"`
	Timestamp     time.Time              `json:"timestamp" swaggertype:"string" format:"date-time"`
	Level         LogLevel               `json:"level"`
	OriginalLevel string                 `json:"originalLevel"`
	Value         decimal.NullDecimal    `json:"value"`
	Message       string                 `json:"message"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"createdAt" swaggertype:"string" format:"date-time"`
} // @Name LogRecord

// CreateLogRequest is the submission accepted by the ingestion endpoint.
type CreateLogRequest struct {
	UserID      string                 `json:"userId"`
	Application string                 `json:"application"`
	Logger      string                 `json:"logger"`
	Timestamp   time.Time              `json:"timestamp" swaggertype:"string" format:"date-time"`
	Level       string                 `json:"level"`
	Value       decimal.NullDecimal    `json:"value"`
	Message     string                 `json:"message"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
} // @Name CreateLogRequest
