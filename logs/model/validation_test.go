package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() CreateLogRequest {
	return CreateLogRequest{
		UserID:      "user-1",
		Application: "billing",
		Logger:      "invoice.worker",
		Timestamp:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Level:       "SEVERE",
		Message:     "invoice generation failed",
	}
}

func TestValidateNormalizesLevel(t *testing.T) {
	request := validRequest()
	request.Value = decimal.NewNullDecimal(decimal.RequireFromString("12.5"))

	record, err := request.Validate()
	require.NoError(t, err)

	assert.Equal(t, Error, record.Level)
	assert.Equal(t, "severe", record.OriginalLevel)
	assert.Equal(t, "user-1", record.UserID)
	assert.Equal(t, "billing", record.Application)
	assert.Equal(t, "invoice.worker", record.Logger)
	assert.Equal(t, "invoice generation failed", record.Message)
	assert.True(t, record.Value.Valid)
	assert.Equal(t, "12.5", record.Value.Decimal.String())
	assert.Nil(t, record.Metadata)
}

func TestValidateMissingFields(t *testing.T) {
	testCases := []struct {
		field  string
		modify func(r *CreateLogRequest)
	}{
		{"userId", func(r *CreateLogRequest) { r.UserID = "" }},
		{"userId", func(r *CreateLogRequest) { r.UserID = "   " }},
		{"application", func(r *CreateLogRequest) { r.Application = "" }},
		{"timestamp", func(r *CreateLogRequest) { r.Timestamp = time.Time{} }},
		{"message", func(r *CreateLogRequest) { r.Message = "" }},
	}

	for _, testCase := range testCases {
		request := validRequest()
		testCase.modify(&request)

		_, err := request.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingField))

		var validationError *ValidationError
		require.True(t, errors.As(err, &validationError))
		assert.Equal(t, CategoryMissingField, validationError.Category)
		assert.Equal(t, testCase.field, validationError.Field)
		assert.Contains(t, validationError.Error(), testCase.field)
	}
}

func TestValidateMissingFieldWinsOverInvalidLevel(t *testing.T) {
	request := validRequest()
	request.Message = ""
	request.Level = "nonsense"

	_, err := request.Validate()
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestValidateInvalidLevel(t *testing.T) {
	for _, token := range []string{"", "warn", "error", "TRACE"} {
		request := validRequest()
		request.Level = token

		_, err := request.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidLevel)
		assert.Contains(t, err.Error(), "shout, severe, warning, info, config, fine, finer, finest")
	}
}

func TestValidateKeepsMetadata(t *testing.T) {
	request := validRequest()
	request.Metadata = map[string]interface{}{
		"error":      "connection refused",
		"stackTrace": "#0 main (file.dart:1)",
		"attempt":    3,
	}

	record, err := request.Validate()
	require.NoError(t, err)

	assert.Equal(t, "#0 main (file.dart:1)", record.Metadata["stackTrace"])
	assert.Equal(t, "connection refused", record.Metadata["error"])
	assert.Equal(t, 3, record.Metadata["attempt"])
}

func TestCreateLogRequestJSON(t *testing.T) {
	body := `{"userId":"u","application":"app","logger":"root","timestamp":"2024-03-01T10:00:00Z","level":"Fine","value":42.25,"message":"hello"}`

	var request CreateLogRequest
	require.NoError(t, json.Unmarshal([]byte(body), &request))

	record, err := request.Validate()
	require.NoError(t, err)
	assert.Equal(t, Debug, record.Level)
	assert.Equal(t, "fine", record.OriginalLevel)
	assert.Equal(t, "42.25", record.Value.Decimal.String())

	var withoutValue CreateLogRequest
	require.NoError(t, json.Unmarshal([]byte(`{"userId":"u"}`), &withoutValue))
	assert.False(t, withoutValue.Value.Valid)
}

func TestStoreErrorDetail(t *testing.T) {
	storeError := NewStoreError("create log", errors.New("connection refused"))
	assert.Equal(t, "connection refused", storeError.Detail())
	assert.Equal(t, "create log: connection refused", storeError.Error())
}
