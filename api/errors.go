package api

import (
	"errors"
	"net/http"

	"github.com/blutspende/logboard/logs/model"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type errorTO struct {
	Error      string `json:"error"`
	MessageKey string `json:"messageKey"`
	Details    string `json:"details,omitempty"`
} // @Name Error

const (
	messageKeyInvalidRequestBody = "invalidRequestBody"
	messageKeyInvalidIDParameter = "invalidIdParameter"
	messageKeyMethodNotAllowed   = "methodNotAllowed"
	messageKeyStreamNotFound     = "streamNotFound"
	messageKeyUnknownCommand     = "unknownCommand"
	messageKeyInternal           = "internalServerError"
)

const (
	msgInvalidRequestBody = "Invalid request body"
	msgMissingLogID       = "Log ID is required"
	msgGetNotSupported    = "GET not supported"
	msgStreamNotFound     = "Stream not found"
	msgUnknownCommand     = "Unknown stream command: %s"
	msgInternalError      = "Unexpected error"
)

var (
	ErrInvalidRequestBody = errorTO{Error: msgInvalidRequestBody, MessageKey: messageKeyInvalidRequestBody}
	ErrMissingLogID       = errorTO{Error: msgMissingLogID, MessageKey: messageKeyInvalidIDParameter}
	ErrGetNotSupported    = errorTO{Error: msgGetNotSupported, MessageKey: messageKeyMethodNotAllowed}
	ErrStreamNotFound     = errorTO{Error: msgStreamNotFound, MessageKey: messageKeyStreamNotFound}
)

// abortWithServiceError maps validation failures to 400 and store failures to 500 with the
// underlying store message as details.
func abortWithServiceError(c *gin.Context, err error) {
	var validationError *model.ValidationError
	if errors.As(err, &validationError) {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorTO{
			Error:      validationError.Message,
			MessageKey: string(validationError.Category),
		})
		return
	}

	var storeError *model.StoreError
	if errors.As(err, &storeError) {
		log.Error().Err(err).Str("op", storeError.Op).Msg("Log store operation failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorTO{
			Error:      "Failed to " + storeError.Op,
			MessageKey: string(model.CategoryStoreError),
			Details:    storeError.Detail(),
		})
		return
	}

	log.Error().Err(err).Msg(msgInternalError)
	c.AbortWithStatusJSON(http.StatusInternalServerError, errorTO{
		Error:      msgInternalError,
		MessageKey: messageKeyInternal,
		Details:    err.Error(),
	})
}
