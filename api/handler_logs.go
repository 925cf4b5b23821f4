package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/blutspende/logboard/logs/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type createLogResponseTO struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	LogID   uuid.UUID `json:"logId"`
} // @Name CreateLogResponse

type deleteLogResponseTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
} // @Name DeleteLogResponse

type bulkDeleteRequestTO struct {
	LogIDs []string `json:"logIds"`
} // @Name BulkDeleteRequest

type bulkDeleteResponseTO struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int    `json:"deletedCount"`
} // @Name BulkDeleteResponse

// CreateLog
// @Summary Submit a log record
// @Description Validates and normalizes the submission and stores it as a new log record
// @Tags Logs
// @Accept json
// @Produce json
// @Param CreateLogRequest body model.CreateLogRequest true "Log submission"
// @Success 201 {object} createLogResponseTO
// @Failure 400 {object} errorTO
// @Failure 500 {object} errorTO
// @Router /v1/logs [POST]
func (api *api) CreateLog(c *gin.Context) {
	var request model.CreateLogRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorTO{
			Error:      msgInvalidRequestBody,
			MessageKey: messageKeyInvalidRequestBody,
			Details:    err.Error(),
		})
		return
	}

	logID, err := api.logService.CreateLog(c, request)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createLogResponseTO{
		Success: true,
		Message: "Log created successfully",
		LogID:   logID,
	})
}

// GetLogsNotSupported - logs are read through the live stream only
func (api *api) GetLogsNotSupported(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, ErrGetNotSupported)
}

// DeleteLog
// @Summary Delete a log record
// @Tags Logs
// @Produce json
// @Param id path string true "Log ID"
// @Success 200 {object} deleteLogResponseTO
// @Failure 400 {object} errorTO
// @Failure 500 {object} errorTO
// @Router /v1/logs/{id} [DELETE]
func (api *api) DeleteLog(c *gin.Context) {
	idParam := strings.TrimSpace(c.Param("id"))
	if idParam == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrMissingLogID)
		return
	}
	if err := api.logService.DeleteLog(c, idParam); err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, deleteLogResponseTO{
		Success: true,
		Message: "Log deleted successfully",
	})
}

// BulkDeleteLogs
// @Summary Delete log records in one transaction
// @Tags Logs
// @Accept json
// @Produce json
// @Param BulkDeleteRequest body bulkDeleteRequestTO true "IDs to delete"
// @Success 200 {object} bulkDeleteResponseTO
// @Failure 400 {object} errorTO
// @Failure 500 {object} errorTO
// @Router /v1/logs/bulk-delete [DELETE]
func (api *api) BulkDeleteLogs(c *gin.Context) {
	var request bulkDeleteRequestTO
	if err := c.ShouldBindJSON(&request); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorTO{
			Error:      msgInvalidRequestBody,
			MessageKey: messageKeyInvalidRequestBody,
			Details:    err.Error(),
		})
		return
	}

	api.respondBulkDelete(c, request.LogIDs)
}

func (api *api) respondBulkDelete(c *gin.Context, logIDs []string) {
	deletedCount, err := api.logService.DeleteLogs(c, logIDs)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bulkDeleteResponseTO{
		Success:      true,
		Message:      fmt.Sprintf("Successfully deleted %d logs", deletedCount),
		DeletedCount: deletedCount,
	})
}
