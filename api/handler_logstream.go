package api

import (
	"fmt"
	"net/http"

	"github.com/blutspende/logboard/livequery"
	"github.com/blutspende/logboard/logs/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StreamCommand string

const (
	CommandToggleSelectionMode StreamCommand = "toggleSelectionMode"
	CommandSelect              StreamCommand = "select"
	CommandDeselect            StreamCommand = "deselect"
	CommandToggleSelectAll     StreamCommand = "toggleSelectAll"
	CommandClearSelection      StreamCommand = "clearSelection"
	CommandClearFilters        StreamCommand = "clearFilters"
	CommandResubscribe         StreamCommand = "resubscribe"
)

type streamCommandTO struct {
	Command StreamCommand `json:"command" binding:"required"`
	LogID   uuid.UUID     `json:"logId"`
} // @Name StreamCommand

// GetStreamView
// @Summary Current view of a live dashboard stream
// @Tags Streams
// @Produce json
// @Param streamId path string true "Stream ID"
// @Success 200 {object} livequery.View
// @Failure 404 {object} errorTO
// @Router /v1/logs/stream/{streamId}/view [GET]
func (api *api) GetStreamView(c *gin.Context) {
	subscriber, ok := api.streamSubscriber(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, subscriber.View())
}

// SetStreamFilter replaces the filter of a stream. The held snapshot is filtered again, the
// store is not queried.
// @Summary Change the filter of a live dashboard stream
// @Tags Streams
// @Accept json
// @Produce json
// @Param streamId path string true "Stream ID"
// @Param Filter body livequery.Filter true "Filter"
// @Success 200 {object} livequery.View
// @Failure 400 {object} errorTO
// @Failure 404 {object} errorTO
// @Router /v1/logs/stream/{streamId}/filter [PUT]
func (api *api) SetStreamFilter(c *gin.Context) {
	subscriber, ok := api.streamSubscriber(c)
	if !ok {
		return
	}

	var filter livequery.Filter
	if err := c.ShouldBindJSON(&filter); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrInvalidRequestBody)
		return
	}
	filter = filter.Normalized()
	if filter.Level != livequery.All {
		if _, valid := model.ParseLevel(filter.Level); !valid {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorTO{
				Error:      fmt.Sprintf("Invalid level filter %q", filter.Level),
				MessageKey: string(model.CategoryInvalidLevel),
			})
			return
		}
	}

	if err := subscriber.SetFilter(filter); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrStreamNotFound)
		return
	}

	c.JSON(http.StatusOK, subscriber.View())
}

// ExecuteStreamCommand
// @Summary Change selection or recover a live dashboard stream
// @Tags Streams
// @Accept json
// @Produce json
// @Param streamId path string true "Stream ID"
// @Param StreamCommand body streamCommandTO true "Command"
// @Success 200 {object} livequery.View
// @Failure 400 {object} errorTO
// @Failure 404 {object} errorTO
// @Router /v1/logs/stream/{streamId}/commands [POST]
func (api *api) ExecuteStreamCommand(c *gin.Context) {
	subscriber, ok := api.streamSubscriber(c)
	if !ok {
		return
	}

	var command streamCommandTO
	if err := c.ShouldBindJSON(&command); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrInvalidRequestBody)
		return
	}

	var err error
	switch command.Command {
	case CommandToggleSelectionMode:
		err = subscriber.ToggleSelectionMode()
	case CommandSelect, CommandDeselect:
		if command.LogID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrMissingLogID)
			return
		}
		err = subscriber.SetSelected(command.LogID, command.Command == CommandSelect)
	case CommandToggleSelectAll:
		err = subscriber.ToggleSelectAll()
	case CommandClearSelection:
		err = subscriber.ClearSelection()
	case CommandClearFilters:
		err = subscriber.ClearFilters()
	case CommandResubscribe:
		err = subscriber.Resubscribe()
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, errorTO{
			Error:      fmt.Sprintf(msgUnknownCommand, command.Command),
			MessageKey: messageKeyUnknownCommand,
		})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrStreamNotFound)
		return
	}

	c.JSON(http.StatusOK, subscriber.View())
}

// DeleteSelectedLogs deletes the records selected on a stream in one batch and clears the selection.
// @Summary Delete the selected records of a live dashboard stream
// @Tags Streams
// @Produce json
// @Param streamId path string true "Stream ID"
// @Success 200 {object} bulkDeleteResponseTO
// @Failure 400 {object} errorTO
// @Failure 404 {object} errorTO
// @Failure 500 {object} errorTO
// @Router /v1/logs/stream/{streamId}/selected [DELETE]
func (api *api) DeleteSelectedLogs(c *gin.Context) {
	subscriber, ok := api.streamSubscriber(c)
	if !ok {
		return
	}

	selected := subscriber.View().Selected
	logIDs := make([]string, len(selected))
	for i, id := range selected {
		logIDs[i] = id.String()
	}
	api.respondBulkDelete(c, logIDs)
	if c.IsAborted() {
		return
	}

	_ = subscriber.ClearSelection()
}

func (api *api) streamSubscriber(c *gin.Context) (*livequery.Subscriber, bool) {
	streamID, err := uuid.Parse(c.Param("streamId"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorTO{
			Error:      "Invalid stream ID",
			MessageKey: messageKeyInvalidIDParameter,
		})
		return nil, false
	}

	subscriber, ok := api.logStreams.Subscriber(streamID)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrStreamNotFound)
		return nil, false
	}
	return subscriber, true
}
