package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const healthPingTimeout = 2 * time.Second

// BuildVersion - will be filled at build process in pipeline
var BuildVersion string

type healthCheck struct {
	Service       string   `json:"service"`
	Status        string   `json:"status"`
	ApiVersion    []string `json:"apiVersion"`
	BuildVersion  string   `json:"buildVersion"`
	Database      string   `json:"database"`
	StreamClients int      `json:"streamClients"`
	MemStats      memStats `json:"memStats"`
}

type memStats struct {
	Alloc              string `json:"alloc"`
	Sys                string `json:"sys"`
	HeapInUse          string `json:"heapInUse"`
	NumberOfGoRoutines int    `json:"numberOfGoRoutines"`
}

func (api *api) GetHealth(c *gin.Context) {
	info := healthCheck{
		Service:       api.config.ApplicationName,
		Status:        "running",
		ApiVersion:    []string{"v1"},
		BuildVersion:  BuildVersion,
		Database:      "available",
		StreamClients: api.logStreams.ClientCount(),
	}

	statusCode := http.StatusOK
	if api.database != nil {
		ctx, cancel := context.WithTimeout(c, healthPingTimeout)
		defer cancel()
		if err := api.database.PingContext(ctx); err != nil {
			log.Warn().Err(err).Msg(msgDatabaseUnavailable)
			info.Status = "degraded"
			info.Database = "unavailable"
			statusCode = http.StatusServiceUnavailable
		}
	}

	var memStat runtime.MemStats
	runtime.ReadMemStats(&memStat)

	info.MemStats.Alloc = fmt.Sprintf("%v MiB", memStat.Alloc/1024/1024)
	info.MemStats.Sys = fmt.Sprintf("%v MiB", memStat.Sys/1024/1024)
	info.MemStats.HeapInUse = fmt.Sprintf("%v MiB", memStat.HeapInuse/1024/1024)
	info.MemStats.NumberOfGoRoutines = runtime.NumGoroutine()

	c.JSON(statusCode, info)
}

const msgDatabaseUnavailable = "Health check could not reach the database"
