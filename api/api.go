package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/blutspende/logboard/authmanager"
	"github.com/blutspende/logboard/config"
	"github.com/blutspende/logboard/livequery"
	"github.com/blutspende/logboard/logs/service"
	"github.com/blutspende/logboard/metrics"
	"github.com/blutspende/logboard/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	timeout "github.com/vearne/gin-timeout"
)

type GinApi interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// LogStreams serves the live dashboard streams and gives access to their live queries.
type LogStreams interface {
	ServeHTTP() gin.HandlerFunc
	Subscriber(streamID uuid.UUID) (*livequery.Subscriber, bool)
	ClientCount() int
}

type LongPoll interface {
	SubscriptionHandler() gin.HandlerFunc
}

// Database is checked by the health endpoint.
type Database interface {
	PingContext(ctx context.Context) error
}

type api struct {
	config     *config.Configuration
	engine     *gin.Engine
	server     *http.Server
	database   Database
	logService service.LogService
	logStreams LogStreams
}

func (api *api) Run() error {
	log.Info().Uint16("port", api.config.APIPort).Msg(msgAPIStarted)
	if api.config.EnableTLS {
		return api.server.ListenAndServeTLS(api.config.CertPath, api.config.KeyPath)
	}
	return api.server.ListenAndServe()
}

func (api *api) Shutdown(ctx context.Context) error {
	err := api.server.Shutdown(ctx)
	if err == nil {
		log.Info().Msg(msgAPIEndedGracefully)
	}
	return err
}

// NewAPI wires the routes. authManager may be nil when authorization is disabled.
func NewAPI(config *config.Configuration, database Database, authManager authmanager.AuthManager,
	logService service.LogService, logStreams LogStreams, longPoll LongPoll) GinApi {
	return newAPI(gin.New(), config, database, authManager, logService, logStreams, longPoll)
}

func newAPI(engine *gin.Engine, config *config.Configuration, database Database, authManager authmanager.AuthManager,
	logService service.LogService, logStreams LogStreams, longPoll LongPoll) *api {

	if config.LogLevel <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine.Use(gin.Recovery())
	engine.HandleMethodNotAllowed = true

	api := &api{
		config:     config,
		engine:     engine,
		database:   database,
		logService: logService,
		logStreams: logStreams,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.APIPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	corsMiddleWare := middleware.CreateCorsMiddleware(config)
	engine.Use(corsMiddleWare)

	root := engine.Group("")
	root.GET("/health", api.GetHealth)
	root.GET("/metrics", gin.WrapH(metrics.Handler()))

	writeTimeout := timeout.Timeout(
		timeout.WithTimeout(time.Duration(config.WriteTimeoutSeconds)*time.Second),
		timeout.WithErrorHttpCode(http.StatusServiceUnavailable),
	)

	v1Group := root.Group("v1")

	logsGroup := v1Group.Group("/logs")
	{
		logsGroup.POST("", writeTimeout, api.CreateLog)
		logsGroup.GET("", api.GetLogsNotSupported)
	}

	protectedLogsGroup := v1Group.Group("/logs")
	if config.Authorization {
		protectedLogsGroup.Use(middleware.CheckAuth(authManager))
	}
	{
		protectedLogsGroup.GET("/stream", logStreams.ServeHTTP())
		protectedLogsGroup.GET("/stream/:streamId/view", api.GetStreamView)
		protectedLogsGroup.PUT("/stream/:streamId/filter", api.SetStreamFilter)
		protectedLogsGroup.POST("/stream/:streamId/commands", api.ExecuteStreamCommand)
		if longPoll != nil {
			protectedLogsGroup.GET("/poll", longPoll.SubscriptionHandler())
		}
	}

	deletionGroup := protectedLogsGroup.Group("")
	deletionGroup.Use(middleware.RoleProtection(middleware.LogDeletionRoles, false, config.Authorization), writeTimeout)
	{
		deletionGroup.DELETE("", api.DeleteLog)
		deletionGroup.DELETE("/bulk-delete", api.BulkDeleteLogs)
		deletionGroup.DELETE("/stream/:streamId/selected", api.DeleteSelectedLogs)
		deletionGroup.DELETE("/:id", api.DeleteLog)
	}

	// Development-option enables debugger, this can have side-effects
	if api.config.Development {
		debug := root.Group("/debug/pprof")
		{
			debug.GET("/", gin.WrapF(pprof.Index))
			debug.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			debug.GET("/profile", gin.WrapF(pprof.Profile))
			debug.GET("/symbol", gin.WrapF(pprof.Symbol))
			debug.GET("/trace", gin.WrapF(pprof.Trace))
			debug.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
			debug.GET("/block", gin.WrapH(pprof.Handler("block")))
			debug.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
			debug.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			debug.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
			debug.POST("/symbol", gin.WrapF(pprof.Symbol))
		}
	}

	return api
}

const (
	msgAPIStarted         = "API server logboard has been started"
	msgAPIEndedGracefully = "API server logboard ended gracefully"
)
