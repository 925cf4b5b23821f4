package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blutspende/logboard/api"
	"github.com/blutspende/logboard/authmanager"
	"github.com/blutspende/logboard/config"
	"github.com/blutspende/logboard/db"
	"github.com/blutspende/logboard/logs/feed"
	"github.com/blutspende/logboard/logs/repository"
	"github.com/blutspende/logboard/logs/service"
	"github.com/blutspende/logboard/migrator"
	"github.com/blutspende/logboard/server"
	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configureLogger(zerolog.InfoLevel)

	configuration, err := config.ReadConfiguration()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start logboard")
	}
	configureLogger(configuration.LogLevel)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, &configuration); err != nil {
		log.Fatal().Err(err).Msg("Logboard stopped with error")
	}
}

func run(ctx context.Context, configuration *config.Configuration) error {
	postgres := db.NewPostgres(ctx, configuration)
	if err := postgres.Connect(); err != nil {
		return err
	}
	defer postgres.Close()

	sqlConn, err := postgres.GetDbConnection()
	if err != nil {
		return err
	}
	if err = migrator.NewLogboardMigrator().Run(ctx, sqlConn, configuration.DbSchema); err != nil {
		return err
	}

	dbConnector := db.CreateDbConnector(sqlConn)
	notifier, closeNotifier, err := createNotifier(ctx, configuration, dbConnector)
	if err != nil {
		return err
	}
	defer closeNotifier()

	logRepository := repository.NewLogRepository(dbConnector, configuration.DbSchema)
	logService := service.NewLogService(logRepository, notifier, configuration.BulkDeleteMaxSize)
	logFeed := feed.NewLogFeed(logRepository, notifier)
	logStreams := server.NewLogStreamSSEServer(logFeed)

	longPoll, err := server.NewLogSummaryLongPoll(server.LongPollOptions{
		TimeoutSeconds:         configuration.LongPollTimeoutSeconds,
		EventBufferSize:        configuration.LongPollEventBufferSize,
		EventTimeToLiveSeconds: configuration.LongPollEventTTLSeconds,
	})
	if err != nil {
		return err
	}
	longPoll.Attach(logFeed)
	defer longPoll.Shutdown()

	var authManager authmanager.AuthManager
	if configuration.Authorization {
		restClient := resty.New().SetTimeout(time.Duration(configuration.StandardAPITimeoutSecond) * time.Second)
		authManager, err = authmanager.NewAuthManager(configuration.OIDCBaseURL, restClient)
		if err != nil {
			return err
		}
		defer authManager.Close()
	}

	ginApi := api.NewAPI(configuration, dbConnector, authManager, logService, logStreams, longPoll)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return logFeed.Run(groupCtx)
	})
	group.Go(func() error {
		if err := ginApi.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to start API server logboard")
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return ginApi.Shutdown(shutdownCtx)
	})

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// createNotifier returns the configured change notifier and a function releasing its resources.
func createNotifier(ctx context.Context, configuration *config.Configuration, dbConnector db.DbConnector) (repository.ChangeNotifier, func(), error) {
	switch configuration.Notifier {
	case config.RedisNotifier:
		redisClient := redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", configuration.RedisUrl, configuration.RedisPort),
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error().Err(err).Msg("Redis is not available")
			_ = redisClient.Close()
			return nil, nil, err
		}
		closeClient := func() {
			_ = redisClient.Close()
		}
		return repository.NewRedisNotifier(redisClient, configuration.NotifyChannel), closeClient, nil
	case config.LocalNotifier:
		log.Warn().Msg("Using the in-process change notifier, changes by other instances are not seen")
		return repository.NewLocalNotifier(), func() {}, nil
	default:
		return repository.NewPostgresNotifier(dbConnector, configuration.PostgresConnectionString(), configuration.NotifyChannel), func() {}, nil
	}
}

func configureLogger(level zerolog.Level) {
	consoleWriter := zerolog.NewConsoleWriter()
	consoleWriter.TimeFormat = "2006-01-02T15:04:05Z07:00"
	log.Logger = zerolog.New(consoleWriter).With().Caller().Timestamp().Logger()
	zerolog.SetGlobalLevel(level)
}
