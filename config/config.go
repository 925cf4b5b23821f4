package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	MsgFailedToReadConfiguration = "failed to read configuration"
	msgInvalidBulkDeleteMaxSize  = "BULK_DELETE_MAX_SIZE must be between 1 and %d"
	msgInvalidNotifier           = "NOTIFIER must be one of postgres, redis, local"
)

// MaxAtomicBatchSize is the largest delete batch the store commits atomically.
const MaxAtomicBatchSize = 500

type NotifierType string

const (
	PostgresNotifier NotifierType = "postgres"
	RedisNotifier    NotifierType = "redis"
	LocalNotifier    NotifierType = "local"
)

var ErrFailedToReadConfiguration = errors.New(MsgFailedToReadConfiguration)

type Configuration struct {
	PostgresDB struct {
		Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
		Port     uint16 `envconfig:"POSTGRES_PORT" default:"5432"`
		User     string `envconfig:"POSTGRES_USER" default:"postgres"`
		Pass     string `envconfig:"POSTGRES_PASS" default:"postgres"`
		Database string `envconfig:"POSTGRES_DB" default:"postgres"`
		SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	}
	APIPort                  uint16        `envconfig:"API_PORT" default:"8080"`
	Authorization            bool          `envconfig:"AUTHORIZATION" default:"true"`
	EnableTLS                bool          `envconfig:"ENABLE_TLS" default:"false"`
	CertPath                 string        `envconfig:"CERT_PATH" default:"../cert.pem"`
	KeyPath                  string        `envconfig:"KEY_PATH" default:"../key.pem"`
	Development              bool          `envconfig:"DEVELOPMENT" default:"false"`
	PermittedOrigin          string        `envconfig:"PERMITTED_ORIGIN_URL" default:"*"`
	OIDCBaseURL              string        `envconfig:"OIDC_BASE_URL" default:""`
	LogLevel                 zerolog.Level `envconfig:"LOG_LEVEL" default:"1"`
	ApplicationName          string        `envconfig:"APPLICATION_NAME" default:"logboard"`
	DbSchema                 string        `envconfig:"DB_SCHEMA" default:"logboard"`
	Notifier                 NotifierType  `envconfig:"NOTIFIER" default:"postgres"`
	NotifyChannel            string        `envconfig:"NOTIFY_CHANNEL" default:"lb_logs_changed"`
	RedisUrl                 string        `envconfig:"REDIS_URL" default:"localhost"`
	RedisPort                int           `envconfig:"REDIS_PORT" default:"6379"`
	BulkDeleteMaxSize        int           `envconfig:"BULK_DELETE_MAX_SIZE" default:"500"`
	WriteTimeoutSeconds      int           `envconfig:"WRITE_TIMEOUT_SECONDS" default:"10"`
	LongPollTimeoutSeconds   int           `envconfig:"LONG_POLL_TIMEOUT_SECONDS" default:"110"`
	LongPollEventBufferSize  int           `envconfig:"LONG_POLL_EVENT_BUFFER_SIZE" default:"100"`
	LongPollEventTTLSeconds  int           `envconfig:"LONG_POLL_EVENT_TTL_SECONDS" default:"120"`
	StandardAPITimeoutSecond uint          `envconfig:"STANDARD_API_CLIENT_TIMEOUT_SECONDS" default:"10"`
}

func ReadConfiguration() (Configuration, error) {
	var config Configuration
	err := envconfig.Process("", &config)
	if err != nil {
		err = errors.Wrap(err, MsgFailedToReadConfiguration)
		log.Error().Err(err).Msgf("%s\n", ErrFailedToReadConfiguration)
		return config, err
	}
	if err = config.Validate(); err != nil {
		err = errors.Wrap(err, MsgFailedToReadConfiguration)
		log.Error().Err(err).Msg(MsgFailedToReadConfiguration)
		return config, err
	}
	return config, nil
}

func (c Configuration) Validate() error {
	if c.BulkDeleteMaxSize < 1 || c.BulkDeleteMaxSize > MaxAtomicBatchSize {
		return fmt.Errorf(msgInvalidBulkDeleteMaxSize, MaxAtomicBatchSize)
	}
	switch c.Notifier {
	case PostgresNotifier, RedisNotifier, LocalNotifier:
	default:
		return errors.New(msgInvalidNotifier)
	}
	return nil
}

// PostgresConnectionString is the key/value DSN understood by both pgx and lib/pq.
func (c Configuration) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s application_name=%s",
		c.PostgresDB.Host, c.PostgresDB.Port, c.PostgresDB.User,
		c.PostgresDB.Pass, c.PostgresDB.Database, c.PostgresDB.SSLMode, c.ApplicationName)
}
