package repository

import (
	"context"
	"time"

	"github.com/blutspende/logboard/db"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

type postgresNotifier struct {
	db               db.DbConnector
	connectionString string
	channel          string
}

// NewPostgresNotifier uses LISTEN/NOTIFY on the given channel, so every service instance
// connected to the same database receives the notifications.
func NewPostgresNotifier(db db.DbConnector, connectionString, channel string) ChangeNotifier {
	return &postgresNotifier{
		db:               db,
		connectionString: connectionString,
		channel:          channel,
	}
}

func (n *postgresNotifier) Notify(ctx context.Context) error {
	_, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, '');`, n.channel)
	if err != nil {
		log.Error().Err(err).Str("channel", n.channel).Msg(msgNotifyFailed)
		return errors.Wrap(err, msgNotifyFailed)
	}
	return nil
}

func (n *postgresNotifier) Listen(ctx context.Context, onChange func()) error {
	listener := pq.NewListener(n.connectionString, minReconnectInterval, maxReconnectInterval, n.onListenerEvent)
	defer func() {
		if err := listener.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing postgres listener failed")
		}
	}()

	if err := listener.Listen(n.channel); err != nil {
		log.Error().Err(err).Str("channel", n.channel).Msg(msgListenFailed)
		return errors.Wrap(err, msgListenFailed)
	}
	log.Info().Str("channel", n.channel).Msg("Listening for postgres log change notifications")

	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-listener.Notify:
			// a nil notification means the connection was re-established and
			// notifications may have been lost, reloading covers both cases
			onChange()
		case <-ticker.C:
			go func() {
				if err := listener.Ping(); err != nil {
					log.Warn().Err(err).Msg("Postgres listener ping failed")
				}
			}()
		}
	}
}

func (n *postgresNotifier) onListenerEvent(event pq.ListenerEventType, err error) {
	if err != nil {
		log.Error().Err(err).Int("event", int(event)).Msg("Postgres listener event")
	}
}

const (
	msgNotifyFailed = "notify log change failed"
	msgListenFailed = "listen for log changes failed"
)
