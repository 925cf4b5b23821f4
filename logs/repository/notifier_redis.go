package repository

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type redisNotifier struct {
	client  *redis.Client
	channel string
}

// NewRedisNotifier publishes change notifications on a redis pub/sub channel.
func NewRedisNotifier(client *redis.Client, channel string) ChangeNotifier {
	return &redisNotifier{
		client:  client,
		channel: channel,
	}
}

func (n *redisNotifier) Notify(ctx context.Context) error {
	err := n.client.Publish(ctx, n.channel, "changed").Err()
	if err != nil {
		log.Error().Err(err).Str("channel", n.channel).Msg(msgNotifyFailed)
		return errors.Wrap(err, msgNotifyFailed)
	}
	return nil
}

func (n *redisNotifier) Listen(ctx context.Context, onChange func()) error {
	pubsub := n.client.Subscribe(ctx, n.channel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Warn().Err(err).Msg("Closing redis subscription failed")
		}
	}()

	if _, err := pubsub.Receive(ctx); err != nil {
		log.Error().Err(err).Str("channel", n.channel).Msg(msgListenFailed)
		return errors.Wrap(err, msgListenFailed)
	}
	log.Info().Str("channel", n.channel).Msg("Listening for redis log change notifications")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-messages:
			if !ok {
				return nil
			}
			onChange()
		}
	}
}
