package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/dsbeauty/salon-backend/internal/config"
	"github.com/dsbeauty/salon-backend/internal/models"
)

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// RedisNotifier carries activation signals between server instances over a
// Redis pub/sub channel. Local waiters subscribe through the embedded Hub.
type RedisNotifier struct {
	*Hub
	rdb     *redis.Client
	channel string
	logger  *logrus.Logger
}

// NewRedisNotifier creates a notifier publishing on channel
func NewRedisNotifier(rdb *redis.Client, channel string, logger *logrus.Logger) *RedisNotifier {
	return &RedisNotifier{
		Hub:     NewHub(),
		rdb:     rdb,
		channel: channel,
		logger:  logger,
	}
}

// Publish sends key to every instance, including this one
func (n *RedisNotifier) Publish(ctx context.Context, key models.ActivationKey) error {
	if err := n.rdb.Publish(ctx, n.channel, KeyString(key)).Err(); err != nil {
		return fmt.Errorf("failed to publish activation: %w", err)
	}
	return nil
}

// Listen relays messages from Redis to local waiters until ctx is done
func (n *RedisNotifier) Listen(ctx context.Context) error {
	sub := n.rdb.Subscribe(ctx, n.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", n.channel, err)
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if _, err := ParseKey(msg.Payload); err != nil {
				n.logger.WithError(err).Warn("Ignoring malformed activation message")
				continue
			}
			n.broadcast(msg.Payload)
		}
	}
}
