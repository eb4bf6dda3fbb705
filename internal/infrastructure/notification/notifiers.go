package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultChannel = "feeledger:notifications"

// redisPublisher is the subset of *redis.Client used for fan-out
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisNotifier publishes notifications as JSON on a per-branch Redis
// channel, "<channel>:<branch id>". Consumers PSUBSCRIBE to "<channel>:*".
type RedisNotifier struct {
	client  redisPublisher
	channel string
}

// NewRedisNotifier creates a RedisNotifier
func NewRedisNotifier(client redisPublisher, channel string) *RedisNotifier {
	if channel == "" {
		channel = defaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// Channel returns the channel a notification for branchID is published on
func (r *RedisNotifier) Channel(n Notification) string {
	return r.channel + ":" + n.BranchID.String()
}

// Notify publishes n
func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.Channel(n), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the application log
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs n at info level
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	fields := []zap.Field{
		zap.String("event_type", n.EventType),
		zap.String("voucher_number", n.VoucherNumber),
		zap.String("branch_id", n.BranchID.String()),
		zap.String("title", n.Title),
		zap.String("body", n.Body),
	}
	if n.Recipient != nil {
		fields = append(fields, zap.String("recipient", n.Recipient.String()))
	}
	l.logger.Info("Notification", fields...)
	return nil
}
