package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Notification is one fan-out message addressed to a set of recipients.
type Notification struct {
	ID           string    `json:"id"`
	RecipientIDs []string  `json:"recipient_ids"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	ProductionID string    `json:"production_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Notifier delivers notifications to the fan-out collaborator.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// RedisNotifier publishes notifications on a channel and keeps a bounded
// per-recipient inbox list.
type RedisNotifier struct {
	client     redis.Cmdable
	channel    string
	inboxLimit int64
}

// NewRedisNotifier builds a notifier on top of a go-redis client.
func NewRedisNotifier(client redis.Cmdable, channel string, inboxLimit int) *RedisNotifier {
	if channel == "" {
		channel = "production-notifications"
	}
	if inboxLimit <= 0 {
		inboxLimit = 100
	}
	return &RedisNotifier{client: client, channel: channel, inboxLimit: int64(inboxLimit)}
}

// Notify publishes n and appends it to each recipient inbox in one pipeline.
func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	if r == nil || r.client == nil {
		return errors.New("redis notifier not configured")
	}
	payload, err := encodeNotification(n)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, r.channel, payload)
		for _, recipient := range n.RecipientIDs {
			key := InboxKey(recipient)
			pipe.LPush(ctx, key, payload)
			pipe.LTrim(ctx, key, 0, r.inboxLimit-1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish notification %s: %w", n.Type, err)
	}
	return nil
}

// InboxKey returns the Redis list holding a recipient's notifications.
func InboxKey(recipientID string) string {
	return "notifications:" + recipientID
}

func encodeNotification(n Notification) ([]byte, error) {
	if n.RecipientIDs == nil {
		n.RecipientIDs = []string{}
	}
	return json.Marshal(n)
}
