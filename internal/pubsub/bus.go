package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Bus fans lead and import events out to redis pub/sub and, when wired, the
// local websocket hub. Publishing is fire-and-forget from the caller's side.
type Bus struct {
	rdb   *redis.Client
	log   *zap.Logger
	ctx   context.Context
	wsHub WSHub
}

type WSHub interface {
	Publish(channel string, message map[string]interface{})
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{
		rdb: rdb,
		log: log,
		ctx: context.Background(),
	}
}

// SetWSHub sets the WebSocket hub for event broadcasting
func (b *Bus) SetWSHub(hub WSHub) {
	b.wsHub = hub
}

// PublishLead publishes an event about one lead to its channel and to the
// shared leads channel dashboards listen on.
func (b *Bus) PublishLead(leadID string, event map[string]interface{}) error {
	if err := b.Publish("lead:"+leadID, event); err != nil {
		return err
	}
	return b.Publish("leads", event)
}

// PublishImport publishes import job progress to the job's channel.
func (b *Bus) PublishImport(jobID string, event map[string]interface{}) error {
	return b.Publish("import:"+jobID, event)
}

// Publish publishes an event to a channel
func (b *Bus) Publish(channel string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := b.rdb.Publish(b.ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		return err
	}

	if b.wsHub != nil {
		b.wsHub.Publish(channel, event)
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.String("event", string(data)))
	return nil
}
