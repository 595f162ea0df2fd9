package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Publisher hands committed transition events to the durable pub/sub
// channel. Publishing runs strictly after the originating transaction has
// committed: a publish failure is logged and never rolls anything back.
type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb, channel: Channel}
}

// Publish serializes one event and publishes it.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

// PublishAll publishes each event, logging failures. The inventory mutation
// already succeeded; delivery is best-effort and clients recover current
// state through the active-notifications snapshot on reconnect.
func (p *Publisher) PublishAll(ctx context.Context, evs []Event) {
	for _, ev := range evs {
		if err := p.Publish(ctx, ev); err != nil {
			log.Printf("notification: publish failed: %v", err)
		}
	}
}
