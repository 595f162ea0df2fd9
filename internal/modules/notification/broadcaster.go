package notification

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Broadcaster is the long-lived subscriber draining the durable event
// channel and fanning events out to connected sessions. It runs for the
// lifetime of the process and resubscribes after a short fixed backoff on
// any channel-level failure.
type Broadcaster struct {
	rdb       *redis.Client
	registry  *Registry
	channel   string
	retryWait time.Duration
}

func NewBroadcaster(rdb *redis.Client, registry *Registry) *Broadcaster {
	return &Broadcaster{
		rdb:       rdb,
		registry:  registry,
		channel:   Channel,
		retryWait: 2 * time.Second,
	}
}

// Run subscribes and relays events until ctx is cancelled. Intended to be
// started once from main as a background goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		err := b.listen(ctx)
		if ctx.Err() != nil {
			log.Println("notification: broadcaster stopped")
			return
		}
		log.Printf("notification: subscription lost: %v (retrying in %s)", err, b.retryWait)
		select {
		case <-ctx.Done():
			log.Println("notification: broadcaster stopped")
			return
		case <-time.After(b.retryWait):
		}
	}
}

func (b *Broadcaster) listen(ctx context.Context) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Confirm the subscription before entering the receive loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	log.Printf("notification: broadcaster subscribed to %s", b.channel)

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return err
		}
		b.registry.Broadcast([]byte(msg.Payload))
	}
}
