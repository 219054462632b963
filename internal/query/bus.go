package query

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Bus carries invalidations between server instances.
type Bus interface {
	Publish(ctx context.Context, prefix Key) error
	// Listen delivers prefixes published by other instances until ctx is done.
	Listen(ctx context.Context, fn func(Key)) error
}

type busMessage struct {
	Origin string `json:"origin"`
	Key    Key    `json:"key"`
}

// RedisBus is a Bus over Redis pub/sub. Messages published by this instance are ignored on receipt.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	origin  string
}

func NewRedisBus(rdb *redis.Client, channel string) *RedisBus {
	return &RedisBus{rdb: rdb, channel: channel, origin: uuid.NewString()}
}

func (b *RedisBus) Publish(ctx context.Context, prefix Key) error {
	payload, err := json.Marshal(busMessage{Origin: b.origin, Key: prefix})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBus) Listen(ctx context.Context, fn func(Key)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m busMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				log.Printf("query bus: bad message: %v", err)
				continue
			}
			if m.Origin == b.origin {
				continue
			}
			fn(m.Key)
		}
	}
}

// Bridge forwards local invalidations to bus and applies remote ones to c. It blocks until ctx is done.
func Bridge(ctx context.Context, c *Client, bus Bus) error {
	unsubscribe := c.Subscribe(func(ev Event) {
		if ev.Type != EventInvalidated || ev.Remote {
			return
		}
		if err := bus.Publish(ctx, ev.Key); err != nil {
			log.Printf("query bus: publish %s: %v", ev.Key, err)
		}
	})
	defer unsubscribe()

	return bus.Listen(ctx, func(k Key) {
		c.InvalidateRemote(ctx, k)
	})
}
