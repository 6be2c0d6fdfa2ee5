package redis

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/skillswap/internal/domain/model"
)

// DefaultChannel is where notifications are published.
const DefaultChannel = "skillswap:notifications"

// Publisher sends notifications over Redis pub/sub. It satisfies the
// notification worker's Sink.
type Publisher struct {
	client  goredis.Cmdable
	channel string
}

// NewPublisher creates a publisher; an empty channel means DefaultChannel.
func NewPublisher(client goredis.Cmdable, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Channel returns the pub/sub channel.
func (p *Publisher) Channel() string { return p.channel }

// Deliver publishes n as JSON.
func (p *Publisher) Deliver(ctx context.Context, n model.Notification) error {
	data, err := Encode(n)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Encode renders the wire payload of a notification.
func Encode(n model.Notification) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	return data, nil
}
