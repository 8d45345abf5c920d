// Package events publishes engine events to redis pub/sub channels for
// downstream consumers: notifications, audit and settlement.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"quickbid/internal/infra"
	"quickbid/internal/pkg/config"
	"quickbid/internal/usecase/commands"

	"github.com/redis/go-redis/v9"
)

const (
	ChannelBidPlaced    = "auction.bidPlaced"
	ChannelAuctionEnded = "auction.ended"
)

func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) PublishBidPlaced(ctx context.Context, ev commands.BidPlacedEvent) error {
	return p.publish(ctx, ChannelBidPlaced, ev)
}

func (p *RedisPublisher) PublishAuctionEnded(ctx context.Context, ev commands.AuctionEndedEvent) error {
	return p.publish(ctx, ChannelAuctionEnded, ev)
}

func (p *RedisPublisher) publish(ctx context.Context, channel string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return infra.WrapRepoErr("failed to encode event", err, infra.KindPublishFail)
	}
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		return infra.WrapRepoErr("failed to publish event", err, infra.KindPublishFail)
	}
	return nil
}
