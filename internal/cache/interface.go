package cache

import (
	"context"
	"time"

	"github.com/lhwang/riverchat/internal/domain"
)

// ChannelCacheResult wraps a cached channel.
type ChannelCacheResult struct {
	Channel domain.Channel `json:"channel"`
}

// ChannelCache caches channel lookups so the hot join/history path
// does not hit the relational store on every connection.
type ChannelCache interface {
	Get(ctx context.Context, key string) (*ChannelCacheResult, error)
	Set(ctx context.Context, key string, result *ChannelCacheResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByID(channelID string) string
	BuildKeyByName(name string) string
	Close() error
}
