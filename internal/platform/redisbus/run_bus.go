package redisbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/hansard-backend/internal/domain/debates"
	"github.com/yungbote/hansard-backend/internal/platform/logger"
)

const DefaultChannel = "hansard.runs"

// PublishTimeout bounds a single notification regardless of the caller's context.
const PublishTimeout = 10 * time.Second

type RunBus interface {
	PublishRunSummary(ctx context.Context, summary debates.RunSummary) error
	Close() error
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	Close() error
}

type runBus struct {
	log     *logger.Logger
	rdb     publisher
	channel string
}

func NewRunBus(log *logger.Logger, addr string, channel string) (RunBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &runBus{
		log:     log.With("service", "RedisRunBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *runBus) PublishRunSummary(ctx context.Context, summary debates.RunSummary) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis run bus not initialized")
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, PublishTimeout)
	defer cancel()
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}
	b.log.Debug("Published run summary", "run_id", summary.RunID, "channel", b.channel)
	return nil
}

func (b *runBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
