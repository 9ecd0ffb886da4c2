package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/caseforge/caseforge-backend/internal/platform/envutil"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type redisBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisBus connects to REDIS_ADDR and publishes change events on
// REDIS_CHANNEL (default "caseforge.events").
func NewRedisBus(baseLog *logger.Logger) (Bus, error) {
	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
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
	return &redisBus{
		log:     baseLog.With("component", "RedisBus"),
		rdb:     rdb,
		channel: envutil.String("REDIS_CHANNEL", "caseforge.events"),
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onEvent func(ev Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad redis event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *redisBus) Close() error {
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
