package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

const DefaultAuditChannel = "aaos.audit"

// AuditBus fans committed audit events out over a Redis pub/sub channel.
type AuditBus interface {
	PublishAuditEvent(ctx context.Context, ev *types.AuditEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev *types.AuditEvent)) error
	Close() error
}

type AuditBusConfig struct {
	Addr    string
	Channel string
}

type auditBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewAuditBus(log *logger.Logger, cfg AuditBusConfig) (AuditBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(cfg.Channel)
	if ch == "" {
		ch = DefaultAuditChannel
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

	return &auditBus{
		log:     log.With("service", "RedisAuditBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *auditBus) PublishAuditEvent(ctx context.Context, ev *types.AuditEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis audit bus not initialized")
	}
	raw, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *auditBus) StartForwarder(ctx context.Context, onEvent func(ev *types.AuditEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis audit bus not initialized")
	}
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
				ev, err := decodeEvent([]byte(m.Payload))
				if err != nil {
					b.log.Warn("bad redis audit payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (b *auditBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}

func encodeEvent(ev *types.AuditEvent) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("nil audit event")
	}
	return json.Marshal(ev)
}

func decodeEvent(raw []byte) (*types.AuditEvent, error) {
	var ev types.AuditEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	if !ev.EventType.Valid() {
		return nil, fmt.Errorf("unknown audit event type %q", ev.EventType)
	}
	return &ev, nil
}
