package app

import (
	"context"

	"github.com/yungbote/aaos-backend/internal/clients/redis"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type Clients struct {
	AuditBus redis.AuditBus
}

// wireClients connects optional outbound clients. A missing REDIS_ADDR
// leaves the bus nil and audits stay local to the database.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	var out Clients
	if cfg.Redis.Addr == "" {
		log.Info("REDIS_ADDR not set; audit bus disabled")
		return out, nil
	}
	bus, err := redis.NewAuditBus(log, redis.AuditBusConfig{
		Addr:    cfg.Redis.Addr,
		Channel: cfg.Redis.AuditChannel,
	})
	if err != nil {
		return out, err
	}
	out.AuditBus = bus
	return out, nil
}

func (c Clients) Close() {
	if c.AuditBus != nil {
		_ = c.AuditBus.Close()
	}
}

// startAuditForwarder logs events seen on the bus, including those published
// by other replicas.
func startAuditForwarder(ctx context.Context, log *logger.Logger, bus redis.AuditBus) {
	if bus == nil {
		return
	}
	err := bus.StartForwarder(ctx, func(ev *types.AuditEvent) {
		log.Debug("audit event", "type", ev.EventType, "id", ev.ID)
	})
	if err != nil {
		log.Warn("audit forwarder failed to start", "error", err)
	}
}
