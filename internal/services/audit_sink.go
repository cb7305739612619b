package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/repos"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/ctxutil"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

type AuditEntry struct {
	UserID    *uuid.UUID
	SessionID *uuid.UUID
	EventType audit.EventType
	Meta      map[string]any
	// At overrides the sink clock when set.
	At time.Time
}

// AuditSink appends audit events. Append joins dbc.Tx when present.
type AuditSink interface {
	Append(dbc dbctx.Context, entry AuditEntry) (*types.AuditEvent, error)
	// Committed hands events whose transaction committed to the publisher.
	Committed(ctx context.Context, events []*types.AuditEvent)
}

// AuditPublisher fans persisted events out to other processes. Failures
// never affect the write that produced the event.
type AuditPublisher interface {
	PublishAuditEvent(ctx context.Context, event *types.AuditEvent) error
}

type auditSink struct {
	db        *gorm.DB
	log       *logger.Logger
	repo      repos.AuditEventRepo
	clock     clock.Clock
	publisher AuditPublisher
}

// NewAuditSink builds the persisted sink. publisher may be nil.
func NewAuditSink(db *gorm.DB, log *logger.Logger, repo repos.AuditEventRepo, clk clock.Clock, publisher AuditPublisher) AuditSink {
	if clk == nil {
		clk = clock.System()
	}
	return &auditSink{
		db:        db,
		log:       log.With("service", "AuditSink"),
		repo:      repo,
		clock:     clk,
		publisher: publisher,
	}
}

func (s *auditSink) Append(dbc dbctx.Context, entry AuditEntry) (*types.AuditEvent, error) {
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil && td.RequestID != "" {
		meta["requestId"] = td.RequestID
	}
	if op := ctxutil.GetOperator(dbc.Ctx); op != nil && op.Subject != "" {
		meta["operator"] = op.Subject
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	at := entry.At
	if at.IsZero() {
		at = s.clock.Now()
	}
	ev := &types.AuditEvent{
		ID:        uuid.New(),
		UserID:    entry.UserID,
		SessionID: entry.SessionID,
		EventType: entry.EventType,
		Meta:      datatypes.JSON(raw),
		CreatedAt: at.UTC(),
	}
	if _, err := s.repo.Create(dbc.Ctx, dbc.Tx, ev); err != nil {
		return nil, err
	}

	if box := outboxFrom(dbc.Ctx); box != nil {
		box.add(ev)
	} else {
		s.Committed(dbc.Ctx, []*types.AuditEvent{ev})
	}
	return ev, nil
}

func (s *auditSink) Committed(ctx context.Context, events []*types.AuditEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, ev := range events {
		if err := s.publisher.PublishAuditEvent(ctx, ev); err != nil {
			s.log.Warn("audit publish failed", "event_id", ev.ID, "event_type", ev.EventType, "error", err)
		}
	}
}

type outboxKey struct{}

// auditOutbox holds events appended inside a transaction until it commits.
type auditOutbox struct {
	mu     sync.Mutex
	events []*types.AuditEvent
}

func withAuditOutbox(ctx context.Context) (context.Context, *auditOutbox) {
	box := &auditOutbox{}
	return context.WithValue(ctx, outboxKey{}, box), box
}

func outboxFrom(ctx context.Context) *auditOutbox {
	if ctx == nil {
		return nil
	}
	box, _ := ctx.Value(outboxKey{}).(*auditOutbox)
	return box
}

func (b *auditOutbox) add(ev *types.AuditEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *auditOutbox) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

func (b *auditOutbox) drain() []*types.AuditEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}
