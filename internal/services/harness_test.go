package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/repos"
	"github.com/yungbote/aaos-backend/internal/data/repos/testutil"
	types "github.com/yungbote/aaos-backend/internal/domain"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*types.AuditEvent
}

func (p *fakePublisher) PublishAuditEvent(_ context.Context, ev *types.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) count(eventType audit.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.EventType == eventType {
			n++
		}
	}
	return n
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	clock    *clock.Stepper
	pub      *fakePublisher
	auditLog repos.AuditEventRepo

	control  ControlPlane
	contexts UserContextService
	identity IdentityService
	signals  SignalService
	guard    TransitionGuard
	sessions SessionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	clk := testutil.Clock(t)
	pub := &fakePublisher{}

	users := repos.NewUserRepo(db, log)
	userContexts := repos.NewUserContextRepo(db, log)
	sessionRepo := repos.NewSessionRepo(db, log)
	flags := repos.NewControlFlagRepo(db, log)
	modelSets := repos.NewModelSetRepo(db, log)
	versions := repos.NewIdentityVersionRepo(db, log)
	confidence := repos.NewConfidenceRepo(db, log)
	pressure := repos.NewPressureRepo(db, log)
	auditRepo := repos.NewAuditEventRepo(db, log)

	sink := NewAuditSink(db, log, auditRepo, clk, pub)
	cp := NewControlPlane(db, log, flags, sink, clk)
	uc := NewUserContextService(db, log, users, userContexts, sessionRepo, modelSets, cp, sink, clk)
	guard := NewTransitionGuard(db, log, cp, userContexts, versions)

	return &harness{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		clock:    clk,
		pub:      pub,
		auditLog: auditRepo,
		control:  cp,
		contexts: uc,
		identity: NewIdentityService(db, log, users, modelSets, versions, cp, sink, clk),
		signals:  NewSignalService(db, log, users, sessionRepo, modelSets, confidence, pressure, cp, sink, clk),
		guard:    guard,
		sessions: NewSessionService(db, log, users, sessionRepo, uc, cp, guard, sink, clk),
	}
}

func (h *harness) dbc() dbctx.Context { return dbctx.Context{Ctx: h.ctx} }

func (h *harness) user() *types.User {
	h.t.Helper()
	return testutil.SeedUser(h.t, h.ctx, h.db)
}

func (h *harness) events(userID uuid.UUID, eventTypes ...audit.EventType) []*types.AuditEvent {
	h.t.Helper()
	evs, err := h.auditLog.ListByUser(h.ctx, nil, userID, eventTypes...)
	if err != nil {
		h.t.Fatalf("list audit events: %v", err)
	}
	return evs
}

func (h *harness) pauseUser(userID uuid.UUID) {
	h.t.Helper()
	if _, err := h.control.PauseUser(h.dbc(), userID, nil); err != nil {
		h.t.Fatalf("PauseUser: %v", err)
	}
}

func metaOf(t *testing.T, ev *types.AuditEvent) map[string]any {
	t.Helper()
	meta := map[string]any{}
	if err := json.Unmarshal(ev.Meta, &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	return meta
}
