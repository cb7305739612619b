package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/platform/clock"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
	"github.com/yungbote/aaos-backend/internal/projection"
	"github.com/yungbote/aaos-backend/internal/projection/defs"
	"github.com/yungbote/aaos-backend/internal/services"
)

type Services struct {
	Audit       services.AuditSink
	Control     services.ControlPlane
	UserContext services.UserContextService
	Guard       services.TransitionGuard
	Session     services.SessionService
	Identity    services.IdentityService
	Signal      services.SignalService
	Projections *projection.Executor
}

func wireServices(db *gorm.DB, log *logger.Logger, r Repos, c Clients, clk clock.Clock) (Services, error) {
	log.Info("Wiring services...")

	var publisher services.AuditPublisher
	if c.AuditBus != nil {
		publisher = c.AuditBus
	}
	sink := services.NewAuditSink(db, log, r.AuditEvents, clk, publisher)
	cp := services.NewControlPlane(db, log, r.ControlFlags, sink, clk)
	uc := services.NewUserContextService(db, log, r.Users, r.UserContexts, r.Sessions, r.ModelSets, cp, sink, clk)
	guard := services.NewTransitionGuard(db, log, cp, r.UserContexts, r.Versions)
	sessions := services.NewSessionService(db, log, r.Users, r.Sessions, uc, cp, guard, sink, clk)
	identity := services.NewIdentityService(db, log, r.Users, r.ModelSets, r.Versions, cp, sink, clk)
	signals := services.NewSignalService(db, log, r.Users, r.Sessions, r.ModelSets, r.Confidence, r.Pressure, cp, sink, clk)

	registry, err := defs.NewRegistry()
	if err != nil {
		return Services{}, fmt.Errorf("projection registry: %w", err)
	}
	read := projection.NewReadDB(db)
	exec := projection.NewExecutor(
		registry,
		projection.NewGuard(services.NewProjectionPause(cp), read),
		read,
		services.NewProjectionAudit(sink),
		clk,
		log,
	)

	return Services{
		Audit:       sink,
		Control:     cp,
		UserContext: uc,
		Guard:       guard,
		Session:     sessions,
		Identity:    identity,
		Signal:      signals,
		Projections: exec,
	}, nil
}
