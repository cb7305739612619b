package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/aaos-backend/internal/data/repos"
	"github.com/yungbote/aaos-backend/internal/domain/session"
	"github.com/yungbote/aaos-backend/internal/platform/dbctx"
	"github.com/yungbote/aaos-backend/internal/platform/logger"
)

// GuardResult is an expected policy outcome, never an error.
type GuardResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func allow() GuardResult { return GuardResult{OK: true} }

func deny(reason string) GuardResult { return GuardResult{OK: false, Reason: reason} }

// TransitionGuard composes pause, the state table and structural
// prerequisites into yes/no decisions. Errors are infrastructure failures only.
type TransitionGuard interface {
	CanEnterInsightDelivery(dbc dbctx.Context, userID uuid.UUID) (GuardResult, error)
	CanInterpret(state session.State) GuardResult
	CanTransition(dbc dbctx.Context, userID uuid.UUID, from, to session.State) (GuardResult, error)
}

type transitionGuard struct {
	db       *gorm.DB
	log      *logger.Logger
	pause    PauseChecker
	contexts repos.UserContextRepo
	versions repos.IdentityVersionRepo
}

func NewTransitionGuard(db *gorm.DB, log *logger.Logger, pause PauseChecker, contexts repos.UserContextRepo, versions repos.IdentityVersionRepo) TransitionGuard {
	return &transitionGuard{
		db:       db,
		log:      log.With("service", "TransitionGuard"),
		pause:    pause,
		contexts: contexts,
		versions: versions,
	}
}

// CanEnterInsightDelivery checks, in order: not paused, context exists,
// an active model set, and at least one identity version under it.
func (g *transitionGuard) CanEnterInsightDelivery(dbc dbctx.Context, userID uuid.UUID) (GuardResult, error) {
	pause, err := g.pause.GetEffectivePause(dbc, userID)
	if err != nil {
		return GuardResult{}, err
	}
	if pause.IsPaused {
		return deny("User is paused; cannot enter INSIGHT_DELIVERY."), nil
	}

	uc, err := g.contexts.GetByUserID(dbc.Ctx, dbc.Tx, userID)
	if err != nil {
		return GuardResult{}, mapInfra("guard.canEnterInsightDelivery", err)
	}
	if uc == nil {
		return deny("UserContext missing; cannot enter INSIGHT_DELIVERY."), nil
	}
	if uc.ActiveModelSetID == nil {
		return deny("No active ModelSet; cannot enter INSIGHT_DELIVERY."), nil
	}

	count, err := g.versions.CountByModelSet(dbc.Ctx, dbc.Tx, *uc.ActiveModelSetID)
	if err != nil {
		return GuardResult{}, mapInfra("guard.canEnterInsightDelivery", err)
	}
	if count == 0 {
		return deny("Active ModelSet has no identity versions; cannot enter INSIGHT_DELIVERY."), nil
	}
	return allow(), nil
}

func (g *transitionGuard) CanInterpret(state session.State) GuardResult {
	if state == session.StateAssessing {
		return deny("Interpretation is blocked during ASSESSING.")
	}
	return allow()
}

// CanTransition applies the shared pause rule. from is not consulted: a
// pause short-circuits the state table.
func (g *transitionGuard) CanTransition(dbc dbctx.Context, userID uuid.UUID, _ session.State, to session.State) (GuardResult, error) {
	pause, err := g.pause.GetEffectivePause(dbc, userID)
	if err != nil {
		return GuardResult{}, err
	}
	if !session.PauseAllows(pause.IsPaused, to) {
		return deny("User is paused; transitions are blocked."), nil
	}
	return allow(), nil
}
