package services

import (
	"testing"

	"github.com/yungbote/aaos-backend/internal/domain/identity"
	"github.com/yungbote/aaos-backend/internal/domain/session"
)

func TestCanEnterInsightDelivery(t *testing.T) {
	h := newHarness(t)
	u := h.user()

	res, err := h.guard.CanEnterInsightDelivery(h.dbc(), u.ID)
	if err != nil {
		t.Fatalf("CanEnterInsightDelivery: %v", err)
	}
	if res.OK || res.Reason != "UserContext missing; cannot enter INSIGHT_DELIVERY." {
		t.Fatalf("unexpected result without context: %+v", res)
	}

	if _, err := h.contexts.EnsureUserContext(h.dbc(), u.ID); err != nil {
		t.Fatalf("EnsureUserContext: %v", err)
	}
	res, _ = h.guard.CanEnterInsightDelivery(h.dbc(), u.ID)
	if res.OK || res.Reason != "No active ModelSet; cannot enter INSIGHT_DELIVERY." {
		t.Fatalf("unexpected result without model set: %+v", res)
	}

	ms, err := h.identity.CreateModelSet(h.dbc(), u.ID)
	if err != nil {
		t.Fatalf("CreateModelSet: %v", err)
	}
	if _, err := h.contexts.ActivateModelSet(h.dbc(), u.ID, ms.ID); err != nil {
		t.Fatalf("ActivateModelSet: %v", err)
	}
	res, _ = h.guard.CanEnterInsightDelivery(h.dbc(), u.ID)
	if res.OK || res.Reason != "Active ModelSet has no identity versions; cannot enter INSIGHT_DELIVERY." {
		t.Fatalf("unexpected result without versions: %+v", res)
	}

	if _, err := h.identity.CreateVersion(h.dbc(), CreateVersionInput{UserID: u.ID, ModelSetID: ms.ID, Type: identity.ModelTypeFIM}); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	res, _ = h.guard.CanEnterInsightDelivery(h.dbc(), u.ID)
	if !res.OK {
		t.Fatalf("expected allow, got %+v", res)
	}

	h.pauseUser(u.ID)
	res, _ = h.guard.CanEnterInsightDelivery(h.dbc(), u.ID)
	if res.OK || res.Reason != "User is paused; cannot enter INSIGHT_DELIVERY." {
		t.Fatalf("pause must be checked first: %+v", res)
	}
}

func TestCanTransitionAndInterpret(t *testing.T) {
	h := newHarness(t)
	u := h.user()

	res, err := h.guard.CanTransition(h.dbc(), u.ID, session.StateModeled, session.StateInsightDelivery)
	if err != nil || !res.OK {
		t.Fatalf("unpaused transition should be allowed: %+v %v", res, err)
	}

	h.pauseUser(u.ID)
	res, _ = h.guard.CanTransition(h.dbc(), u.ID, session.StateModeled, session.StateInsightDelivery)
	if res.OK {
		t.Fatalf("paused transition should be denied")
	}
	res, _ = h.guard.CanTransition(h.dbc(), u.ID, session.StateModeled, session.StatePaused)
	if !res.OK {
		t.Fatalf("PAUSED is reachable while paused: %+v", res)
	}

	if h.guard.CanInterpret(session.StateAssessing).OK {
		t.Fatalf("interpretation is blocked during ASSESSING")
	}
	if !h.guard.CanInterpret(session.StateModeled).OK {
		t.Fatalf("interpretation is allowed outside ASSESSING")
	}
}
