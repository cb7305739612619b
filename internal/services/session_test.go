package services

import (
	"strings"
	"testing"

	"github.com/yungbote/aaos-backend/internal/data/repos/testutil"
	"github.com/yungbote/aaos-backend/internal/domain/audit"
	"github.com/yungbote/aaos-backend/internal/domain/governance"
	"github.com/yungbote/aaos-backend/internal/domain/identity"
	"github.com/yungbote/aaos-backend/internal/domain/session"
)

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)
	u := h.user()

	s, err := h.sessions.OpenSession(h.dbc(), OpenSessionInput{UserID: u.ID})
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if s.Phase != session.PhaseOpening || s.State != session.StateUninitialized {
		t.Fatalf("unexpected initial session: %+v", s)
	}
	if s.Type != session.TypeAssessment || s.Purpose != "New session" {
		t.Fatalf("defaults not applied: %+v", s)
	}

	if _, err := h.sessions.CloseSession(h.dbc(), u.ID, s.ID); !governance.IsCode(err, governance.CodeInvariantViolation) {
		t.Fatalf("close before CLOSURE must fail, got %v", err)
	} else if !strings.Contains(err.Error(), "(current: OPENING)") {
		t.Fatalf("error should name the current phase: %v", err)
	}

	if _, err := h.sessions.AdvancePhase(h.dbc(), u.ID, s.ID, session.PhaseSynthesis); !governance.IsCode(err, governance.CodeInvariantViolation) {
		t.Fatalf("skipping a phase must fail, got %v", err)
	}
	for _, to := range []session.Phase{session.PhaseEngagement, session.PhaseSynthesis, session.PhaseClosure} {
		s, err = h.sessions.AdvancePhase(h.dbc(), u.ID, s.ID, to)
		if err != nil {
			t.Fatalf("AdvancePhase(%s): %v", to, err)
		}
		if s.Phase != to {
			t.Fatalf("phase = %s, want %s", s.Phase, to)
		}
	}

	closed, err := h.sessions.CloseSession(h.dbc(), u.ID, s.ID)
	if err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if !session.IsClosed(closed) {
		t.Fatalf("session should satisfy the closed invariant: %+v", closed)
	}
	again, err := h.sessions.CloseSession(h.dbc(), u.ID, s.ID)
	if err != nil {
		t.Fatalf("second close must succeed: %v", err)
	}
	if !again.ClosedAt.Equal(*closed.ClosedAt) {
		t.Fatalf("second close must not move closedAt")
	}
	if n := len(h.events(u.ID, audit.EventSessionClosed)); n != 1 {
		t.Fatalf("expected one SESSION_CLOSED, got %d", n)
	}

	uc, err := h.contexts.EnsureUserContext(h.dbc(), u.ID)
	if err != nil {
		t.Fatalf("EnsureUserContext: %v", err)
	}
	if uc.LastClosedSessionID == nil || *uc.LastClosedSessionID != s.ID {
		t.Fatalf("close should record the last closed session: %+v", uc)
	}

	if _, err := h.sessions.AdvancePhase(h.dbc(), u.ID, s.ID, session.PhaseClosure); !governance.IsCode(err, governance.CodeInvariantViolation) {
		t.Fatalf("advancing a closed session must fail, got %v", err)
	}
	if n := len(h.events(u.ID, audit.EventSessionPhaseAdvanced)); n != 3 {
		t.Fatalf("expected three SESSION_PHASE_ADVANCED, got %d", n)
	}
}

func TestCloseSession_PausedSkipsPointer(t *testing.T) {
	h := newHarness(t)
	u := h.user()
	s := testutil.SeedSession(t, h.ctx, h.db, u.ID, session.PhaseClosure, session.StateUninitialized, nil)
	h.pauseUser(u.ID)

	closed, err := h.sessions.CloseSession(h.dbc(), u.ID, s.ID)
	if err != nil {
		t.Fatalf("close is not pause-guarded: %v", err)
	}
	if closed.ClosedAt == nil {
		t.Fatalf("expected closedAt")
	}
	uc, err := h.contexts.EnsureUserContext(h.dbc(), u.ID)
	if err != nil {
		t.Fatalf("EnsureUserContext: %v", err)
	}
	if uc.LastClosedSessionID != nil {
		t.Fatalf("paused users keep their previous pointer")
	}
}

func TestSessionOwnership(t *testing.T) {
	h := newHarness(t)
	owner := h.user()
	other := h.user()
	s := testutil.SeedSession(t, h.ctx, h.db, owner.ID, session.PhaseOpening, session.StateUninitialized, nil)

	_, err := h.sessions.AdvancePhase(h.dbc(), other.ID, s.ID, session.PhaseEngagement)
	if !governance.IsCode(err, governance.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err = h.sessions.TransitionState(h.dbc(), other.ID, s.ID, session.StateAssessing)
	if !governance.IsCode(err, governance.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestAdvancePhase_BlockedWhilePaused(t *testing.T) {
	h := newHarness(t)
	u := h.user()
	s := testutil.SeedSession(t, h.ctx, h.db, u.ID, session.PhaseOpening, session.StateUninitialized, nil)
	h.pauseUser(u.ID)

	_, err := h.sessions.AdvancePhase(h.dbc(), u.ID, s.ID, session.PhaseEngagement)
	if !governance.IsCode(err, governance.CodePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	blocked := h.events(u.ID, audit.EventActionBlockedPaused)
	if len(blocked) != 1 {
		t.Fatalf("expected one ACTION_BLOCKED_PAUSED, got %d", len(blocked))
	}
	meta := metaOf(t, blocked[0])
	if meta["action"] != "SESSION_ADVANCE" || meta["attemptedPhase"] != string(session.PhaseEngagement) {
		t.Fatalf("unexpected meta: %v", meta)
	}

	if _, err := h.sessions.OpenSession(h.dbc(), OpenSessionInput{UserID: u.ID}); !governance.IsCode(err, governance.CodePaused) {
		t.Fatalf("open must be blocked while paused, got %v", err)
	}
}

func TestTransitionState(t *testing.T) {
	h := newHarness(t)
	u := h.user()
	s := testutil.SeedSession(t, h.ctx, h.db, u.ID, session.PhaseOpening, session.StateUninitialized, nil)

	s, err := h.sessions.TransitionState(h.dbc(), u.ID, s.ID, session.StateAssessing)
	if err != nil {
		t.Fatalf("UNINITIALIZED -> ASSESSING: %v", err)
	}
	if _, err := h.sessions.TransitionState(h.dbc(), u.ID, s.ID, session.StateLongitudinalTracking); !governance.IsCode(err, governance.CodeInvariantViolation) {
		t.Fatalf("ASSESSING -> LONGITUDINAL_TRACKING is not in the table, got %v", err)
	}
	if s, err = h.sessions.TransitionState(h.dbc(), u.ID, s.ID, session.StateModeled); err != nil {
		t.Fatalf("ASSESSING -> MODELED: %v", err)
	}

	_, err = h.sessions.TransitionState(h.dbc(), u.ID, s.ID, session.StateInsightDelivery)
	if !governance.IsCode(err, governance.CodePreconditionFailed) {
		t.Fatalf("INSIGHT_DELIVERY without models must fail, got %v", err)
	}

	ms, err := h.identity.CreateModelSet(h.dbc(), u.ID)
	if err != nil {
		t.Fatalf("CreateModelSet: %v", err)
	}
	if _, err := h.identity.CreateVersion(h.dbc(), CreateVersionInput{UserID: u.ID, ModelSetID: ms.ID, Type: identity.ModelTypeCIM}); err != nil {
		t.Fatalf("CreateVersion: %v", err)
	}
	if _, err := h.contexts.ActivateModelSet(h.dbc(), u.ID, ms.ID); err != nil {
		t.Fatalf("ActivateModelSet: %v", err)
	}
	if s, err = h.sessions.TransitionState(h.dbc(), u.ID, s.ID, session.StateInsightDelivery); err != nil {
		t.Fatalf("MODELED -> INSIGHT_DELIVERY with models: %v", err)
	}

	h.pauseUser(u.ID)
	_, err = h.sessions.TransitionState(h.dbc(), u.ID, s.ID, session.StateLongitudinalTracking)
	if !governance.IsCode(err, governance.CodePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	if s, err = h.sessions.TransitionState(h.dbc(), u.ID, s.ID, session.StatePaused); err != nil {
		t.Fatalf("entering PAUSED while paused: %v", err)
	}
	if s.State != session.StatePaused {
		t.Fatalf("state = %s, want PAUSED", s.State)
	}

	transitions := h.events(u.ID, audit.EventSystemStateTransition)
	if len(transitions) != 4 {
		t.Fatalf("expected four SYSTEM_STATE_TRANSITION, got %d", len(transitions))
	}
	last := metaOf(t, transitions[3])
	if last["from"] != string(session.StateInsightDelivery) || last["to"] != string(session.StatePaused) {
		t.Fatalf("unexpected transition meta: %v", last)
	}
	if n := len(h.events(u.ID, audit.EventActionBlockedPaused)); n != 1 {
		t.Fatalf("expected one ACTION_BLOCKED_PAUSED, got %d", n)
	}
}

func TestBootstrap(t *testing.T) {
	h := newHarness(t)
	res, err := h.sessions.Bootstrap(h.dbc())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	evs := h.events(res.UserID, audit.EventBootstrapCreated)
	if len(evs) != 1 || evs[0].SessionID == nil || *evs[0].SessionID != res.SessionID {
		t.Fatalf("expected one BOOTSTRAP_CREATED for the new session, got %+v", evs)
	}
	uc, err := h.contexts.EnsureUserContext(h.dbc(), res.UserID)
	if err != nil {
		t.Fatalf("EnsureUserContext: %v", err)
	}
	if uc.LastClosedSessionID != nil || uc.ContextVersion != 1 {
		t.Fatalf("bootstrap must not set a session pointer: %+v", uc)
	}
}

func TestFailedWriteRollsBackAndPublishesNothing(t *testing.T) {
	h := newHarness(t)
	u := h.user()
	s := testutil.SeedSession(t, h.ctx, h.db, u.ID, session.PhaseOpening, session.StateUninitialized, nil)
	before := len(h.pub.events)

	if _, err := h.sessions.AdvancePhase(h.dbc(), u.ID, s.ID, session.PhaseClosure); err == nil {
		t.Fatalf("expected invalid phase transition")
	}
	if len(h.pub.events) != before {
		t.Fatalf("a rolled-back write must not publish audit events")
	}
	if n := len(h.events(u.ID)); n != 0 {
		t.Fatalf("a rolled-back write must leave no audit rows, got %d", n)
	}
}
